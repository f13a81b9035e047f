package domain

import (
	"testing"
	"time"
)

func TestNormalizeCountryCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"DE", "DE"},
		{"de", "DE"},
		{" br ", "BR"},
		{"", "XX"},
		{"D", "XX"},
		{"DEU", "XX"},
		{"1A", "XX"},
		{"d!", "XX"},
	}
	for _, c := range cases {
		if got := NormalizeCountryCode(c.in); got != c.want {
			t.Fatalf("NormalizeCountryCode(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestCountryName_FallsBackToCode(t *testing.T) {
	if got := CountryName("DE"); got != "Germany" {
		t.Fatalf("expected Germany, got %q", got)
	}
	if got := CountryName("ZZ"); got != "ZZ" {
		t.Fatalf("expected code echo for unknown country, got %q", got)
	}
}

func TestTimeBucketsAreUTC(t *testing.T) {
	// 23:30 em UTC-2 é 01:30 do dia seguinte em UTC
	loc := time.FixedZone("UTC-2", -2*60*60)
	local := time.Date(2026, 8, 29, 23, 30, 0, 0, loc)

	if got := DateOf(local); got != "2026-08-30" {
		t.Fatalf("expected UTC date 2026-08-30, got %q", got)
	}
	if got := HourOf(local); got != "2026-08-30 01:00:00" {
		t.Fatalf("expected UTC hour bucket, got %q", got)
	}
}
