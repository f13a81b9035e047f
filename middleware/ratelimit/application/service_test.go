package application

import (
	"testing"
	"time"

	"github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/domain"
)

type fakeAdmitter struct {
	dec     domain.Decision
	lastKey domain.Key
	lastNow time.Time
}

func (f *fakeAdmitter) Admit(key domain.Key, now time.Time) domain.Decision {
	f.lastKey = key
	f.lastNow = now
	return f.dec
}

func TestService_Decide_AllowsWhenNoStore(t *testing.T) {
	svc := Service{}
	dec := svc.Decide("k")
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter=0 when allowed, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_PassesKeyAndClockToStore(t *testing.T) {
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	adm := &fakeAdmitter{dec: domain.Decision{Allowed: true}}
	svc := Service{Store: adm, Now: func() time.Time { return fixed }}

	dec := svc.Decide("k1")
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if adm.lastKey != "k1" {
		t.Fatalf("expected key k1, got %q", adm.lastKey)
	}
	if !adm.lastNow.Equal(fixed) {
		t.Fatalf("expected injected clock, got %s", adm.lastNow)
	}
}

func TestService_Decide_PropagatesDenialWithRetryAfter(t *testing.T) {
	adm := &fakeAdmitter{dec: domain.Decision{Allowed: false, RetryAfter: 42 * time.Second}}
	svc := Service{Store: adm}

	dec := svc.Decide("k")
	if dec.Allowed {
		t.Fatalf("expected blocked")
	}
	if dec.RetryAfter != 42*time.Second {
		t.Fatalf("expected RetryAfter=42s, got %s", dec.RetryAfter)
	}
}
