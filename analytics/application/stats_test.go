package application

import (
	"context"
	"testing"
	"time"

	"github.com/KodiniTools/Kodini-Analytics/analytics/domain"
)

// fakeStore devolve dados fixos; só o que o teste precisa.
type fakeStore struct {
	totals  []domain.PageStat
	period  []domain.PageStat
	daily   []domain.DailyView
	hourly  []domain.HourlyView
	regions []domain.RegionStat
	live    []domain.PageStat
}

func (f *fakeStore) Commit(context.Context, string, string, time.Time) error { return nil }
func (f *fakeStore) TotalsByPage(context.Context) ([]domain.PageStat, error) {
	return f.totals, nil
}
func (f *fakeStore) PeriodTotals(context.Context, domain.DateRange) ([]domain.PageStat, error) {
	return f.period, nil
}
func (f *fakeStore) DailySeries(context.Context, domain.DateRange, string) ([]domain.DailyView, error) {
	return f.daily, nil
}
func (f *fakeStore) HourlySeries(context.Context, time.Time) ([]domain.HourlyView, error) {
	return f.hourly, nil
}
func (f *fakeStore) RegionTotals(context.Context, domain.DateRange, string) ([]domain.RegionStat, error) {
	return f.regions, nil
}
func (f *fakeStore) LiveTotals(context.Context, time.Time) ([]domain.PageStat, error) {
	return f.live, nil
}
func (f *fakeStore) PurgeHourlyBefore(context.Context, time.Time) (int64, error) { return 0, nil }
func (f *fakeStore) Close() error                                                { return nil }

func fixedNow() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func TestStatsService_Overview_ComposesSummary(t *testing.T) {
	store := &fakeStore{
		period: []domain.PageStat{{Path: "/a/", Views: 5}, {Path: "/b/", Views: 3}},
		totals: []domain.PageStat{{Path: "/a/", Views: 10}, {Path: "/b/", Views: 3}},
		live:   []domain.PageStat{{Path: "/a/", Views: 2}},
	}
	svc := &StatsService{Store: store, Now: fixedNow}

	out, err := svc.Overview(context.Background(), "7d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Period != "7d" || out.StartDate != "2026-08-23" || out.EndDate != "2026-08-30" {
		t.Fatalf("unexpected period/range: %+v", out)
	}
	if out.Summary.TotalViews != 8 || out.Summary.AllTimeViews != 13 || out.Summary.Last24hViews != 2 {
		t.Fatalf("unexpected summary: %+v", out.Summary)
	}
	if out.Summary.PageCount != 2 {
		t.Fatalf("expected pageCount 2, got %d", out.Summary.PageCount)
	}
	if out.Pages[0].Path != "/a/" || out.Pages[0].AllTime != 10 {
		t.Fatalf("expected /a/ with allTime 10, got %+v", out.Pages[0])
	}
}

func TestStatsService_Regions_Percentages(t *testing.T) {
	store := &fakeStore{
		regions: []domain.RegionStat{
			{Country: "DE", Views: 60},
			{Country: "FR", Views: 40},
		},
	}
	svc := &StatsService{Store: store, Now: fixedNow}

	out, err := svc.Regions(context.Background(), "30d", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Total != 100 {
		t.Fatalf("expected total 100, got %d", out.Total)
	}
	if out.Regions[0].Percentage != "60.0" || out.Regions[1].Percentage != "40.0" {
		t.Fatalf("expected 60.0/40.0, got %q/%q", out.Regions[0].Percentage, out.Regions[1].Percentage)
	}
	if out.Regions[0].Name != "Germany" {
		t.Fatalf("expected Germany, got %q", out.Regions[0].Name)
	}
	if out.Page != "all" {
		t.Fatalf("expected page label all, got %q", out.Page)
	}
}

func TestStatsService_Regions_ZeroTotalAvoidsDivisionByZero(t *testing.T) {
	store := &fakeStore{
		regions: []domain.RegionStat{{Country: "DE", Views: 0}},
	}
	svc := &StatsService{Store: store, Now: fixedNow}

	out, err := svc.Regions(context.Background(), "30d", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Regions[0].Percentage != "0" {
		t.Fatalf(`expected "0" percentage on zero total, got %q`, out.Regions[0].Percentage)
	}
}

func TestStatsService_Daily_EmptyResultIsEmptyNotNil(t *testing.T) {
	svc := &StatsService{Store: &fakeStore{}, Now: fixedNow}

	out, err := svc.Daily(context.Background(), "30d", "/nicht-da/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Data == nil || len(out.Data) != 0 {
		t.Fatalf("expected empty non-nil data, got %#v", out.Data)
	}
	if out.Page != "/nicht-da/" {
		t.Fatalf("expected page echo, got %q", out.Page)
	}
}

func TestStatsService_Live_SumsTrailing24h(t *testing.T) {
	store := &fakeStore{
		live:   []domain.PageStat{{Path: "/a/", Views: 7}, {Path: "/b/", Views: 3}},
		hourly: []domain.HourlyView{{Hour: "2026-08-30 11:00:00", Views: 10}},
	}
	svc := &StatsService{Store: store, Now: fixedNow}

	out, err := svc.Live(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Last24h != 10 {
		t.Fatalf("expected last24h 10, got %d", out.Last24h)
	}
	if len(out.Hourly) != 1 || out.Hourly[0].Views != 10 {
		t.Fatalf("unexpected hourly series: %+v", out.Hourly)
	}
}
