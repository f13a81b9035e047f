package infra

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/KodiniTools/Kodini-Analytics/analytics/domain"
)

type purgeRecorder struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (p *purgeRecorder) PurgeHourlyBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, cutoff)
	return 0, nil
}

func (p *purgeRecorder) calls() []time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Time(nil), p.cutoffs...)
}

func (p *purgeRecorder) Commit(context.Context, string, string, time.Time) error { return nil }
func (p *purgeRecorder) TotalsByPage(context.Context) ([]domain.PageStat, error) { return nil, nil }
func (p *purgeRecorder) PeriodTotals(context.Context, domain.DateRange) ([]domain.PageStat, error) {
	return nil, nil
}
func (p *purgeRecorder) DailySeries(context.Context, domain.DateRange, string) ([]domain.DailyView, error) {
	return nil, nil
}
func (p *purgeRecorder) HourlySeries(context.Context, time.Time) ([]domain.HourlyView, error) {
	return nil, nil
}
func (p *purgeRecorder) RegionTotals(context.Context, domain.DateRange, string) ([]domain.RegionStat, error) {
	return nil, nil
}
func (p *purgeRecorder) LiveTotals(context.Context, time.Time) ([]domain.PageStat, error) {
	return nil, nil
}
func (p *purgeRecorder) Close() error { return nil }

func TestSweeper_StartRunsImmediateSweep(t *testing.T) {
	rec := &purgeRecorder{}
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sw := &Sweeper{
		Store: rec,
		Every: time.Hour,
		Now:   func() time.Time { return now },
	}
	sw.Start(ctx)

	calls := rec.calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 immediate sweep, got %d", len(calls))
	}
	expected := now.Add(-7 * 24 * time.Hour)
	if !calls[0].Equal(expected) {
		t.Fatalf("expected cutoff %v, got %v", expected, calls[0])
	}
}

func TestSweeper_CustomRetention(t *testing.T) {
	rec := &purgeRecorder{}
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sw := &Sweeper{
		Store:     rec,
		Retention: 48 * time.Hour,
		Every:     time.Hour,
		Now:       func() time.Time { return now },
	}
	sw.Start(ctx)

	calls := rec.calls()
	if len(calls) != 1 || !calls[0].Equal(now.Add(-48*time.Hour)) {
		t.Fatalf("expected cutoff now-48h, got %+v", calls)
	}
}
