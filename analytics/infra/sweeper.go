package infra

import (
	"context"
	"log"
	"time"

	"github.com/KodiniTools/Kodini-Analytics/analytics/domain"
)

const (
	defaultRetention  = 7 * 24 * time.Hour
	defaultSweepEvery = 6 * time.Hour
)

// Sweeper remove periodicamente os buckets horários mais antigos que a janela
// de retenção. Os contadores diários nunca são tocados.
type Sweeper struct {
	Store domain.Store

	// Retention define a janela mantida; zero usa 7 dias.
	Retention time.Duration

	// Every define o intervalo entre varreduras; zero usa 6 horas.
	Every time.Duration

	Logger *log.Logger
	Now    func() time.Time
}

func (s *Sweeper) retention() time.Duration {
	if s.Retention > 0 {
		return s.Retention
	}
	return defaultRetention
}

func (s *Sweeper) every() time.Duration {
	if s.Every > 0 {
		return s.Every
	}
	return defaultSweepEvery
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Sweeper) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.retention())

	removed, err := s.Store.PurgeHourlyBefore(ctx, cutoff)
	if err != nil {
		s.logf("retention sweep error (will retry next tick): %v", err)
		return
	}
	if removed > 0 {
		s.logf("retention sweep removed %d hourly buckets", removed)
	}
}

// Start executa uma varredura imediata e depois dispara a goroutine periódica.
// A goroutine encerra quando ctx é cancelado.
func (s *Sweeper) Start(ctx context.Context) {
	s.sweep(ctx)

	go func() {
		ticker := time.NewTicker(s.every())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}
