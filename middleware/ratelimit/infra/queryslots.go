package infra

import (
	"context"

	"github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/domain"
)

type querySemaphore struct {
	sem chan struct{}
}

// NewQuerySlots cria o semáforo de leituras com `max` vagas.
func NewQuerySlots(max int) domain.QuerySlots {
	return &querySemaphore{sem: make(chan struct{}, max)}
}

func (q *querySemaphore) Acquire(ctx context.Context) (func(), bool) {
	select {
	case q.sem <- struct{}{}:
		return func() { <-q.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}
