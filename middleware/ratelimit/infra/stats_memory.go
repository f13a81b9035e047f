package infra

import (
	"context"
	"sync"

	"github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/domain"
)

type Counters struct {
	Allowed int64
	Denied  int64
}

// MemoryStatsStore é uma implementação simples em memória dos contadores de
// admissão. Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu        sync.Mutex
	total     Counters
	bySurface map[string]Counters
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		bySurface: make(map[string]Counters),
	}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.AdmissionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Allowed {
		s.total.Allowed++
	} else {
		s.total.Denied++
	}

	if ev.Surface != "" {
		c := s.bySurface[ev.Surface]
		if ev.Allowed {
			c.Allowed++
		} else {
			c.Denied++
		}
		s.bySurface[ev.Surface] = c
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) BySurface() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.bySurface))
	for k, v := range s.bySurface {
		out[k] = v
	}
	return out
}
