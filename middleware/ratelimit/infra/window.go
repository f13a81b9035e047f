package infra

import (
	"sync"
	"time"

	"github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/domain"
)

// WindowStore é uma implementação de infra baseada em janela fixa por chave.
//
// Cada chave tem uma janela corrente com um teto de admissões. Admissão em
// janela nova (ou expirada) recomeça com o saldo cheio. Saldo esgotado nega
// até a janela rolar; com WithBlockFor a chave entra em bloqueio estendido e
// tudo é negado até o bloqueio vencer, mesmo que a janela nominal já tenha
// expirado.
//
// Limitação conhecida: uma entrada por chave distinta, com expiração
// preguiçosa no próximo acesso e um janitor opcional. Um flood sustentado de
// chaves únicas entre limpezas ainda cresce o mapa sem teto (sem LRU).
type WindowStore struct {
	mu      sync.Mutex
	entries map[domain.Key]*windowEntry

	limit        int
	window       time.Duration
	blockFor     time.Duration
	cleanupEvery time.Duration
}

type windowEntry struct {
	remaining    int
	resetAt      time.Time
	blockedUntil time.Time
}

type WindowOption func(*WindowStore)

// WithBlockFor liga o bloqueio estendido após o esgotamento do saldo.
func WithBlockFor(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.blockFor = d }
}

func WithCleanupEvery(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

func NewWindowStore(limit int, window time.Duration, opts ...WindowOption) *WindowStore {
	s := &WindowStore{
		entries:      make(map[domain.Key]*windowEntry),
		limit:        limit,
		window:       window,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WindowStore) Limit() int            { return s.limit }
func (s *WindowStore) Window() time.Duration { return s.window }

// Admit implementa domain.Admitter.
//
// O saldo nunca fica negativo e nunca passa do teto dentro de uma janela:
// ele só muda aqui, sob o mutex do store.
func (s *WindowStore) Admit(key domain.Key, now time.Time) domain.Decision {
	if s.limit <= 0 {
		return domain.Decision{Allowed: false, RetryAfter: s.window}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]

	// Bloqueio estendido vence qualquer rolagem de janela.
	if ok && ent.blockedUntil.After(now) {
		return domain.Decision{Allowed: false, RetryAfter: ent.blockedUntil.Sub(now)}
	}

	// Janela nova (primeiro acesso ou expirada): saldo cheio, admite.
	if !ok || !ent.resetAt.After(now) {
		s.entries[key] = &windowEntry{remaining: s.limit - 1, resetAt: now.Add(s.window)}
		return domain.Decision{Allowed: true}
	}

	if ent.remaining > 0 {
		ent.remaining--
		return domain.Decision{Allowed: true}
	}

	retry := ent.resetAt.Sub(now)
	if s.blockFor > 0 {
		ent.blockedUntil = now.Add(s.blockFor)
		retry = s.blockFor
	}
	return domain.Decision{Allowed: false, RetryAfter: retry}
}

// Len retorna o número de chaves rastreadas (diagnóstico/testes).
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup remove entradas com janela expirada e sem bloqueio ativo.
func (s *WindowStore) Cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if !ent.resetAt.After(now) && !ent.blockedUntil.After(now) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *WindowStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
// (Permite reuso em libs sem acoplar.)
type DoneContext interface {
	Done() <-chan struct{}
}
