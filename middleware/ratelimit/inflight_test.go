package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/KodiniTools/Kodini-Analytics/middleware/auth"
)

// slowRead simula uma leitura longa do counter store: segura a vaga até o
// teste liberar.
type slowRead struct {
	entered chan struct{}
	finish  chan struct{}
	once    sync.Once
}

func newSlowRead() *slowRead {
	return &slowRead{entered: make(chan struct{}), finish: make(chan struct{})}
}

func (s *slowRead) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	s.once.Do(func() { close(s.entered) })
	<-s.finish
	w.WriteHeader(http.StatusOK)
}

func TestInFlightLimit_RejectsWhenStatsReadsSaturated(t *testing.T) {
	read := newSlowRead()
	h := InFlightLimit(InFlightOptions{
		Max:            1,
		AcquireTimeout: 25 * time.Millisecond,
	})(read)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/overview", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected the held read to finish with 200, got %d", rec.Code)
		}
	}()

	select {
	case <-read.entered:
	case <-time.After(time.Second):
		close(read.finish)
		wg.Wait()
		t.Fatalf("timeout waiting first read to start")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/overview", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while the only slot is held, got %d", rec.Code)
	}

	close(read.finish)
	wg.Wait()
}

func TestInFlightLimit_SlotIsFreedAfterEachRead(t *testing.T) {
	h := InFlightLimit(InFlightOptions{Max: 1, AcquireTimeout: 25 * time.Millisecond})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/live", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("sequential read %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestInFlightLimit_DisabledWhenMaxIsZero(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := InFlightLimit(InFlightOptions{Max: 0})(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/overview", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through with Max=0, got %d", rec.Code)
	}
}

// Mesma composição do servidor: auth na frente, limite de voo atrás. Uma
// requisição sem token não pode ocupar vaga de leitura.
func TestInFlightLimit_GuardsOnlyAuthedStatsTraffic(t *testing.T) {
	read := newSlowRead()
	h := auth.Middleware(auth.Options{Token: "s3cret"})(
		InFlightLimit(InFlightOptions{
			Max:            1,
			AcquireTimeout: 25 * time.Millisecond,
		})(read))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		req := httptest.NewRequest(http.MethodGet, "/api/stats/overview", nil)
		req.Header.Set("Authorization", "Bearer s3cret")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected the held read to finish with 200, got %d", rec.Code)
		}
	}()

	select {
	case <-read.entered:
	case <-time.After(time.Second):
		close(read.finish)
		wg.Wait()
		t.Fatalf("timeout waiting first read to start")
	}

	// sem token: barrada no auth, antes do semáforo
	anon := httptest.NewRecorder()
	h.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/api/stats/overview", nil))
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous request, got %d", anon.Code)
	}

	// com token: vaga ocupada, 503
	req := httptest.NewRequest(http.MethodGet, "/api/stats/overview", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for authed request while slot is held, got %d", rec.Code)
	}

	close(read.finish)
	wg.Wait()
}
