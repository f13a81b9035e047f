package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/application"
	"github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/domain"
)

type KeyFunc func(r *http.Request) string

type Options struct {
	Store domain.Admitter
	Stats domain.StatsStore

	// Surface rotula a superfície para os contadores de admissão ("track"/"stats").
	Surface string

	KeyFn             KeyFunc
	KeyHeader         string
	TrustProxyHeaders bool

	// Silent faz a negação responder 204 sem corpo e sem headers de limite —
	// indistinguível de um aceite. Usado na superfície pública de tracking:
	// a existência do limiter não deve ser descoberta por um cliente hostil.
	Silent bool

	RejectStatus        int
	AddRateLimitHeaders bool

	// Now permite injetar o relógio em testes. Se nil, usa time.Now.
	Now func() time.Time
}

type rateInfo interface {
	Limit() int
	Window() time.Duration
}

// DefaultKeyFunc extrai a melhor identidade de origem disponível.
//
// Com trustProxy ligado, tenta os headers de proxy confiáveis em ordem de
// prioridade (CF-Connecting-IP, primeiro IP do X-Forwarded-For, X-Real-IP)
// antes de cair no RemoteAddr.
func DefaultKeyFunc(keyHeader string, trustProxy bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustProxy {
			if v := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); v != "" {
				return v
			}
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				parts := strings.Split(xff, ",")
				if len(parts) > 0 {
					ip := strings.TrimSpace(parts[0])
					if ip != "" {
						return ip
					}
				}
			}
			if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
				return v
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustProxyHeaders)
	}
	if opts.Silent {
		// headers de limite denunciariam o limiter na superfície pública
		opts.AddRateLimitHeaders = false
	}

	svc := application.Service{
		Store: opts.Store,
		Now:   opts.Now,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", key)
				if ri, ok := opts.Store.(rateInfo); ok {
					w.Header().Set("X-RateLimit-Limit", formatInt(ri.Limit()))
					w.Header().Set("X-RateLimit-Window", formatSeconds(ri.Window()))
				}
			}

			dec := svc.Decide(domain.Key(key))
			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.AdmissionEvent{
					Surface: opts.Surface,
					Allowed: dec.Allowed,
					At:      time.Now(),
				})
			}
			if !dec.Allowed {
				if opts.Silent {
					// mesma resposta de um aceite: vazio, sem Retry-After
					w.WriteHeader(http.StatusNoContent)
					return
				}
				if dec.RetryAfter > 0 {
					w.Header().Set("Retry-After", formatSeconds(dec.RetryAfter))
				}
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
