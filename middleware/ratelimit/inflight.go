package ratelimit

import (
	"net/http"
	"time"

	"github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/application"
	"github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/infra"
)

type InFlightOptions struct {
	// Max é o teto de requisições simultâneas; <= 0 desliga o limite.
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
}

// InFlightLimit limita requisições em voo. No serviço ele envolve só a API de
// estatísticas: a superfície de ingestão precisa de resposta uniforme e não
// pode devolver 503.
func InFlightLimit(opts InFlightOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	gate := application.QueryGate{
		Slots:          infra.NewQuerySlots(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := gate.Acquire(r.Context())
			if !ok {
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
