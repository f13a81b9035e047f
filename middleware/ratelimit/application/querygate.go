package application

import (
	"context"
	"time"

	"github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/domain"
)

// QueryGate decide se uma leitura de estatísticas pode começar agora. Sem
// Slots configurado, tudo passa; com AcquireTimeout > 0, a espera por vaga é
// limitada e a leitura é recusada quando o prazo estoura.
type QueryGate struct {
	Slots          domain.QuerySlots
	AcquireTimeout time.Duration
}

// Acquire devolve (release, ok). Se ok=false, nenhuma vaga foi tomada e
// release não deve ser chamada.
func (g QueryGate) Acquire(ctx context.Context) (func(), bool) {
	if g.Slots == nil {
		return func() {}, true
	}

	if g.AcquireTimeout <= 0 {
		return g.Slots.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, g.AcquireTimeout)
	defer cancel()
	return g.Slots.Acquire(acqCtx)
}
