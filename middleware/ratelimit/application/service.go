package application

import (
	"time"

	"github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do controle de admissão.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.Admitter

	// Now permite injetar o relógio em testes. Se nil, usa time.Now.
	Now func() time.Time
}

func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return s.Store.Admit(key, now)
}
