package application

import (
	"context"
	"time"

	"github.com/KodiniTools/Kodini-Analytics/analytics/domain"
)

// TrackService é o caso de uso de ingestão: valida a página contra a
// allow-list, normaliza a região e registra o evento no counter store.
//
// Ele não sabe nada sobre HTTP; o adapter decide como responder (a superfície
// pública responde vazio até para ErrPageNotAllowed).
type TrackService struct {
	Store domain.Store

	// Now permite injetar o relógio em testes. Se nil, usa time.Now.
	Now func() time.Time
}

func (s *TrackService) Record(ctx context.Context, rawPath, countryCode string) error {
	page, err := NormalizePath(rawPath)
	if err != nil {
		return err
	}

	country := domain.NormalizeCountryCode(countryCode)

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return s.Store.Commit(ctx, page, country, now)
}
