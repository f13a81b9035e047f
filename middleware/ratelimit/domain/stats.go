package domain

import (
	"context"
	"time"
)

// AdmissionEvent representa uma decisão de admissão já tomada.
//
// Surface identifica a superfície da API ("track" ou "stats"). O conjunto é
// fixo e pequeno de propósito: salvar caminhos ou chaves livres explodiria a
// cardinalidade em uma base como Redis. A chave do cliente não é registrada —
// este serviço não retém endereços.
type AdmissionEvent struct {
	Surface string
	Allowed bool

	At time.Time
}

// StatsStore é a estratégia de persistência para contadores de admissão.
//
// Implementações podem armazenar em Redis, memória, etc.
// O middleware deve tratar erro como best-effort (não derrubar request).
type StatsStore interface {
	Record(ctx context.Context, ev AdmissionEvent) error
}
