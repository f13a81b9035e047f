package domain

import "context"

// QuerySlots limita quantas leituras do counter store rodam ao mesmo tempo.
// Um dashboard agressivo (ou várias abas dele) não pode monopolizar a única
// conexão de escrita do backend SQLite.
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar. Quando ok,
// a função release devolve a vaga e deve ser chamada exatamente uma vez.
type QuerySlots interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
