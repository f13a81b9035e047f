package domain

// Camada de domínio do controle de admissão.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

type Key string

// Admitter decide se uma requisição da chave pode prosseguir agora.
//
// Observação: a implementação de referência é a janela fixa por chave
// (infra.WindowStore). O instante é passado pelo chamador para permitir
// testes determinísticos.
type Admitter interface {
	Admit(key Key, now time.Time) Decision
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
