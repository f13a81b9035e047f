// Package ratelimit fornece adapters HTTP (net/http) para controle de admissão
// e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela fixa, semáforo, contadores), detalhes de infraestrutura
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo no serviço:
//
//  1. Extrai a chave do cliente (headers de proxy confiáveis ou RemoteAddr)
//  2. Chama a camada application para obter a decisão da janela fixa
//  3. Se bloqueado: na superfície de tracking responde 204 vazio (negação
//     silenciosa, indistinguível de aceite); na de estatísticas responde 429
//     com Retry-After
//  4. Se permitido, chama o próximo handler
//
// A superfície de ingestão usa janela de 10 admissões/60s com bloqueio
// estendido de 60s; a de estatísticas, 60/60s sem bloqueio. Ambas vêm de
// variáveis de ambiente lidas em cmd/server.
package ratelimit
