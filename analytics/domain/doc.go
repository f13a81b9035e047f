// Package domain define o contrato do counter store e os tipos agregados do
// serviço de analytics.
//
// Este pacote não depende de net/http nem de banco de dados. As implementações
// concretas (SQLite, Redis) vivem em analytics/infra; os casos de uso em
// analytics/application.
package domain
