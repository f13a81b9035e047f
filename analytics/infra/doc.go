// Package infra fornece as implementações concretas de domain.Store (SQLite e
// Redis) e o Sweeper de retenção dos buckets horários.
package infra
