package domain

import (
	"context"
	"errors"
	"time"
)

// Formatos canônicos dos buckets de tempo. Todos os buckets derivam de UTC:
// usar o fuso do host deslocaria a fronteira dos dias entre deployments.
const (
	DateFormat = "2006-01-02"
	HourFormat = "2006-01-02 15:04:05"
)

// ErrPageNotAllowed indica um caminho fora da allow-list. Nunca chega ao
// cliente: a ingestão trata como no-op silencioso.
var ErrPageNotAllowed = errors.New("page not in allow-list")

type PageStat struct {
	Path  string `json:"path" db:"page_path"`
	Views int64  `json:"views" db:"views"`
}

type DailyView struct {
	Date  string `json:"date" db:"view_date"`
	Views int64  `json:"views" db:"views"`
}

type RegionStat struct {
	Country string `json:"code" db:"country_code"`
	Views   int64  `json:"views" db:"views"`
}

type HourlyView struct {
	Hour  string `json:"hour" db:"view_hour"`
	Views int64  `json:"views" db:"views"`
}

// DateRange é um intervalo inclusivo de datas no formato DateFormat.
type DateRange struct {
	Start string
	End   string
}

// Store é o contador agregado: três tabelas com bucket de tempo (diário por
// página, diário por página+região, horário por página). Nenhuma linha
// representa um evento individual — só roll-ups sobrevivem à ingestão.
//
// Commit registra um page view nas três tabelas como unidade atômica: ou o
// evento aparece nas três, ou em nenhuma. Daí vem a invariante entre tabelas:
// a soma das regiões de (página, data) é igual ao contador diário da página.
//
// As leituras nunca mutam contadores. PurgeHourlyBefore é a varredura de
// retenção dos buckets horários (horizonte de 7 dias por padrão).
type Store interface {
	Commit(ctx context.Context, pagePath, countryCode string, now time.Time) error

	TotalsByPage(ctx context.Context) ([]PageStat, error)
	PeriodTotals(ctx context.Context, r DateRange) ([]PageStat, error)
	// DailySeries retorna (data, views) ascendente; pagePath vazio soma todas.
	DailySeries(ctx context.Context, r DateRange, pagePath string) ([]DailyView, error)
	HourlySeries(ctx context.Context, since time.Time) ([]HourlyView, error)
	RegionTotals(ctx context.Context, r DateRange, pagePath string) ([]RegionStat, error)
	LiveTotals(ctx context.Context, since time.Time) ([]PageStat, error)

	PurgeHourlyBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// DateOf resolve o bucket diário de um instante, sempre em UTC.
func DateOf(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// HourOf resolve o bucket horário (hora truncada) de um instante, sempre em UTC.
func HourOf(t time.Time) string {
	return t.UTC().Truncate(time.Hour).Format(HourFormat)
}
