package application

import (
	"context"
	"strconv"
	"time"

	"github.com/KodiniTools/Kodini-Analytics/analytics/domain"
)

// Tipos de resposta da API de estatísticas. Os campos JSON seguem o contrato
// que o dashboard consome.

type Summary struct {
	TotalViews   int64 `json:"totalViews"`
	AllTimeViews int64 `json:"allTimeViews"`
	Last24hViews int64 `json:"last24hViews"`
	PageCount    int   `json:"pageCount"`
}

type OverviewPage struct {
	Path    string `json:"path"`
	Views   int64  `json:"views"`
	AllTime int64  `json:"allTime"`
}

type Overview struct {
	Period    string         `json:"period"`
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
	Summary   Summary        `json:"summary"`
	Pages     []OverviewPage `json:"pages"`
}

type DailyPoint struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

type Daily struct {
	Period string       `json:"period"`
	Page   string       `json:"page"`
	Data   []DailyPoint `json:"data"`
}

type HourlyPoint struct {
	Hour  string `json:"hour"`
	Views int64  `json:"views"`
}

type Hourly struct {
	Period string        `json:"period"`
	Data   []HourlyPoint `json:"data"`
}

type Region struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Views      int64  `json:"views"`
	Percentage string `json:"percentage"`
}

type Regions struct {
	Period  string   `json:"period"`
	Page    string   `json:"page"`
	Total   int64    `json:"total"`
	Regions []Region `json:"regions"`
}

type Live struct {
	Last24h int64             `json:"last24h"`
	Pages   []domain.PageStat `json:"pages"`
	Hourly  []HourlyPoint     `json:"hourly"`
}

// StatsService é o motor de consulta: composição somente-leitura sobre o
// counter store. Nunca muta contadores.
type StatsService struct {
	Store domain.Store

	// Now permite injetar o relógio em testes. Se nil, usa time.Now.
	Now func() time.Time
}

func (s *StatsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *StatsService) Overview(ctx context.Context, period string) (Overview, error) {
	now := s.now()
	r := Range(period, now)

	stats, err := s.Store.PeriodTotals(ctx, r)
	if err != nil {
		return Overview{}, err
	}
	totals, err := s.Store.TotalsByPage(ctx)
	if err != nil {
		return Overview{}, err
	}
	live, err := s.Store.LiveTotals(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return Overview{}, err
	}

	allTime := make(map[string]int64, len(totals))
	var allTimeViews int64
	for _, t := range totals {
		allTime[t.Path] = t.Views
		allTimeViews += t.Views
	}

	var totalViews int64
	pages := make([]OverviewPage, 0, len(stats))
	for _, p := range stats {
		totalViews += p.Views
		pages = append(pages, OverviewPage{Path: p.Path, Views: p.Views, AllTime: allTime[p.Path]})
	}

	var last24h int64
	for _, p := range live {
		last24h += p.Views
	}

	return Overview{
		Period:    period,
		StartDate: r.Start,
		EndDate:   r.End,
		Summary: Summary{
			TotalViews:   totalViews,
			AllTimeViews: allTimeViews,
			Last24hViews: last24h,
			PageCount:    len(pages),
		},
		Pages: pages,
	}, nil
}

func (s *StatsService) Daily(ctx context.Context, period, page string) (Daily, error) {
	r := Range(period, s.now())

	rows, err := s.Store.DailySeries(ctx, r, page)
	if err != nil {
		return Daily{}, err
	}

	data := make([]DailyPoint, 0, len(rows))
	for _, row := range rows {
		data = append(data, DailyPoint{Date: row.Date, Views: row.Views})
	}

	return Daily{Period: period, Page: pageLabel(page), Data: data}, nil
}

func (s *StatsService) Hourly(ctx context.Context) (Hourly, error) {
	rows, err := s.Store.HourlySeries(ctx, s.now().Add(-24*time.Hour))
	if err != nil {
		return Hourly{}, err
	}

	data := make([]HourlyPoint, 0, len(rows))
	for _, row := range rows {
		data = append(data, HourlyPoint{Hour: row.Hour, Views: row.Views})
	}

	return Hourly{Period: "24h", Data: data}, nil
}

func (s *StatsService) Regions(ctx context.Context, period, page string) (Regions, error) {
	r := Range(period, s.now())

	rows, err := s.Store.RegionTotals(ctx, r, page)
	if err != nil {
		return Regions{}, err
	}

	var total int64
	for _, row := range rows {
		total += row.Views
	}

	regions := make([]Region, 0, len(rows))
	for _, row := range rows {
		regions = append(regions, Region{
			Code:       row.Country,
			Name:       domain.CountryName(row.Country),
			Views:      row.Views,
			Percentage: percentage(row.Views, total),
		})
	}

	return Regions{Period: period, Page: pageLabel(page), Total: total, Regions: regions}, nil
}

func (s *StatsService) Live(ctx context.Context) (Live, error) {
	since := s.now().Add(-24 * time.Hour)

	pages, err := s.Store.LiveTotals(ctx, since)
	if err != nil {
		return Live{}, err
	}
	if pages == nil {
		pages = []domain.PageStat{}
	}

	rows, err := s.Store.HourlySeries(ctx, since)
	if err != nil {
		return Live{}, err
	}
	hourly := make([]HourlyPoint, 0, len(rows))
	for _, row := range rows {
		hourly = append(hourly, HourlyPoint{Hour: row.Hour, Views: row.Views})
	}

	var last24h int64
	for _, p := range pages {
		last24h += p.Views
	}

	return Live{Last24h: last24h, Pages: pages, Hourly: hourly}, nil
}

func pageLabel(page string) string {
	if page == "" {
		return "all"
	}
	return page
}

// percentage formata a fatia com uma casa decimal; "0" quando não há total
// (evita divisão por zero).
func percentage(views, total int64) string {
	if total <= 0 {
		return "0"
	}
	return strconv.FormatFloat(100*float64(views)/float64(total), 'f', 1, 64)
}
