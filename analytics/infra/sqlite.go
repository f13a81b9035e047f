package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"

	"github.com/KodiniTools/Kodini-Analytics/analytics/domain"
)

// Três tabelas de contadores com chave composta única e índices secundários
// para consultas por intervalo. Nenhuma linha representa um evento individual.
const schema = `
CREATE TABLE IF NOT EXISTS page_views (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	page_path TEXT NOT NULL,
	view_date TEXT NOT NULL,
	view_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE(page_path, view_date)
);

CREATE TABLE IF NOT EXISTS region_views (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	page_path TEXT NOT NULL,
	country_code TEXT NOT NULL,
	view_date TEXT NOT NULL,
	view_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE(page_path, country_code, view_date)
);

CREATE TABLE IF NOT EXISTS hourly_views (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	page_path TEXT NOT NULL,
	view_hour TEXT NOT NULL,
	view_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE(page_path, view_hour)
);

CREATE INDEX IF NOT EXISTS idx_page_views_date ON page_views(view_date);
CREATE INDEX IF NOT EXISTS idx_page_views_path ON page_views(page_path);
CREATE INDEX IF NOT EXISTS idx_region_views_date ON region_views(view_date);
CREATE INDEX IF NOT EXISTS idx_hourly_views_hour ON hourly_views(view_hour);
`

// SQLiteStore implementa domain.Store sobre um arquivo SQLite local.
//
// A conexão é limitada a 1 (MaxOpenConns): o caminho de escrita fica
// serializado no processo, então o upsert-increment nunca perde update e não
// existe corrida de ler-então-escrever. WAL mantém o arquivo saudável sob
// leituras frequentes do dashboard.
type SQLiteStore struct {
	db *sqlx.DB

	purgeBatch int
	purgePace  *rate.Limiter
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{
		db:         db,
		purgeBatch: 500,
		// lotes curtos e espaçados: a varredura de retenção nunca segura a
		// única conexão por muito tempo, e os commits continuam fluindo
		purgePace: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Commit incrementa as três tabelas na mesma transação: ou o evento aparece
// nas três, ou em nenhuma.
func (s *SQLiteStore) Commit(ctx context.Context, pagePath, countryCode string, now time.Time) error {
	day := domain.DateOf(now)
	hour := domain.HourOf(now)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO page_views (page_path, view_date, view_count)
		VALUES (?, ?, 1)
		ON CONFLICT(page_path, view_date)
		DO UPDATE SET view_count = view_count + 1`, pagePath, day); err != nil {
		return fmt.Errorf("increment page_views: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO region_views (page_path, country_code, view_date, view_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(page_path, country_code, view_date)
		DO UPDATE SET view_count = view_count + 1`, pagePath, countryCode, day); err != nil {
		return fmt.Errorf("increment region_views: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO hourly_views (page_path, view_hour, view_count)
		VALUES (?, ?, 1)
		ON CONFLICT(page_path, view_hour)
		DO UPDATE SET view_count = view_count + 1`, pagePath, hour); err != nil {
		return fmt.Errorf("increment hourly_views: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit page view: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TotalsByPage(ctx context.Context) ([]domain.PageStat, error) {
	out := []domain.PageStat{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT page_path, SUM(view_count) AS views
		FROM page_views
		GROUP BY page_path
		ORDER BY views DESC`)
	if err != nil {
		return nil, fmt.Errorf("totals by page: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) PeriodTotals(ctx context.Context, r domain.DateRange) ([]domain.PageStat, error) {
	out := []domain.PageStat{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT page_path, SUM(view_count) AS views
		FROM page_views
		WHERE view_date BETWEEN ? AND ?
		GROUP BY page_path
		ORDER BY views DESC`, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("period totals: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) DailySeries(ctx context.Context, r domain.DateRange, pagePath string) ([]domain.DailyView, error) {
	out := []domain.DailyView{}

	if pagePath == "" {
		err := s.db.SelectContext(ctx, &out, `
			SELECT view_date, SUM(view_count) AS views
			FROM page_views
			WHERE view_date BETWEEN ? AND ?
			GROUP BY view_date
			ORDER BY view_date ASC`, r.Start, r.End)
		if err != nil {
			return nil, fmt.Errorf("daily series: %w", err)
		}
		return out, nil
	}

	err := s.db.SelectContext(ctx, &out, `
		SELECT view_date, view_count AS views
		FROM page_views
		WHERE page_path = ? AND view_date BETWEEN ? AND ?
		ORDER BY view_date ASC`, pagePath, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("daily series for page: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) HourlySeries(ctx context.Context, since time.Time) ([]domain.HourlyView, error) {
	out := []domain.HourlyView{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT view_hour, SUM(view_count) AS views
		FROM hourly_views
		WHERE view_hour >= ?
		GROUP BY view_hour
		ORDER BY view_hour ASC`, since.UTC().Format(domain.HourFormat))
	if err != nil {
		return nil, fmt.Errorf("hourly series: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) RegionTotals(ctx context.Context, r domain.DateRange, pagePath string) ([]domain.RegionStat, error) {
	out := []domain.RegionStat{}

	if pagePath == "" {
		err := s.db.SelectContext(ctx, &out, `
			SELECT country_code, SUM(view_count) AS views
			FROM region_views
			WHERE view_date BETWEEN ? AND ?
			GROUP BY country_code
			ORDER BY views DESC`, r.Start, r.End)
		if err != nil {
			return nil, fmt.Errorf("region totals: %w", err)
		}
		return out, nil
	}

	err := s.db.SelectContext(ctx, &out, `
		SELECT country_code, SUM(view_count) AS views
		FROM region_views
		WHERE page_path = ? AND view_date BETWEEN ? AND ?
		GROUP BY country_code
		ORDER BY views DESC`, pagePath, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("region totals for page: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) LiveTotals(ctx context.Context, since time.Time) ([]domain.PageStat, error) {
	out := []domain.PageStat{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT page_path, SUM(view_count) AS views
		FROM hourly_views
		WHERE view_hour >= ?
		GROUP BY page_path
		ORDER BY views DESC`, since.UTC().Format(domain.HourFormat))
	if err != nil {
		return nil, fmt.Errorf("live totals: %w", err)
	}
	return out, nil
}

// PurgeHourlyBefore apaga buckets horários anteriores ao corte, em lotes
// pequenos, devolvendo o total removido.
func (s *SQLiteStore) PurgeHourlyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cut := cutoff.UTC().Format(domain.HourFormat)

	var total int64
	for {
		if err := s.purgePace.Wait(ctx); err != nil {
			return total, err
		}

		res, err := s.db.ExecContext(ctx, `
			DELETE FROM hourly_views
			WHERE id IN (SELECT id FROM hourly_views WHERE view_hour < ? LIMIT ?)`,
			cut, s.purgeBatch)
		if err != nil {
			return total, fmt.Errorf("purge hourly_views: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("purge hourly_views rows: %w", err)
		}
		total += n
		if n < int64(s.purgeBatch) {
			return total, nil
		}
	}
}
