package infra

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KodiniTools/Kodini-Analytics/analytics/domain"
)

// RedisStore implementa domain.Store sobre Redis, para instalações que já
// rodam Redis e preferem não carregar um arquivo SQLite.
//
// Layout de chaves (prefixo padrão "pv"):
//
//	pv:days                  SET  com as datas que possuem contadores
//	pv:day:<2006-01-02>      HASH página -> contagem
//	pv:region:<2006-01-02>   HASH "página|CC" -> contagem
//	pv:hour:<bucket horário> HASH página -> contagem, com TTL
//
// O incremento triplo roda num pipeline transacional (MULTI/EXEC), então um
// evento nunca aparece em apenas parte dos contadores.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	hourTTL time.Duration
}

type RedisStoreOption func(*RedisStore)

func WithPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithHourTTL define a validade das chaves horárias. O TTL é uma rede de
// segurança; a varredura de retenção continua sendo a remoção primária.
func WithHourTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.hourTTL = ttl
		}
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:  client,
		prefix:  "pv",
		hourTTL: 8 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) daysKey() string           { return s.prefix + ":days" }
func (s *RedisStore) dayKey(d string) string    { return s.prefix + ":day:" + d }
func (s *RedisStore) regionKey(d string) string { return s.prefix + ":region:" + d }
func (s *RedisStore) hourKey(h string) string   { return s.prefix + ":hour:" + h }

func (s *RedisStore) Commit(ctx context.Context, pagePath, countryCode string, now time.Time) error {
	day := domain.DateOf(now)
	hour := domain.HourOf(now)
	hourKey := s.hourKey(hour)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.daysKey(), day)
		pipe.HIncrBy(ctx, s.dayKey(day), pagePath, 1)
		pipe.HIncrBy(ctx, s.regionKey(day), pagePath+"|"+countryCode, 1)
		pipe.HIncrBy(ctx, hourKey, pagePath, 1)
		pipe.Expire(ctx, hourKey, s.hourTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis commit page view: %w", err)
	}
	return nil
}

// daysInRange devolve as datas registradas dentro do intervalo. As datas no
// formato 2006-01-02 ordenam lexicograficamente, então a comparação de
// strings basta.
func (s *RedisStore) daysInRange(ctx context.Context, r domain.DateRange) ([]string, error) {
	days, err := s.client.SMembers(ctx, s.daysKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list days: %w", err)
	}

	out := days[:0]
	for _, d := range days {
		if d >= r.Start && d <= r.End {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *RedisStore) allDays(ctx context.Context) ([]string, error) {
	days, err := s.client.SMembers(ctx, s.daysKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list days: %w", err)
	}
	sort.Strings(days)
	return days, nil
}

func sumPageHashes(ctx context.Context, client *redis.Client, keys []string) (map[string]int64, error) {
	acc := map[string]int64{}
	for _, key := range keys {
		fields, err := client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("redis read %s: %w", key, err)
		}
		for page, raw := range fields {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("redis counter %s/%s: %w", key, page, err)
			}
			acc[page] += n
		}
	}
	return acc, nil
}

func pageStatsDesc(acc map[string]int64) []domain.PageStat {
	out := make([]domain.PageStat, 0, len(acc))
	for page, views := range acc {
		out = append(out, domain.PageStat{Path: page, Views: views})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func (s *RedisStore) TotalsByPage(ctx context.Context) ([]domain.PageStat, error) {
	days, err := s.allDays(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = s.dayKey(d)
	}
	acc, err := sumPageHashes(ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	return pageStatsDesc(acc), nil
}

func (s *RedisStore) PeriodTotals(ctx context.Context, r domain.DateRange) ([]domain.PageStat, error) {
	days, err := s.daysInRange(ctx, r)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = s.dayKey(d)
	}
	acc, err := sumPageHashes(ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	return pageStatsDesc(acc), nil
}

func (s *RedisStore) DailySeries(ctx context.Context, r domain.DateRange, pagePath string) ([]domain.DailyView, error) {
	days, err := s.daysInRange(ctx, r)
	if err != nil {
		return nil, err
	}

	out := []domain.DailyView{}
	for _, d := range days {
		fields, err := s.client.HGetAll(ctx, s.dayKey(d)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis read day %s: %w", d, err)
		}
		var views int64
		for page, raw := range fields {
			if pagePath != "" && page != pagePath {
				continue
			}
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("redis counter %s/%s: %w", d, page, err)
			}
			views += n
		}
		if views > 0 {
			out = append(out, domain.DailyView{Date: d, Views: views})
		}
	}
	return out, nil
}

// hourBuckets enumera os buckets horários de since (truncado) até agora. A
// retenção de 7 dias mantém a lista curta.
func hourBuckets(since, until time.Time) []string {
	start := since.UTC().Truncate(time.Hour)
	end := until.UTC().Truncate(time.Hour)

	var out []string
	for h := start; !h.After(end); h = h.Add(time.Hour) {
		out = append(out, h.Format(domain.HourFormat))
	}
	return out
}

func (s *RedisStore) HourlySeries(ctx context.Context, since time.Time) ([]domain.HourlyView, error) {
	out := []domain.HourlyView{}
	for _, bucket := range hourBuckets(since, time.Now()) {
		if bucket < since.UTC().Format(domain.HourFormat) {
			continue
		}
		fields, err := s.client.HGetAll(ctx, s.hourKey(bucket)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis read hour %s: %w", bucket, err)
		}
		var views int64
		for page, raw := range fields {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("redis counter %s/%s: %w", bucket, page, err)
			}
			views += n
		}
		if views > 0 {
			out = append(out, domain.HourlyView{Hour: bucket, Views: views})
		}
	}
	return out, nil
}

func (s *RedisStore) RegionTotals(ctx context.Context, r domain.DateRange, pagePath string) ([]domain.RegionStat, error) {
	days, err := s.daysInRange(ctx, r)
	if err != nil {
		return nil, err
	}

	acc := map[string]int64{}
	for _, d := range days {
		fields, err := s.client.HGetAll(ctx, s.regionKey(d)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis read region %s: %w", d, err)
		}
		for field, raw := range fields {
			page, country, ok := strings.Cut(field, "|")
			if !ok {
				continue
			}
			if pagePath != "" && page != pagePath {
				continue
			}
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("redis counter %s/%s: %w", d, field, err)
			}
			acc[country] += n
		}
	}

	out := make([]domain.RegionStat, 0, len(acc))
	for country, views := range acc {
		out = append(out, domain.RegionStat{Country: country, Views: views})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Country < out[j].Country
	})
	return out, nil
}

func (s *RedisStore) LiveTotals(ctx context.Context, since time.Time) ([]domain.PageStat, error) {
	keys := []string{}
	for _, bucket := range hourBuckets(since, time.Now()) {
		if bucket < since.UTC().Format(domain.HourFormat) {
			continue
		}
		keys = append(keys, s.hourKey(bucket))
	}
	acc, err := sumPageHashes(ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	return pageStatsDesc(acc), nil
}

func (s *RedisStore) PurgeHourlyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cut := cutoff.UTC().Format(domain.HourFormat)
	pattern := s.hourKey("*")
	hourPrefix := s.hourKey("")

	var removed int64
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan hour keys: %w", err)
		}

		expired := keys[:0]
		for _, key := range keys {
			if strings.TrimPrefix(key, hourPrefix) < cut {
				expired = append(expired, key)
			}
		}
		if len(expired) > 0 {
			n, err := s.client.Del(ctx, expired...).Result()
			if err != nil {
				return removed, fmt.Errorf("redis delete hour keys: %w", err)
			}
			removed += n
		}

		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
