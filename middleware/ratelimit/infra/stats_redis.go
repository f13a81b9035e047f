package infra

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/domain"
)

// RedisStatsStore acumula decisões de admissão em hashes do Redis.
//
// Layout:
//
//	<prefix>:total           HASH {allowed, denied} cumulativo (não expira)
//	<prefix>:surface         HASH {<surface>:allowed, <surface>:denied}
//	<prefix>:hour:<AAAAMMDDHH> HASH {allowed, denied}, com TTL
//
// A superfície é um rótulo fixo ("track"/"stats"); chaves de cliente nunca
// são gravadas — este serviço não retém endereços.
type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas nos buckets horários; os totais são cumulativos.
	ttl time.Duration
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "admission:stats",
		ttl:    7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.AdmissionEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

	hourKey := s.prefix + ":hour:" + at.UTC().Format("2006010215")
	pipe.HIncrBy(ctx, hourKey, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, hourKey, s.ttl)
	}

	if ev.Surface != "" {
		pipe.HIncrBy(ctx, s.prefix+":surface", ev.Surface+":"+field, 1)
	}

	_, err := pipe.Exec(ctx)
	return err
}
