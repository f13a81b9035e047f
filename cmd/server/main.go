package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/KodiniTools/Kodini-Analytics/analytics"
	"github.com/KodiniTools/Kodini-Analytics/analytics/application"
	"github.com/KodiniTools/Kodini-Analytics/analytics/domain"
	"github.com/KodiniTools/Kodini-Analytics/analytics/infra"
	"github.com/KodiniTools/Kodini-Analytics/middleware/auth"
	"github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit"
	rldomain "github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/domain"
	rlinfra "github.com/KodiniTools/Kodini-Analytics/middleware/ratelimit/infra"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store error: %v", err)
	}
	defer func() { _ = store.Close() }()

	sweeper := &infra.Sweeper{
		Store:     store,
		Retention: cfg.retention,
		Every:     cfg.sweepEvery,
		Logger:    log.Default(),
	}
	sweeper.Start(ctx)

	var admissionStats rldomain.StatsStore
	if cfg.rateStatsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.rateStatsRedisAddr,
			Password: cfg.rateStatsRedisPassword,
			DB:       cfg.rateStatsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			log.Fatalf("redis stats ping error: %v", err)
		}

		admissionStats = rlinfra.NewRedisStatsStore(
			rdb,
			rlinfra.WithStatsPrefix(cfg.rateStatsPrefix),
			rlinfra.WithStatsTTL(cfg.rateStatsTTL),
		)
	}

	trackLimiter := rlinfra.NewWindowStore(cfg.trackRateLimit, cfg.trackRateWindow,
		rlinfra.WithBlockFor(cfg.trackRateBlock))
	trackLimiter.StartJanitor(ctx)

	statsLimiter := rlinfra.NewWindowStore(cfg.statsRateLimit, cfg.statsRateWindow)
	statsLimiter.StartJanitor(ctx)

	api := &analytics.API{
		Track:  &application.TrackService{Store: store},
		Stats:  &application.StatsService{Store: store},
		Logger: log.Default(),
	}

	trackGuard := ratelimit.Middleware(ratelimit.Options{
		Store:             trackLimiter,
		Stats:             admissionStats,
		Surface:           "track",
		TrustProxyHeaders: cfg.trustProxyHeaders,
		Silent:            true,
	})

	statsGuard := func(next http.Handler) http.Handler {
		h := next
		h = ratelimit.InFlightLimit(ratelimit.InFlightOptions{
			Max:            cfg.concurrencyMax,
			RejectStatus:   http.StatusServiceUnavailable,
			AcquireTimeout: cfg.concurrencyTimeout,
		})(h)
		h = auth.Middleware(auth.Options{Token: cfg.statsToken})(h)
		h = ratelimit.Middleware(ratelimit.Options{
			Store:             statsLimiter,
			Stats:             admissionStats,
			Surface:           "stats",
			TrustProxyHeaders: cfg.trustProxyHeaders,
			RejectStatus:      http.StatusTooManyRequests,
		})(h)
		return h
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/track", trackGuard(http.HandlerFunc(api.HandleTrack)))
	mux.Handle("GET /api/pixel.gif", trackGuard(http.HandlerFunc(api.HandlePixel)))
	mux.Handle("GET /api/stats/overview", statsGuard(http.HandlerFunc(api.HandleOverview)))
	mux.Handle("GET /api/stats/daily", statsGuard(http.HandlerFunc(api.HandleDaily)))
	mux.Handle("GET /api/stats/hourly", statsGuard(http.HandlerFunc(api.HandleHourly)))
	mux.Handle("GET /api/stats/regions", statsGuard(http.HandlerFunc(api.HandleRegions)))
	mux.Handle("GET /api/stats/live", statsGuard(http.HandlerFunc(api.HandleLive)))
	mux.Handle("GET /health", http.HandlerFunc(api.HandleHealth))
	if cfg.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.staticDir)))
	}

	handler := cors.Handler(cors.Options{
		AllowedOrigins: cfg.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	})(mux)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("analytics listening on %s (backend=%s)", cfg.listenAddr, cfg.storeBackend)
	log.Printf("track rate: limit=%d window=%s block=%s", cfg.trackRateLimit, cfg.trackRateWindow, cfg.trackRateBlock)
	log.Printf("stats rate: limit=%d window=%s concurrency=%d", cfg.statsRateLimit, cfg.statsRateWindow, cfg.concurrencyMax)
	log.Printf("retention: window=%s sweepEvery=%s", cfg.retention, cfg.sweepEvery)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

func openStore(cfg config) (domain.Store, error) {
	switch cfg.storeBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			return nil, err
		}
		return infra.NewRedisStore(rdb, infra.WithHourTTL(cfg.retention+24*time.Hour)), nil
	default:
		if dir := filepath.Dir(cfg.dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return infra.NewSQLiteStore(cfg.dbPath)
	}
}

type config struct {
	listenAddr string
	statsToken string

	storeBackend  string
	dbPath        string
	redisAddr     string
	redisPassword string
	redisDB       int

	trackRateLimit  int
	trackRateWindow time.Duration
	trackRateBlock  time.Duration
	statsRateLimit  int
	statsRateWindow time.Duration

	trustProxyHeaders  bool
	concurrencyMax     int
	concurrencyTimeout time.Duration

	retention  time.Duration
	sweepEvery time.Duration

	corsOrigins []string
	staticDir   string

	rateStatsEnabled       bool
	rateStatsRedisAddr     string
	rateStatsRedisPassword string
	rateStatsRedisDB       int
	rateStatsPrefix        string
	rateStatsTTL           time.Duration
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.statsToken = os.Getenv("ANALYTICS_TOKEN")

	cfg.storeBackend = getenvDefault("STORE_BACKEND", "sqlite")
	cfg.dbPath = getenvDefault("DB_PATH", "data/analytics.db")
	cfg.redisAddr = getenvDefault("REDIS_ADDR", "localhost:6379")
	cfg.redisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.redisDB = getenvIntDefault("REDIS_DB", 0)

	cfg.trackRateLimit = getenvIntDefault("TRACK_RATE_LIMIT", 10)
	cfg.trackRateWindow = getenvDurationDefault("TRACK_RATE_WINDOW", 60*time.Second)
	cfg.trackRateBlock = getenvDurationDefault("TRACK_RATE_BLOCK", 60*time.Second)
	cfg.statsRateLimit = getenvIntDefault("STATS_RATE_LIMIT", 60)
	cfg.statsRateWindow = getenvDurationDefault("STATS_RATE_WINDOW", 60*time.Second)

	cfg.trustProxyHeaders = getenvBoolDefault("TRUST_PROXY_HEADERS", true)
	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.retention = getenvDurationDefault("RETENTION", 7*24*time.Hour)
	cfg.sweepEvery = getenvDurationDefault("SWEEP_EVERY", 6*time.Hour)

	cfg.corsOrigins = splitCSV(getenvDefault("CORS_ORIGINS", "*"))
	cfg.staticDir = os.Getenv("STATIC_DIR")

	cfg.rateStatsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", false)
	cfg.rateStatsRedisAddr = getenvDefault("RATE_STATS_REDIS_ADDR", "")
	cfg.rateStatsRedisPassword = os.Getenv("RATE_STATS_REDIS_PASSWORD")
	cfg.rateStatsRedisDB = getenvIntDefault("RATE_STATS_REDIS_DB", 0)
	cfg.rateStatsPrefix = getenvDefault("RATE_STATS_PREFIX", "ratelimit:stats")
	cfg.rateStatsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)

	if strings.TrimSpace(cfg.statsToken) == "" {
		return config{}, errors.New("ANALYTICS_TOKEN is required")
	}
	if cfg.storeBackend != "sqlite" && cfg.storeBackend != "redis" {
		return config{}, errors.New("STORE_BACKEND must be sqlite or redis")
	}
	if cfg.trackRateLimit <= 0 || cfg.statsRateLimit <= 0 {
		return config{}, errors.New("rate limits must be > 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.rateStatsEnabled && strings.TrimSpace(cfg.rateStatsRedisAddr) == "" {
		return config{}, errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	return cfg, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
