package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"nasfaqv2/brokerbot/ytlive/internal/api"
	"nasfaqv2/brokerbot/ytlive/internal/db"
	"nasfaqv2/brokerbot/ytlive/internal/livestatus"
	"nasfaqv2/brokerbot/ytlive/internal/livestreams"
	applog "nasfaqv2/brokerbot/ytlive/internal/log"
	"nasfaqv2/brokerbot/ytlive/internal/metrics"
	"nasfaqv2/brokerbot/ytlive/internal/poller"
	"nasfaqv2/brokerbot/ytlive/internal/watchlist"
	"nasfaqv2/brokerbot/ytlive/internal/youtube"
)

type Config struct {
	DatabaseURL   string
	WatchlistFile string
	RedisURL      string
	RedisPassword string
	YouTubeURL    string
	HTTPAddr      string

	LivePollInterval time.Duration
	RequestDelay     time.Duration
	PollConcurrency  int
	CheckTimeout     time.Duration
}

func main() {
	envNote := loadEnv()

	closer, err := applog.Configure(applog.Config{
		Level:         os.Getenv("LOG_LEVEL"),
		Production:    applog.ProductionFromEnv(),
		EnableLogging: true,
		Service:       "ytscraper",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "log: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	logger := applog.WithComponent("main")
	if envNote != "" {
		logger.Info().Msg(envNote)
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rdb, err := newRedisClient(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer func() { _ = rdb.Close() }()
	liveStore := &livestreams.RedisStore{Client: rdb}

	m := metrics.New()
	base := applog.Base()
	client := youtube.New(cfg.YouTubeURL)
	client.Logger = applog.Component(base, "youtube")
	checker, err := livestatus.New(livestatus.Options{
		Logger:  &base,
		Timeout: cfg.CheckTimeout,
		Client:  client,
		Metrics: m,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("checker")
	}
	defer func() { _ = checker.Close() }()

	deps := poller.Deps{
		Checker: checker,
		Store:   liveStore,
		Metrics: m,
		Logger:  applog.WithComponent("poller"),
	}
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("db")
		}
		defer pool.Close()

		if err := db.ApplySchema(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("schema")
		}
		rec := &db.Recorder{Pool: pool}
		deps.Source = rec
		deps.Recorder = rec
		logger.Info().Msg("channels: reading tracked channels from postgres")
	} else {
		deps.Source = watchlist.FileSource{Path: cfg.WatchlistFile}
		logger.Info().Str("file", cfg.WatchlistFile).Msg("channels: reading tracked channels from watchlist")
	}

	p := poller.New(poller.Config{
		Interval:     cfg.LivePollInterval,
		Concurrency:  cfg.PollConcurrency,
		RequestDelay: cfg.RequestDelay,
		CheckTimeout: cfg.CheckTimeout,
	}, deps)

	handler := api.NewHandler(checker, liveStore, applog.WithComponent("api"))
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handler, m),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.CheckTimeout + 10*time.Second,
	}
	go serve(srv, logger)

	p.Run(ctx)

	logger.Info().Err(ctx.Err()).Msg("shutdown")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http: shutdown")
	}
}

func serve(srv *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", srv.Addr).Msg("http: listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("http: server failed")
	}
}

// loadEnv loads .env automatically (if present). Real environment variables
// still override. Optional override: ENV_FILE=path/to/.env
func loadEnv() string {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			return fmt.Sprintf("env: failed to load ENV_FILE=%q: %v", envFile, err)
		}
		return "env: loaded " + envFile
	}
	if err := godotenv.Load(); err == nil {
		return "env: loaded .env"
	}
	return ""
}

func loadConfig() (Config, error) {
	var errs []error
	getInt := func(key string, def int) int {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s=%q: %w", key, v, err))
			return def
		}
		return i
	}
	getEnv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		WatchlistFile:    os.Getenv("WATCHLIST_FILE"),
		RedisURL:         os.Getenv("REDIS_URL"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		YouTubeURL:       getEnv("YOUTUBE_BASE_URL", youtube.DefaultBaseURL),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8090"),
		LivePollInterval: time.Duration(getInt("LIVE_POLL_SECONDS", 300)) * time.Second,
		RequestDelay:     time.Duration(getInt("REQUEST_DELAY_MS", 150)) * time.Millisecond,
		PollConcurrency:  getInt("POLL_CONCURRENCY", 2),
		CheckTimeout:     time.Duration(getInt("CHECK_TIMEOUT_SECONDS", 20)) * time.Second,
	}

	if cfg.RedisURL == "" {
		errs = append(errs, errors.New("missing REDIS_URL"))
	}
	if cfg.DatabaseURL == "" && cfg.WatchlistFile == "" {
		errs = append(errs, errors.New("missing DATABASE_URL or WATCHLIST_FILE"))
	}
	if cfg.LivePollInterval <= 0 {
		errs = append(errs, errors.New("LIVE_POLL_SECONDS must be positive"))
	}
	return cfg, errors.Join(errs...)
}

func newRedisClient(redisURL, redisPassword string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if redisPassword != "" {
		opt.Password = redisPassword
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
