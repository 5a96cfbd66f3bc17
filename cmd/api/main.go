// Package main is the entrypoint for the OpenMusic API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/openmusic/openmusic/internal/activity"
	"github.com/openmusic/openmusic/internal/auth"
	"github.com/openmusic/openmusic/internal/cache"
	"github.com/openmusic/openmusic/internal/config"
	"github.com/openmusic/openmusic/internal/handler"
	"github.com/openmusic/openmusic/internal/metrics"
	"github.com/openmusic/openmusic/internal/repository"
	"github.com/openmusic/openmusic/internal/server"
	"github.com/openmusic/openmusic/internal/service"
	"github.com/openmusic/openmusic/internal/validator"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if cfg.MigrateOnStart {
		applied, err := repository.Migrate(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to apply migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("migrations applied", slog.Any("versions", applied))
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	pool := cache.DefaultPoolOptions()
	pool.Size = cfg.RedisPoolSize
	cacheClient, err := cache.New(ctx, cfg.RedisURL, pool)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	verifier, err := auth.NewTokenVerifier(cfg.AccessTokenKey)
	if err != nil {
		logger.Error("failed to init token verifier", slog.String("error", err.Error()))
		os.Exit(1)
	}

	payloads, err := validator.New()
	if err != nil {
		logger.Error("failed to compile payload schemas", slog.String("error", err.Error()))
		os.Exit(1)
	}

	metricsRecorder := metrics.NewInMemory()
	playlistService := service.NewPlaylistService(repo, cacheClient, cfg.PlaylistSongsCacheTTL, metricsRecorder, logger)
	playlistService.SetActivityPublisher(activity.NewPublisher(cacheClient.Client(), logger, metricsRecorder))

	r := setupRouter(routerDeps{
		root:     handler.New(),
		health:   handler.NewHealthHandler(repo, cacheClient),
		metrics:  handler.NewMetricsHandler(metricsRecorder),
		playlist: handler.NewPlaylistHandler(playlistService, payloads, logger),
		verifier: verifier,
		limiter:  cacheClient,
	}, cfg, logger)

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	if cfg.ActivityWorkerEnabled {
		worker := activity.NewWorker(cacheClient.Client(), repo, logger, activity.NewConsumerID(), metricsRecorder)
		worker.SetBatchSize(cfg.ActivityBatchSize)

		if err := worker.Start(ctx); err != nil {
			logger.Error("failed to start activity worker", slog.String("error", err.Error()))
			os.Exit(1)
		}

		// Registered last so it drains before Redis and Postgres close.
		srv.OnShutdown("activity-worker", worker.Shutdown)
	}

	logger.Info("starting server",
		slog.Int("port", cfg.AppPort),
		slog.String("env", cfg.AppEnv),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With(slog.String("service", "openmusic-api"))
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
