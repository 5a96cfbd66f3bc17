package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/openmusic/openmusic/internal/config"
	"github.com/openmusic/openmusic/internal/handler"
	"github.com/openmusic/openmusic/internal/middleware"
)

type routerDeps struct {
	root     *handler.Handler
	health   *handler.HealthHandler
	metrics  *handler.MetricsHandler
	playlist *handler.PlaylistHandler
	verifier middleware.TokenVerifier
	limiter  middleware.RateLimiter
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxAge:         middleware.DefaultCORSConfig().MaxAge,
	}))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	r.Get("/", d.root.Hello)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/metrics", d.metrics.Metrics)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:    logger,
		Limiter:   d.limiter,
		Enabled:   cfg.RateLimitEnabled,
		UserRPM:   cfg.RateLimitRPM,
		UserBurst: cfg.RateLimitBurst,
		IPRPS:     cfg.RateLimitIPRPS,
		IPBurst:   cfg.RateLimitIPBurst,
	}

	// User search is public.
	r.With(middleware.RateLimitIP(rateLimitCfg)).Get("/users", d.playlist.GetUsersByUsername)

	r.Route("/playlists", func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{Logger: logger, Verifier: d.verifier}))
		r.Use(middleware.RateLimitUser(rateLimitCfg))

		r.Post("/", d.playlist.PostPlaylist)
		r.Get("/", d.playlist.GetPlaylists)
		r.Delete("/{playlistId}", d.playlist.DeletePlaylist)

		r.Post("/{playlistId}/songs", d.playlist.PostPlaylistSong)
		r.Get("/{playlistId}/songs", d.playlist.GetPlaylistSongs)
		r.Delete("/{playlistId}/songs", d.playlist.DeletePlaylistSong)

		r.Get("/{playlistId}/activities", d.playlist.GetPlaylistActivities)
	})

	r.NotFound(d.root.NotFound)
	r.MethodNotAllowed(d.root.MethodNotAllowed)

	return r
}
