package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/swelljoe/wxlookup/internal/config"
	"github.com/swelljoe/wxlookup/internal/db"
	"github.com/swelljoe/wxlookup/internal/handlers"
	"github.com/swelljoe/wxlookup/internal/lookup"
	"github.com/swelljoe/wxlookup/internal/observability"
	"github.com/swelljoe/wxlookup/internal/session"
	"github.com/swelljoe/wxlookup/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	shutdownTracing, err := observability.SetupTracing("wxlookup")
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		slog.Error("failed to create report client", "error", err)
		os.Exit(1)
	}

	// History is optional; keep serving lookups without it
	var history handlers.History
	database, err := db.NewDB(cfg.DBPath)
	if err != nil {
		slog.Warn("lookup history disabled", "error", err)
	} else {
		defer database.Close()
		history = database
		slog.Info("lookup history enabled", "path", cfg.DBPath)
	}

	metrics := observability.NewMetrics()
	sessions := session.New(cfg.SessionTTL, func() *lookup.Lookup { return lookup.New(fetcher) })
	h := handlers.New(sessions, fetcher, history, metrics)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, h, metrics),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("wxlookup started", "addr", "http://localhost:"+cfg.Port, "reports", cfg.ReportBaseURL)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down")
	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		slog.Error("tracing shutdown error", "error", err)
	}
}

func newFetcher(cfg config.Config) (weather.Fetcher, error) {
	client, err := weather.NewClient(cfg.ReportBaseURL, cfg.HTTPTimeout)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit.RPS > 0 {
		return weather.NewRateLimitedFetcher(client, cfg.RateLimit.RPS, cfg.RateLimit.Burst), nil
	}
	return client, nil
}

func newRouter(cfg config.Config, h *handlers.Handlers, metrics *observability.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(metrics.Middleware)

	h.RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		h.RegisterAPIRoutes(r)
	})

	return r
}
