package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/clinic-booking-agent/internal/api/router"
	appconfig "github.com/wolfman30/clinic-booking-agent/internal/config"
	"github.com/wolfman30/clinic-booking-agent/internal/http/handlers"
	"github.com/wolfman30/clinic-booking-agent/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking-agent/internal/scheduling"
	"github.com/wolfman30/clinic-booking-agent/internal/session"
	"github.com/wolfman30/clinic-booking-agent/internal/workflow"
	"github.com/wolfman30/clinic-booking-agent/pkg/logging"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-booking-agent API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"mock_mode", cfg.MockMode,
	)

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Error("invalid clinic timezone", "tz", cfg.ClinicTimezone, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scheduling provider: deterministic mock for demos, Calendly otherwise.
	var provider scheduling.Provider
	if cfg.MockMode {
		provider = scheduling.NewMockProvider(loc, cfg.ClinicLocation)
	} else {
		provider = scheduling.NewCalendlyClient(cfg.CalendlyAPIBase, cfg.CalendlyToken, loc, logger)
	}

	// Session store: in-process memory by default, Redis when shared
	// state across instances is needed.
	var store session.Store
	switch cfg.SessionStore {
	case "redis":
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		store = session.NewRedisStore(redis.NewClient(opts), cfg.SessionTTL, nil)
	default:
		mem := session.NewMemoryStore()
		mem.StartSweeper(ctx, cfg.SessionSweepInterval, cfg.SessionTTL, logger)
		store = mem
	}

	conversationMetrics := metrics.NewConversationMetrics(nil)
	engine := workflow.New(store, provider, loc, logger, conversationMetrics)
	chatHandler := handlers.NewChatHandler(engine, cfg.MockMode, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
