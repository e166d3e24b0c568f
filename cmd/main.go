package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/clock"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/config"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/handler"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/reaper"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/sanitize"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/service"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/store"
	pkglog "github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/log"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/middleware"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/pubsub"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "batepapo-api"})
	logger := pkglog.L()

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Driver).
		Str("events", cfg.Events.Driver).
		Msg("starting batepapo-api")

	st, err := newStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create store")
	}

	publisher, err := pubsub.NewPublisher(cfg.Events)
	if err != nil {
		_ = st.Close()
		logger.Fatal().Err(err).Msg("failed to create event publisher")
	}

	stamper, err := clock.NewStamper(cfg.Chat.Timezone)
	if err != nil {
		_ = publisher.Close()
		_ = st.Close()
		logger.Fatal().Err(err).Msg("failed to load chat timezone")
	}
	clk := clock.System()

	messages := store.WithPublisher(st, publisher, cfg.Events.Channel)

	// Create service
	svc := service.NewPresenceService(st, messages, clk, stamper, sanitize.New())

	// Start the liveness reaper
	ctx, cancel := context.WithCancel(context.Background())

	r := reaper.New(st, messages, clk, stamper, reaper.Config{
		Interval: cfg.Presence.ReapInterval,
		Window:   cfg.Presence.InactivityWindow,
	})
	if err := r.Start(ctx); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("failed to start reaper")
	}

	// Create handlers
	httpHandler := handler.NewHTTPHandler(svc)
	router := handler.NewRouter(httpHandler, handler.RouterConfig{
		Verifier:       middleware.NewHeaderVerifier(cfg.HTTP.IdentityHeader),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Logger:         logger,
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", addr).Msg("batepapo-api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down batepapo-api")

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		r.Stop() // 1. wait for an in-flight reap
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil { // 2. drain requests
			logger.Error().Err(err).Msg("server shutdown error")
		}

		if err := publisher.Close(); err != nil { // 3. flush pending events
			logger.Error().Err(err).Msg("publisher close error")
		}
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("store close error")
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("batepapo-api stopped")
	case <-time.After(cfg.Server.ShutdownTimeout + 20*time.Second):
		logger.Warn().Msg("shutdown timed out")
	}
}

func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreRedis:
		return store.NewRedisStore(store.RedisConfig{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
	case config.StoreSQL:
		return store.NewSQLStore(cfg.Database)
	default:
		return store.NewMemoryStore(), nil
	}
}
