package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/greenscope/backend/config"
	httpDelivery "github.com/greenscope/backend/internal/delivery/http"
	"github.com/greenscope/backend/internal/domain"
	"github.com/greenscope/backend/internal/infrastructure/cache"
	"github.com/greenscope/backend/internal/infrastructure/chat"
	"github.com/greenscope/backend/internal/infrastructure/openfoodfacts"
	applog "github.com/greenscope/backend/internal/logger"
	"github.com/greenscope/backend/internal/usecase"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := applog.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting GreenScope backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
	)

	// Signals cancel ctx; the server then drains in-flight requests
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := cache.Open(ctx, cfg.Cache.Type, cfg.Cache.RedisURL, logger.Named("cache"))
	if err != nil {
		logger.Fatal("failed to open cache", zap.Error(err))
	}
	var productCache domain.CacheRepository
	if store != nil {
		productCache = store
		defer store.Close()
	}

	catalog := openfoodfacts.NewClient(openfoodfacts.ClientConfig{
		BaseURL:           cfg.Catalog.BaseURL,
		UserAgent:         cfg.Catalog.UserAgent,
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerMinute: cfg.Catalog.RequestsPerMinute,
		Logger:            logger,
	})
	logger.Info("catalog configured",
		zap.String("base_url", cfg.Catalog.BaseURL),
		zap.Int("requests_per_minute", cfg.Catalog.RequestsPerMinute),
	)

	resolver := usecase.NewProductResolver(catalog, productCache, usecase.ProductResolverConfig{
		CacheTTL: cfg.Cache.TTL,
		Logger:   logger,
	})

	coordinator := usecase.NewCoordinator(resolver, usecase.CoordinatorConfig{
		EpisodeTimeout: cfg.Catalog.Timeout + 5*time.Second,
		Logger:         logger,
	})
	defer coordinator.Close()

	handler := httpDelivery.NewHandler(coordinator, chat.NewMemoryStore(), logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
			return
		}
	case <-ctx.Done():
		logger.Info("shutting down gracefully, press Ctrl+C again to force")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exiting")
}
