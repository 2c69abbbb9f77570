package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/greenscope/backend/config"
	"github.com/greenscope/backend/internal/cli"
	"github.com/greenscope/backend/internal/domain"
	"github.com/greenscope/backend/internal/infrastructure/cache"
	"github.com/greenscope/backend/internal/infrastructure/openfoodfacts"
	"github.com/greenscope/backend/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(func(logger *zap.Logger) (usecase.Resolver, func(), error) {
		return newResolver(ctx, logger)
	})

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(cli.ExitCode(err))
	}
}

// newResolver wires the same catalog and cache the server uses
func newResolver(ctx context.Context, logger *zap.Logger) (usecase.Resolver, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	store, err := cache.Open(ctx, cfg.Cache.Type, cfg.Cache.RedisURL, logger.Named("cache"))
	if err != nil {
		return nil, nil, err
	}

	var productCache domain.CacheRepository
	release := func() {}
	if store != nil {
		productCache = store
		release = func() { store.Close() }
	}

	catalog := openfoodfacts.NewClient(openfoodfacts.ClientConfig{
		BaseURL:           cfg.Catalog.BaseURL,
		UserAgent:         cfg.Catalog.UserAgent,
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerMinute: cfg.Catalog.RequestsPerMinute,
		Logger:            logger,
	})

	resolver := usecase.NewProductResolver(catalog, productCache, usecase.ProductResolverConfig{
		CacheTTL: cfg.Cache.TTL,
		Logger:   logger,
	})

	return resolver, release, nil
}
