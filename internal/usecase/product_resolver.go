package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/greenscope/backend/internal/domain"
	"github.com/greenscope/backend/internal/infrastructure/openfoodfacts"
	"go.uber.org/zap"
)

// ScoreInputsFunc derives score signals from a raw catalog entry.
// It is the extension point for catalog-specific scoring heuristics.
type ScoreInputsFunc func(entry *domain.RawCatalogEntry) domain.ScoreInputs

// ProductResolverConfig holds configuration for the product resolver
type ProductResolverConfig struct {
	CacheTTL    time.Duration
	ScoreInputs ScoreInputsFunc
	Logger      *zap.Logger
}

// ProductResolver turns a barcode into a scored Product.
// It performs a single catalog request per call and never retries.
type ProductResolver struct {
	catalog     domain.CatalogClient
	cache       domain.CacheRepository
	cacheTTL    time.Duration
	scoreInputs ScoreInputsFunc
	logger      *zap.Logger
}

// NewProductResolver creates a resolver. cache may be nil to disable caching.
func NewProductResolver(
	catalog domain.CatalogClient,
	cache domain.CacheRepository,
	config ProductResolverConfig,
) *ProductResolver {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	scoreInputs := config.ScoreInputs
	if scoreInputs == nil {
		scoreInputs = openfoodfacts.DeriveScoreInputs
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProductResolver{
		catalog:     catalog,
		cache:       cache,
		cacheTTL:    cacheTTL,
		scoreInputs: scoreInputs,
		logger:      logger.Named("resolver"),
	}
}

// Resolve looks up a barcode and returns the scored product.
// Flow: check cache -> catalog lookup -> validate -> score -> map -> cache -> return.
// Every error returned is a *domain.ResolutionError.
func (r *ProductResolver) Resolve(ctx context.Context, barcode string) (*domain.Product, error) {
	if err := openfoodfacts.ValidateBarcode(barcode); err != nil {
		return nil, Classify(barcode, err)
	}

	if cached, ok := r.getFromCache(ctx, barcode); ok {
		return cached, nil
	}

	envelope, err := r.catalog.Lookup(ctx, barcode)
	if err != nil {
		classified := Classify(barcode, err)
		r.logger.Info("catalog lookup failed",
			zap.String("barcode", barcode),
			zap.Stringer("kind", classified.Kind),
			zap.Error(err),
		)
		return nil, classified
	}
	if envelope == nil {
		return nil, Classify(barcode, domain.ErrEmptyBody)
	}
	if envelope.Product == nil {
		return nil, Classify(barcode, domain.ErrProductAbsent)
	}

	inputs := r.scoreInputs(envelope.Product)
	score := ComputeScoreFromInputs(inputs)

	product, err := openfoodfacts.MapToProduct(barcode, envelope.Product, score)
	if err != nil {
		return nil, Classify(barcode, err)
	}

	r.logger.Debug("product resolved",
		zap.String("barcode", barcode),
		zap.String("name", product.Name),
		zap.Float64("score", product.SustainabilityScore),
	)

	r.setInCache(ctx, barcode, product)

	return product, nil
}

func cacheKey(barcode string) string {
	return fmt.Sprintf("product:%s", barcode)
}

// getFromCache returns a cached product; any cache problem counts as a miss
func (r *ProductResolver) getFromCache(ctx context.Context, barcode string) (*domain.Product, bool) {
	if r.cache == nil {
		return nil, false
	}

	raw, err := r.cache.Get(ctx, cacheKey(barcode))
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			r.logger.Warn("cache read failed", zap.String("barcode", barcode), zap.Error(err))
		}
		return nil, false
	}

	var product domain.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		r.logger.Warn("discarding corrupt cache entry", zap.String("barcode", barcode), zap.Error(err))
		_ = r.cache.Delete(ctx, cacheKey(barcode))
		return nil, false
	}

	product.Source = "Cache"
	return &product, true
}

// setInCache stores the product; failures are logged and never fail the resolution
func (r *ProductResolver) setInCache(ctx context.Context, barcode string, product *domain.Product) {
	if r.cache == nil {
		return
	}

	raw, err := json.Marshal(product)
	if err != nil {
		r.logger.Warn("cache encode failed", zap.String("barcode", barcode), zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, cacheKey(barcode), raw, r.cacheTTL); err != nil {
		r.logger.Warn("cache write failed", zap.String("barcode", barcode), zap.Error(err))
	}
}
