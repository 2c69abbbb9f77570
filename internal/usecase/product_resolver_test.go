package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/greenscope/backend/internal/domain"
	"github.com/greenscope/backend/internal/infrastructure/openfoodfacts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	setCalled int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockCatalogClient is a mock implementation of domain.CatalogClient
type MockCatalogClient struct {
	response *domain.CatalogResponse
	err      error
	calls    int32
}

func (m *MockCatalogClient) Lookup(ctx context.Context, barcode string) (*domain.CatalogResponse, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockCatalogClient) Calls() int {
	return int(atomic.LoadInt32(&m.calls))
}

func TestNewProductResolver(t *testing.T) {
	t.Run("creates resolver with default values", func(t *testing.T) {
		r := NewProductResolver(&MockCatalogClient{}, nil, ProductResolverConfig{})
		require.NotNil(t, r)
		assert.Equal(t, 24*time.Hour, r.cacheTTL)
		assert.NotNil(t, r.scoreInputs)
		assert.NotNil(t, r.logger)
	})

	t.Run("creates resolver with custom values", func(t *testing.T) {
		r := NewProductResolver(&MockCatalogClient{}, NewMockCacheRepository(), ProductResolverConfig{
			CacheTTL: time.Hour,
		})
		assert.Equal(t, time.Hour, r.cacheTTL)
	})
}

func TestResolve_Success(t *testing.T) {
	catalog := &MockCatalogClient{response: &domain.CatalogResponse{
		Product: &domain.RawCatalogEntry{
			ProductName:         "Sparkling Water",
			GenericName:         "Carbonated mineral water",
			Brands:              "Spring Co",
			Ingredients:         []domain.RawIngredient{{Text: "Water"}, {Text: "Carbon dioxide"}},
			ImageURL:            "https://img.example.com/water.png",
			Packaging:           "Glass bottle",
			EnvironmentalImpact: "a",
			NutriscoreGrade:     "a",
		},
	}}
	r := NewProductResolver(catalog, nil, ProductResolverConfig{})

	product, err := r.Resolve(context.Background(), "5449000000996")

	require.NoError(t, err)
	assert.Equal(t, "Sparkling Water", product.Name)
	assert.Equal(t, "Carbonated mineral water", product.Description)
	assert.Equal(t, "Spring Co", product.Brand)
	assert.Equal(t, []string{"Water", "Carbon dioxide"}, product.Ingredients)
	assert.Equal(t, "5449000000996", product.Barcode)
	assert.Equal(t, 10.0, product.SustainabilityScore)
	assert.Equal(t, openfoodfacts.SourceName, product.Source)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, 1, catalog.Calls())
}

func TestResolve_ScoreIsNotAConstant(t *testing.T) {
	good := &MockCatalogClient{response: &domain.CatalogResponse{Product: &domain.RawCatalogEntry{
		ProductName: "Good", Packaging: "glass", EnvironmentalImpact: "a", NutriscoreGrade: "a",
	}}}
	bad := &MockCatalogClient{response: &domain.CatalogResponse{Product: &domain.RawCatalogEntry{
		ProductName: "Bad", Packaging: "plastic", EnvironmentalImpact: "e", NutriscoreGrade: "e",
	}}}

	goodProduct, err := NewProductResolver(good, nil, ProductResolverConfig{}).Resolve(context.Background(), "1")
	require.NoError(t, err)
	badProduct, err := NewProductResolver(bad, nil, ProductResolverConfig{}).Resolve(context.Background(), "2")
	require.NoError(t, err)

	assert.Equal(t, 10.0, goodProduct.SustainabilityScore)
	assert.Equal(t, 0.0, badProduct.SustainabilityScore)
}

func TestResolve_CustomScoreInputs(t *testing.T) {
	catalog := &MockCatalogClient{response: &domain.CatalogResponse{Product: &domain.RawCatalogEntry{ProductName: "X"}}}
	var seen *domain.RawCatalogEntry
	r := NewProductResolver(catalog, nil, ProductResolverConfig{
		ScoreInputs: func(entry *domain.RawCatalogEntry) domain.ScoreInputs {
			seen = entry
			return domain.ScoreInputs{Recyclability: 1, Impact: 1, Health: 1}
		},
	})

	product, err := r.Resolve(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, "X", seen.ProductName)
	assert.Equal(t, 4.0, product.SustainabilityScore)
}

func TestResolve_OnlyNamePresent(t *testing.T) {
	catalog := &MockCatalogClient{response: &domain.CatalogResponse{Product: &domain.RawCatalogEntry{ProductName: "Plain"}}}
	r := NewProductResolver(catalog, nil, ProductResolverConfig{})

	product, err := r.Resolve(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, domain.PlaceholderDescription, product.Description)
	assert.Equal(t, domain.PlaceholderBrand, product.Brand)
	assert.Equal(t, domain.PlaceholderImageURL, product.ImageURL)
	assert.Equal(t, domain.PlaceholderRecyclabilityInfo, product.RecyclabilityInfo)
	assert.Equal(t, domain.PlaceholderEnvironmentalImpact, product.EnvironmentalImpact)
	assert.Equal(t, domain.PlaceholderHealthEffects, product.HealthEffects)
	assert.NotNil(t, product.Ingredients)
	assert.Empty(t, product.Ingredients)
	assert.Equal(t, 5.0, product.SustainabilityScore)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name      string
		barcode   string
		catalog   *MockCatalogClient
		want      error
		wantCalls int
	}{
		{
			name:      "product absent",
			barcode:   "1",
			catalog:   &MockCatalogClient{response: &domain.CatalogResponse{Status: 0}},
			want:      domain.ErrNotFound,
			wantCalls: 1,
		},
		{
			name:      "missing product name",
			barcode:   "1",
			catalog:   &MockCatalogClient{response: &domain.CatalogResponse{Product: &domain.RawCatalogEntry{Brands: "Acme"}}},
			want:      domain.ErrDecoding,
			wantCalls: 1,
		},
		{
			name:      "nil envelope",
			barcode:   "1",
			catalog:   &MockCatalogClient{},
			want:      domain.ErrNoData,
			wantCalls: 1,
		},
		{
			name:      "transport error",
			barcode:   "1",
			catalog:   &MockCatalogClient{err: errors.New("connection reset by peer")},
			want:      domain.ErrNetwork,
			wantCalls: 1,
		},
		{
			name:      "empty barcode makes no call",
			barcode:   "",
			catalog:   &MockCatalogClient{},
			want:      domain.ErrInvalidEndpoint,
			wantCalls: 0,
		},
		{
			name:      "unusable barcode makes no call",
			barcode:   "a/b",
			catalog:   &MockCatalogClient{},
			want:      domain.ErrInvalidEndpoint,
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewProductResolver(tt.catalog, nil, ProductResolverConfig{})

			product, err := r.Resolve(context.Background(), tt.barcode)

			assert.Nil(t, product)
			assert.ErrorIs(t, err, tt.want)
			var resolutionErr *domain.ResolutionError
			assert.True(t, errors.As(err, &resolutionErr))
			assert.Equal(t, tt.wantCalls, tt.catalog.Calls())
		})
	}
}

func TestResolve_Cache(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup is served from cache", func(t *testing.T) {
		cache := NewMockCacheRepository()
		catalog := &MockCatalogClient{response: &domain.CatalogResponse{Product: &domain.RawCatalogEntry{ProductName: "Milk"}}}
		r := NewProductResolver(catalog, cache, ProductResolverConfig{})

		first, err := r.Resolve(ctx, "42")
		require.NoError(t, err)
		second, err := r.Resolve(ctx, "42")
		require.NoError(t, err)

		assert.Equal(t, 1, catalog.Calls())
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Cache", second.Source)
		assert.Equal(t, first.SustainabilityScore, second.SustainabilityScore)
	})

	t.Run("cache errors do not fail resolution", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.getError = domain.ErrCacheUnavailable
		cache.setError = domain.ErrCacheUnavailable
		catalog := &MockCatalogClient{response: &domain.CatalogResponse{Product: &domain.RawCatalogEntry{ProductName: "Milk"}}}
		r := NewProductResolver(catalog, cache, ProductResolverConfig{})

		product, err := r.Resolve(ctx, "42")

		require.NoError(t, err)
		assert.Equal(t, "Milk", product.Name)
		assert.Equal(t, 1, cache.setCalled)
	})

	t.Run("corrupt entries are discarded", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.data[cacheKey("42")] = []byte("{corrupt")
		catalog := &MockCatalogClient{response: &domain.CatalogResponse{Product: &domain.RawCatalogEntry{ProductName: "Milk"}}}
		r := NewProductResolver(catalog, cache, ProductResolverConfig{})

		product, err := r.Resolve(ctx, "42")

		require.NoError(t, err)
		assert.Equal(t, openfoodfacts.SourceName, product.Source)
		assert.Equal(t, 1, catalog.Calls())

		var stored domain.Product
		require.NoError(t, json.Unmarshal(cache.data[cacheKey("42")], &stored))
		assert.Equal(t, "Milk", stored.Name)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		cache := NewMockCacheRepository()
		catalog := &MockCatalogClient{response: &domain.CatalogResponse{}}
		r := NewProductResolver(catalog, cache, ProductResolverConfig{})

		_, err := r.Resolve(ctx, "42")

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, 0, cache.setCalled)
	})
}

func TestResolve_AgainstCatalogServer(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "absent product",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
			},
			want: domain.ErrNotFound,
		},
		{
			name: "missing product_name",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"product":{"brands":"Acme"}}`))
			},
			want: domain.ErrDecoding,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"product":`))
			},
			want: domain.ErrDecoding,
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			want: domain.ErrNoData,
		},
		{
			name: "404",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			want: domain.ErrNotFound,
		},
		{
			name: "500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: domain.ErrNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				tt.handler(w, r)
			}))
			defer server.Close()

			client := openfoodfacts.NewClient(openfoodfacts.ClientConfig{BaseURL: server.URL})
			r := NewProductResolver(client, nil, ProductResolverConfig{})

			product, err := r.Resolve(context.Background(), "3017620422003")

			assert.Nil(t, product)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "exactly one request, no retries")
		})
	}
}

func TestResolve_UnreachableCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := openfoodfacts.NewClient(openfoodfacts.ClientConfig{BaseURL: baseURL, Timeout: time.Second})
	r := NewProductResolver(client, nil, ProductResolverConfig{})

	_, err := r.Resolve(context.Background(), "1")

	assert.ErrorIs(t, err, domain.ErrNetwork)
}
