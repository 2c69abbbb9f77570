package openfoodfacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/greenscope/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public product endpoint, barcodes are appended as "<barcode>.json"
	DefaultBaseURL = "https://world.openfoodfacts.org/api/v0/product"

	defaultUserAgent         = "GreenScope/1.0"
	defaultRequestsPerMinute = 100
	maxBodyBytes             = 4 << 20
	maxErrorBodyBytes        = 512
)

// ClientConfig holds optional client settings. Zero values select defaults.
type ClientConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int
	Logger            *zap.Logger
}

// Client handles communication with the Open Food Facts product API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a new catalog client
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultRequestsPerMinute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	// Open Food Facts allows 100 product reads per minute
	perSecond := rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	limiter := rate.NewLimiter(perSecond, 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		rateLimiter: limiter,
		logger:      cfg.Logger.Named("openfoodfacts"),
	}
}

// ValidateBarcode checks that a barcode can be used as a single URL path
// segment without escaping. The format itself (EAN, UPC, ...) is not checked.
func ValidateBarcode(barcode string) error {
	if barcode == "" {
		return fmt.Errorf("%w: empty barcode", domain.ErrInvalidEndpoint)
	}
	if url.PathEscape(barcode) != barcode || barcode == "." || barcode == ".." {
		return fmt.Errorf("%w: barcode %q is not a valid path segment", domain.ErrInvalidEndpoint, barcode)
	}
	return nil
}

// BuildEndpoint forms "<baseURL>/<barcode>.json"
func BuildEndpoint(baseURL, barcode string) (string, error) {
	if err := ValidateBarcode(barcode); err != nil {
		return "", err
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidEndpoint, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidEndpoint, base.Scheme)
	}
	if base.Host == "" {
		return "", fmt.Errorf("%w: base URL has no host", domain.ErrInvalidEndpoint)
	}

	return base.JoinPath(barcode + ".json").String(), nil
}

// Lookup fetches the catalog envelope for a barcode with a single GET.
// Failures are returned raw (wrapped) for the caller to classify.
func (c *Client) Lookup(ctx context.Context, barcode string) (*domain.CatalogResponse, error) {
	endpoint, err := BuildEndpoint(c.baseURL, barcode)
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	c.logger.Debug("catalog lookup", zap.String("barcode", barcode), zap.String("url", endpoint))

	resp, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := readLimitedBody(resp.Body, maxErrorBodyBytes)
		c.logger.Warn("catalog returned non-2xx",
			zap.String("barcode", barcode),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &domain.StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	body, err := readLimitedBody(resp.Body, maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, domain.ErrEmptyBody
	}

	var envelope domain.CatalogResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &envelope, nil
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidEndpoint, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}

	return resp, nil
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
