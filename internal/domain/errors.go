package domain

import (
	"errors"
	"fmt"
)

// Resolution taxonomy sentinels. Classified errors match them with errors.Is.
var (
	// ErrInvalidEndpoint is returned when a barcode cannot be formed into a lookup URL
	ErrInvalidEndpoint = errors.New("invalid lookup endpoint")

	// ErrNetwork is returned when the catalog could not be reached
	ErrNetwork = errors.New("catalog network failure")

	// ErrNoData is returned when the catalog answered with an empty body
	ErrNoData = errors.New("no data received")

	// ErrDecoding is returned when the catalog body fails structural or required-field validation
	ErrDecoding = errors.New("catalog response decoding failed")

	// ErrNotFound is returned when the catalog has no product for the barcode
	ErrNotFound = errors.New("product not found")
)

// Raw failures produced below the classifier
var (
	// ErrEmptyBody is returned by the catalog client for a 2xx response without content
	ErrEmptyBody = errors.New("empty response body")

	// ErrProductAbsent is returned when the envelope carries no product payload
	ErrProductAbsent = errors.New("envelope has no product")

	// ErrMissingProductName is returned when a product payload has no usable name
	ErrMissingProductName = errors.New("product_name is missing")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrInvalidMessage is returned when a chat message lacks content or sender
	ErrInvalidMessage = errors.New("invalid chat message")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// StatusError reports a non-2xx response from the catalog
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("catalog returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog returned status %d: %s", e.StatusCode, e.Body)
}

// ErrorKind is one entry of the closed resolution error taxonomy
type ErrorKind int

const (
	KindInvalidEndpoint ErrorKind = iota + 1
	KindNetwork
	KindNoData
	KindDecoding
	KindNotFound
)

// String returns the machine-readable name used in API responses
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidEndpoint:
		return "invalid_endpoint"
	case KindNetwork:
		return "network_error"
	case KindNoData:
		return "no_data"
	case KindDecoding:
		return "decoding_error"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Message returns the human-readable text shown to end users
func (k ErrorKind) Message() string {
	switch k {
	case KindInvalidEndpoint:
		return "Invalid URL"
	case KindNetwork:
		return "Network error"
	case KindNoData:
		return "No data received"
	case KindDecoding:
		return "Failed to decode response"
	case KindNotFound:
		return "Product not found"
	default:
		return "Unknown error"
	}
}

// Sentinel returns the package-level error the kind matches under errors.Is
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindInvalidEndpoint:
		return ErrInvalidEndpoint
	case KindNetwork:
		return ErrNetwork
	case KindNoData:
		return ErrNoData
	case KindDecoding:
		return ErrDecoding
	case KindNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// ResolutionError is a classified failure of one barcode resolution
type ResolutionError struct {
	Kind    ErrorKind
	Barcode string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (barcode %q)", e.Kind.Message(), e.Barcode)
	}
	return fmt.Sprintf("%s (barcode %q): %v", e.Kind.Message(), e.Barcode, e.Err)
}

// Unwrap exposes the underlying cause
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind
func (e *ResolutionError) Is(target error) bool {
	sentinel := e.Kind.Sentinel()
	return sentinel != nil && target == sentinel
}
