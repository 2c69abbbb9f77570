package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque encoded bytes so memory and redis backends behave the same.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CatalogClient defines the interface for the external product catalog
type CatalogClient interface {
	Lookup(ctx context.Context, barcode string) (*CatalogResponse, error)
}

// MessageStore is an append-only, ordered message log keyed by conversation
type MessageStore interface {
	Append(ctx context.Context, msg *ChatMessage) (*ChatMessage, error)
	List(ctx context.Context, conversationID string, limit int) ([]ChatMessage, error)
}
