package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque encoded bytes so every backend behaves the same way.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Fetcher retrieves the raw product page content for an EAN code.
// A successful empty response is returned as "" with a nil error.
type Fetcher interface {
	FetchRawContent(ctx context.Context, ean string) (string, error)
}
