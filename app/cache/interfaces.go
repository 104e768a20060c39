package cache

import (
	"context"
	"time"
)

// CacheInterface stores serialized responses. Get reports a miss with
// found=false and a nil error.
type CacheInterface interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}
