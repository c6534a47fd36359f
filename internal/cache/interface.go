package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores JSON encoded values. A ttl of zero means the configured default.
type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

const namespace = "storefront"

func Key(prefix string, parts ...string) string {
	return namespace + ":" + prefix + ":" + strings.Join(parts, ":")
}

const (
	ProductSlugPrefix = "product-slug"
	CategoryPrefix    = "categories"
)
