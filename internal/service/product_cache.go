package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-shop-api/internal/dto"
)

// ProductCache keeps rendered product details in Redis. A nil cache, or one
// without a client, turns every call into a no-op. Write failures are logged
// and never fail the request.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewProductCache(client *redis.Client, ttl time.Duration, log *slog.Logger) *ProductCache {
	return &ProductCache{client: client, ttl: ttl, log: log}
}

func productCacheKey(id uuid.UUID) string { return "product:" + id.String() }

func (c *ProductCache) enabled() bool { return c != nil && c.client != nil }

func (c *ProductCache) Get(ctx context.Context, id uuid.UUID) (*dto.ProductDetail, bool) {
	if !c.enabled() {
		return nil, false
	}
	cached, err := c.client.Get(ctx, productCacheKey(id)).Result()
	if err != nil {
		return nil, false
	}
	var detail dto.ProductDetail
	if json.Unmarshal([]byte(cached), &detail) != nil {
		return nil, false
	}
	return &detail, true
}

func (c *ProductCache) Set(ctx context.Context, id uuid.UUID, detail *dto.ProductDetail) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(detail)
	if err != nil {
		c.warn("marshal product detail", id, err)
		return
	}
	if err := c.client.Set(ctx, productCacheKey(id), data, c.ttl).Err(); err != nil {
		c.warn("cache product detail", id, err)
	}
}

// Invalidate drops the cached detail. A failed delete leaves a stale entry
// until the TTL expires.
func (c *ProductCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if !c.enabled() {
		return
	}
	if err := c.client.Del(ctx, productCacheKey(id)).Err(); err != nil {
		c.warn("invalidate product detail", id, err)
	}
}

func (c *ProductCache) warn(msg string, id uuid.UUID, err error) {
	if c.log != nil {
		c.log.Warn(msg, "product_id", id, "ttl", c.ttl, "error", err)
	}
}
