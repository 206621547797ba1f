package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/flicky/go-shop-api/internal/dto"
)

func TestProductCache_NilIsNoop(t *testing.T) {
	var cache *ProductCache
	id := uuid.New()

	cache.Set(context.Background(), id, &dto.ProductDetail{})
	cache.Invalidate(context.Background(), id)
	_, ok := cache.Get(context.Background(), id)
	assert.False(t, ok)
}

func TestProductCache_WriteFailuresAreLogged(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cache := NewProductCache(client, time.Minute, log)
	id := uuid.New()

	cache.Set(context.Background(), id, &dto.ProductDetail{})
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "cache product detail")
	assert.Contains(t, buf.String(), id.String())

	buf.Reset()
	cache.Invalidate(context.Background(), id)
	assert.Contains(t, buf.String(), "invalidate product detail")

	_, ok := cache.Get(context.Background(), id)
	assert.False(t, ok)
}
