package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"

	"labsite/internal/platform/cache"
)

// bytesCacheClient is the part of *cache.Cache the stores need.
type bytesCacheClient interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// snappyJSON stores values of type T as snappy-compressed JSON.
type snappyJSON[T any] struct {
	client bytesCacheClient
	ttl    time.Duration
}

func newSnappyJSON[T any](client bytesCacheClient, ttl time.Duration) *snappyJSON[T] {
	return &snappyJSON[T]{client: client, ttl: ttl}
}

// Get decodes the value at key. A missing key reports ok=false, nil error.
func (c *snappyJSON[T]) Get(ctx context.Context, key string) (value T, ok bool, err error) {
	payload, err := c.client.GetBytes(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		return value, false, fmt.Errorf("snappy decode %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("json decode %s: %w", key, err)
	}
	return value, true, nil
}

func (c *snappyJSON[T]) Set(ctx context.Context, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json encode %s: %w", key, err)
	}
	return c.client.Set(ctx, key, snappy.Encode(nil, raw), c.ttl)
}

func (c *snappyJSON[T]) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, key)
}

func sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
