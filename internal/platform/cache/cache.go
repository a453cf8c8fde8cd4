// Package cache is the Redis client shared by the repository snapshot store
// and the rate limiter. Every key is namespaced with a configurable prefix so
// several deployments can share one Redis database.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"labsite/internal/platform/config"
)

const (
	connectTimeout     = 5 * time.Second
	healthCheckTimeout = 3 * time.Second
	defaultScanBatch   = 500
)

// Config holds Redis connection settings.
type Config struct {
	Address      string
	Password     string // #nosec G117
	DB           int
	KeyPrefix    string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

// FromConfig maps the environment config onto cache settings.
func FromConfig(cfg config.RedisConfig) Config {
	return Config{
		Address:      cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		KeyPrefix:    cfg.KeyPrefix,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}
}

// Cache wraps redis.Client for repository snapshots and rate limit counters.
type Cache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// New connects to Redis and pings it before returning.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Address, err)
	}

	logger.Info("redis connected", "address", cfg.Address, "db", cfg.DB, "prefix", cfg.KeyPrefix)
	return &Cache{client: client, prefix: cfg.KeyPrefix, logger: logger}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

// HealthCheck pings Redis.
func (c *Cache) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Key returns the namespaced form of key.
func (c *Cache) Key(key string) string {
	return c.prefix + key
}

// GetBytes returns the raw value stored at key, or ErrCacheMiss.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.Key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		c.logFailure("redis get failed", key, err)
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value at key for ttl.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.Key(key), value, ttl).Err(); err != nil {
		c.logFailure("redis set failed", key, err)
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.Key(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		c.logFailure("redis delete failed", keys[0], err)
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// DeleteByPattern removes every key matching pattern (inside the namespace)
// with SCAN and returns how many were removed.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string, batchSize int64) (int64, error) {
	if batchSize <= 0 {
		batchSize = defaultScanBatch
	}
	match := c.Key(pattern)
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, batchSize).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis scan %s: %w", match, err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("redis delete %s: %w", match, err)
			}
			deleted += n
		}
		if cursor = next; cursor == 0 {
			return deleted, nil
		}
	}
}

var incrementWithTTLScript = redis.NewScript(`
local v = redis.call('INCR', KEYS[1])
if v == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return v
`)

// IncrementWithTTL bumps a counter and starts its TTL when the key is new.
// Used for fixed-window rate limiting.
func (c *Cache) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, fmt.Errorf("ttl must be positive")
	}
	val, err := incrementWithTTLScript.Run(ctx, c.client, []string{c.Key(key)}, ttl.Milliseconds()).Int64()
	if err != nil {
		c.logFailure("redis increment failed", key, err)
		return 0, fmt.Errorf("redis increment %s: %w", key, err)
	}
	return val, nil
}

// logFailure keeps cancelled requests out of the error log.
func (c *Cache) logFailure(msg, key string, err error) {
	if isContextDoneError(err) {
		c.logger.Debug(msg, "key", key, "error", err)
		return
	}
	c.logger.Error(msg, "key", key, "error", err)
}

func isContextDoneError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
