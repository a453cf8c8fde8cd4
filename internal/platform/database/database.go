// Package database opens the pgx pool behind the PostgreSQL post source.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"labsite/internal/platform/config"
)

const healthCheckTimeout = 5 * time.Second

// Config holds pool settings.
type Config struct {
	ConnectionString string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	ConnectTimeout   time.Duration
	// TimeZone sets the session timezone when non-empty.
	TimeZone string
	// ApplicationName shows up in pg_stat_activity.
	ApplicationName string
	// ReadOnly makes every transaction read-only. The API only reads posts;
	// imports open a writable pool.
	ReadOnly bool
}

// FromConfig maps the environment settings onto a pool Config.
func FromConfig(cfg config.DatabaseConfig, timeZone string) Config {
	return Config{
		ConnectionString: cfg.ConnectionString(),
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		ConnectTimeout:   cfg.ConnectTimeout,
		TimeZone:         timeZone,
	}
}

// DB wraps pgxpool.Pool.
type DB struct {
	*pgxpool.Pool
	logger *slog.Logger
}

// New opens the pool and pings the server.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("postgres connected",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"max_conns", poolCfg.MaxConns,
		"read_only", cfg.ReadOnly,
	)
	return &DB{Pool: pool, logger: logger}, nil
}

func poolConfig(cfg Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	params := poolCfg.ConnConfig.RuntimeParams
	if params == nil {
		params = map[string]string{}
		poolCfg.ConnConfig.RuntimeParams = params
	}
	if cfg.TimeZone != "" {
		params["timezone"] = cfg.TimeZone
	}
	if cfg.ApplicationName != "" {
		params["application_name"] = cfg.ApplicationName
	}
	if cfg.ReadOnly {
		params["default_transaction_read_only"] = "on"
	}
	return poolCfg, nil
}

// Close closes the pool.
func (db *DB) Close() {
	db.Pool.Close()
	db.logger.Info("postgres connection closed")
}

// HealthCheck pings the server.
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return db.Pool.Ping(ctx)
}
