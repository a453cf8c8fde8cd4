package postgres

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ImportLockName guards post imports so two operators cannot interleave.
const ImportLockName = "labsite:content-import"

// LockID maps a name to a stable advisory lock identifier.
func LockID(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

// TryAdvisoryLock tries to take a session advisory lock. The lock lives on a
// dedicated connection that unlock releases back to the pool.
func TryAdvisoryLock(ctx context.Context, pool *pgxpool.Pool, name string) (locked bool, unlock func(context.Context) error, err error) {
	if pool == nil {
		return false, nil, fmt.Errorf("pool is nil")
	}
	lockID := LockID(name)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("acquire connection: %w", err)
	}
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&locked); err != nil {
		conn.Release()
		return false, nil, fmt.Errorf("try advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return false, nil, nil
	}

	return true, func(ctx context.Context) error {
		defer conn.Release()
		var released bool
		if err := conn.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, lockID).Scan(&released); err != nil {
			return fmt.Errorf("advisory unlock: %w", err)
		}
		if !released {
			return fmt.Errorf("advisory unlock: not held")
		}
		return nil
	}, nil
}
