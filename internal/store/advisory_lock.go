package store

import (
	"context"
	"fmt"

	"erp-planning/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvisoryLocker serializes planning runs with session-level PostgreSQL advisory
// locks. Each held lock pins one pooled connection until released.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

// NewAdvisoryLocker constructs an AdvisoryLocker.
func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool}
}

// Lock tries the lock once and returns core.ErrLockHeld if another session has it.
func (l *AdvisoryLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for lock: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", key).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("query advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, core.ErrLockHeld
	}

	// A session lock survives an unlock failure, so the connection is closed rather
	// than returned to the pool still holding it.
	return func(ctx context.Context) error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock(hashtext($1))", key); err != nil {
			_ = conn.Conn().Close(context.WithoutCancel(ctx))
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}, nil
}
