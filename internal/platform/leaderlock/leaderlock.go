package leaderlock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Lock coordinates periodic jobs across replicas through Postgres advisory
// locks. Each job owns a distinct key; the replica that wins the lock runs
// the tick, every other replica skips it.
type Lock struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func New(pool *pgxpool.Pool, logger *slog.Logger) *Lock {
	return &Lock{pool: pool, logger: logger}
}

// TryRun attempts to acquire the advisory lock for key and, if acquired,
// runs fn while holding it. It returns false when another replica holds the
// lock. The lock lives on a dedicated pooled connection so it is released
// even if fn's own queries run on other connections.
func (l *Lock) TryRun(ctx context.Context, key int64, fn func(ctx context.Context) error) (bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection for advisory lock: %w", err)
	}
	defer conn.Release()

	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&acquired); err != nil {
		return false, fmt.Errorf("pg_try_advisory_lock: %w", err)
	}
	if !acquired {
		return false, nil
	}

	defer func() {
		// Unlock on the same connection; use a background context so a
		// cancelled run still releases the lock.
		if _, err := conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, key); err != nil {
			l.logger.Error("failed to release advisory lock", "key", key, "error", err)
		}
	}()

	return true, fn(ctx)
}
