package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor hands out the explicit transactions every ledger mutation runs
// in. Services begin one, lock the owning wallet or shift row FOR UPDATE
// through the repositories, and commit only once the balance update and its
// ledger entry are both written.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a Transactor on top of the connection pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin opens a transaction at the pool's default isolation level. Row locks,
// not serializable isolation, provide the per-entity serialization.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.Begin(ctx)
}
