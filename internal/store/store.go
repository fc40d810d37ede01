// Package store is the persistence gateway: a narrow read/write/query surface
// over Postgres that the request pipeline consumes. Player state is written
// with per-row upserts keyed by player id; the last writer wins. Replay,
// match-event and anomaly tables are append-only.
package store

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store wraps the database handle.
type Store struct {
	db *sqlx.DB
}

// New creates a gateway over an open connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// isUniqueViolation reports whether err is a Postgres duplicate-key error.
// Duplicate replay inserts race legitimately and are success-equivalent.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
