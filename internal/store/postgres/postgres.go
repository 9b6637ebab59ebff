// Package postgres implements the store interfaces using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DefaultQueryTimeout bounds every query issued by the store.
const DefaultQueryTimeout = 30 * time.Second

// Store provides PostgreSQL-backed implementations of all repositories.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// New opens a connection pool without touching the server, so a database
// that is down at boot only fails the cycles that need it. Callers that want
// an early signal can Ping.
// queryTimeout <= 0 falls back to DefaultQueryTimeout.
func New(databaseURL string, queryTimeout time.Duration) (*Store, error) {
	return open("postgres", databaseURL, queryTimeout)
}

func open(driver, dsn string, queryTimeout time.Duration) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStore(db, queryTimeout), nil
}

func newStore(db *sql.DB, queryTimeout time.Duration) *Store {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	return &Store{db: db, queryTimeout: queryTimeout}
}

// DB exposes the underlying pool, e.g. for migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
