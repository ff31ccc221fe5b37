// Package postgres provides the PostgreSQL implementations of the domain
// store interfaces.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdn/cuestore/internal/domain"
)

// NewPool creates a connection pool with the shopspring decimal codec
// registered, so NUMERIC columns scan straight into decimal.Decimal.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	config.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// notFound translates pgx.ErrNoRows into a domain not-found error; anything
// else becomes an internal error.
func notFound(err error, op, resource, identifier string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(op, resource, identifier)
	}
	return domain.Internal(err, op, "query failed")
}
