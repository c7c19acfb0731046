// Package db provides a thin wrapper around sqlx with query tracing.
package db

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq" // postgres driver
)

// DB is the interface for a database connection.
type DB struct {
	*sqlx.DB
	logger *log.Logger
}

// Open opens a postgres database connection.
func Open(ctx context.Context, dsn string, logger *log.Logger) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	d := &DB{DB: db}
	if logger != nil {
		d.logger = logger.WithPrefix("db")
	}

	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.DB.Close()
}
