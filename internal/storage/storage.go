// Package storage provides Vizor's database backends.
//
// A Store executes validated statements and reads live schema metadata.
// PostgreSQL runs on pgx; MySQL and SQLite share a database/sql
// implementation. Per-backend identifier quoting and placeholder style live
// in the sqlbuilder dialects; everything else is uniform: statements carry
// their own timeout and row cap, connections come from a bounded pool, and
// no statement mutates data (the builders guarantee SELECT-only input).
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vizor-ai/vizor/internal/model"
	"github.com/vizor-ai/vizor/internal/sqlbuilder"
)

// Store is a single database backend.
type Store interface {
	// Dialect returns the quoting/placeholder rules for this backend.
	Dialect() sqlbuilder.Dialect

	// Describe reads the schema fresh from the backend's metadata store.
	// Failures are classified as CatalogUnavailable.
	Describe(ctx context.Context) (model.Schema, error)

	// Execute runs one statement within its attached timeout and returns
	// at most stmt.MaxRows rows in select-list column order.
	Execute(ctx context.Context, stmt sqlbuilder.Statement) ([]model.Row, error)

	// Exec runs a statement that returns no rows (migrations, seeds).
	Exec(ctx context.Context, sql string) error

	Ping(ctx context.Context) error
	Close()
}

// Open connects to the backend selected by driver: "postgres", "mysql", or
// "sqlite". maxConns bounds the connection pool.
func Open(ctx context.Context, driver, dsn string, maxConns int, logger *slog.Logger) (Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("storage: empty DSN for driver %q", driver)
	}
	switch driver {
	case "postgres":
		return newPostgres(ctx, dsn, maxConns, logger)
	case "mysql":
		return newMySQL(ctx, dsn, maxConns, logger)
	case "sqlite":
		return newSQLite(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q (postgres, mysql, sqlite)", driver)
	}
}
