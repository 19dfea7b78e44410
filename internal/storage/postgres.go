package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vizor-ai/vizor/internal/apperr"
	"github.com/vizor-ai/vizor/internal/model"
	"github.com/vizor-ai/vizor/internal/sqlbuilder"
)

// postgresStore runs on a pgx connection pool.
type postgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func newPostgres(ctx context.Context, dsn string, maxConns int, logger *slog.Logger) (*postgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse postgres DSN: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping postgres: %w", err)
	}

	return &postgresStore{pool: pool, logger: logger}, nil
}

func (s *postgresStore) Dialect() sqlbuilder.Dialect { return sqlbuilder.Postgres }

func (s *postgresStore) Describe(ctx context.Context) (model.Schema, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT table_name, column_name, data_type
		 FROM information_schema.columns
		 WHERE table_schema = 'public'
		 ORDER BY table_name, ordinal_position`)
	if err != nil {
		return model.Schema{}, apperr.Wrap(apperr.KindCatalogUnavailable, err, "read postgres schema")
	}
	defer rows.Close()

	var schema model.Schema
	for rows.Next() {
		var table, column, typ string
		if err := rows.Scan(&table, &column, &typ); err != nil {
			return model.Schema{}, apperr.Wrap(apperr.KindCatalogUnavailable, err, "scan postgres schema row")
		}
		appendColumn(&schema, table, column, typ)
	}
	if err := rows.Err(); err != nil {
		return model.Schema{}, apperr.Wrap(apperr.KindCatalogUnavailable, err, "iterate postgres schema rows")
	}
	return schema, nil
}

func (s *postgresStore) Execute(ctx context.Context, stmt sqlbuilder.Statement) ([]model.Row, error) {
	if stmt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, stmt.Timeout)
		defer cancel()
	}

	rows, err := s.pool.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("storage: execute: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var out []model.Row
	for rows.Next() {
		if stmt.MaxRows > 0 && len(out) >= stmt.MaxRows {
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("storage: scan row: %w", err)
		}
		for i, v := range values {
			values[i] = normalizePgValue(v)
		}
		out = append(out, model.Row{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate rows: %w", err)
	}
	return out, nil
}

func (s *postgresStore) Exec(ctx context.Context, sql string) error {
	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("storage: exec: %w", err)
	}
	return nil
}

func (s *postgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// normalizePgValue converts pgx-specific scan types into the plain scalars
// the normalizer understands. NUMERIC columns arrive as pgtype.Numeric.
func normalizePgValue(v any) any {
	if n, ok := v.(pgtype.Numeric); ok {
		if f, err := n.Float64Value(); err == nil && f.Valid {
			return f.Float64
		}
		return nil
	}
	return normalizeValue(v)
}

func (s *postgresStore) Close() { s.pool.Close() }
