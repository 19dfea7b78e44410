package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/vizor-ai/vizor/internal/apperr"
	"github.com/vizor-ai/vizor/internal/model"
	"github.com/vizor-ai/vizor/internal/sqlbuilder"
)

// sqlStore is the shared database/sql backend for MySQL and SQLite. The two
// differ only in dialect and schema introspection query.
type sqlStore struct {
	db         *sql.DB
	dialect    sqlbuilder.Dialect
	introspect func(ctx context.Context, db *sql.DB) (model.Schema, error)
	logger     *slog.Logger
}

func newMySQL(ctx context.Context, dsn string, maxConns int, logger *slog.Logger) (*sqlStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open mysql: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns / 2)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping mysql: %w", err)
	}
	return &sqlStore{db: db, dialect: sqlbuilder.MySQL, introspect: describeMySQL, logger: logger}, nil
}

func newSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*sqlStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	// An in-memory SQLite database exists per connection; a second pooled
	// connection would see an empty schema.
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping sqlite: %w", err)
	}
	return &sqlStore{db: db, dialect: sqlbuilder.SQLite, introspect: describeSQLite, logger: logger}, nil
}

func (s *sqlStore) Dialect() sqlbuilder.Dialect { return s.dialect }

func (s *sqlStore) Describe(ctx context.Context) (model.Schema, error) {
	return s.introspect(ctx, s.db)
}

func (s *sqlStore) Execute(ctx context.Context, stmt sqlbuilder.Statement) ([]model.Row, error) {
	if stmt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, stmt.Timeout)
		defer cancel()
	}

	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("storage: execute: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("storage: read columns: %w", err)
	}

	var out []model.Row
	for rows.Next() {
		if stmt.MaxRows > 0 && len(out) >= stmt.MaxRows {
			break
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("storage: scan row: %w", err)
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		out = append(out, model.Row{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate rows: %w", err)
	}
	return out, nil
}

func (s *sqlStore) Exec(ctx context.Context, sqlText string) error {
	if _, err := s.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("storage: exec: %w", err)
	}
	return nil
}

func (s *sqlStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *sqlStore) Close() { _ = s.db.Close() }

func describeMySQL(ctx context.Context, db *sql.DB) (model.Schema, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT table_name, column_name, data_type
		 FROM information_schema.columns
		 WHERE table_schema = DATABASE()
		 ORDER BY table_name, ordinal_position`)
	if err != nil {
		return model.Schema{}, apperr.Wrap(apperr.KindCatalogUnavailable, err, "read mysql schema")
	}
	defer func() { _ = rows.Close() }()

	var schema model.Schema
	for rows.Next() {
		var table, column, typ string
		if err := rows.Scan(&table, &column, &typ); err != nil {
			return model.Schema{}, apperr.Wrap(apperr.KindCatalogUnavailable, err, "scan mysql schema row")
		}
		appendColumn(&schema, table, column, typ)
	}
	if err := rows.Err(); err != nil {
		return model.Schema{}, apperr.Wrap(apperr.KindCatalogUnavailable, err, "iterate mysql schema rows")
	}
	return schema, nil
}

func describeSQLite(ctx context.Context, db *sql.DB) (model.Schema, error) {
	tables, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`)
	if err != nil {
		return model.Schema{}, apperr.Wrap(apperr.KindCatalogUnavailable, err, "read sqlite tables")
	}
	defer func() { _ = tables.Close() }()

	var names []string
	for tables.Next() {
		var name string
		if err := tables.Scan(&name); err != nil {
			return model.Schema{}, apperr.Wrap(apperr.KindCatalogUnavailable, err, "scan sqlite table name")
		}
		names = append(names, name)
	}
	if err := tables.Err(); err != nil {
		return model.Schema{}, apperr.Wrap(apperr.KindCatalogUnavailable, err, "iterate sqlite tables")
	}

	var schema model.Schema
	for _, name := range names {
		// Table names come from sqlite_master, not from the caller.
		cols, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, name))
		if err != nil {
			return model.Schema{}, apperr.Wrap(apperr.KindCatalogUnavailable, err, "read sqlite columns for %s", name)
		}
		for cols.Next() {
			var (
				cid        int
				colName    string
				colType    string
				notNull    int
				defaultVal sql.NullString
				pk         int
			)
			if err := cols.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &pk); err != nil {
				_ = cols.Close()
				return model.Schema{}, apperr.Wrap(apperr.KindCatalogUnavailable, err, "scan sqlite column for %s", name)
			}
			appendColumn(&schema, name, colName, colType)
		}
		err = cols.Err()
		_ = cols.Close()
		if err != nil {
			return model.Schema{}, apperr.Wrap(apperr.KindCatalogUnavailable, err, "iterate sqlite columns for %s", name)
		}
	}
	return schema, nil
}

// appendColumn adds a column to its table, creating the table entry on first
// sight. Rows arrive ordered by table then ordinal position, so declaration
// order is preserved.
func appendColumn(schema *model.Schema, table, column, typ string) {
	for i := range schema.Tables {
		if schema.Tables[i].Name == table {
			schema.Tables[i].Columns = append(schema.Tables[i].Columns, model.Column{Name: column, Type: typ})
			return
		}
	}
	schema.Tables = append(schema.Tables, model.Table{
		Name:    table,
		Columns: []model.Column{{Name: column, Type: typ}},
	})
}

// normalizeValue makes driver-specific scan results uniform: byte slices
// become strings so labels and JSON output don't base64-encode.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
