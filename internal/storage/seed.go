package storage

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/vizor-ai/vizor/internal/sqlbuilder"
)

// Seed applies the .sql files in seedFS to the store in lexical order.
// It is a forward-only runner for development databases: schema statements
// use CREATE TABLE IF NOT EXISTS, and data files are skipped entirely when
// the products table already holds rows. Files are split into individual
// statements because not every backend accepts multi-statement exec.
func Seed(ctx context.Context, store Store, seedFS fs.FS, logger *slog.Logger) error {
	entries, err := fs.ReadDir(seedFS, ".")
	if err != nil {
		return fmt.Errorf("storage: read seed dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	seeded, err := hasRows(ctx, store, "products")
	if err != nil {
		// The table may not exist yet; treat as unseeded.
		seeded = false
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		if seeded && strings.Contains(name, "data") {
			logger.Debug("seed data already present, skipping", "file", name)
			continue
		}

		content, err := fs.ReadFile(seedFS, name)
		if err != nil {
			return fmt.Errorf("storage: read seed file %s: %w", name, err)
		}

		logger.Info("applying seed file", "file", name)
		for _, stmt := range splitStatements(string(content)) {
			if err := store.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("storage: execute seed file %s: %w", name, err)
			}
		}
	}

	return nil
}

// splitStatements breaks a SQL script on statement-terminating semicolons.
// Seed files contain no string literals with semicolons, so a line-end split
// is sufficient.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func hasRows(ctx context.Context, store Store, table string) (bool, error) {
	d := store.Dialect()
	stmt := sqlbuilder.Statement{
		SQL:     "SELECT COUNT(*) AS n FROM " + d.QuoteIdent(table),
		MaxRows: 1,
	}
	rows, err := store.Execute(ctx, stmt)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 || len(rows[0].Values) == 0 {
		return false, nil
	}
	return toCount(rows[0].Values[0]) > 0, nil
}

func toCount(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
