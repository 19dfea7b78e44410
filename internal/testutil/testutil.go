// Package testutil provides shared test infrastructure.
//
// Tests that need a real database use an in-memory SQLite store seeded with
// the demo dataset; no external services are required.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/vizor-ai/vizor/internal/storage"
	"github.com/vizor-ai/vizor/migrations"
)

// TestLogger returns a logger configured for test output (warns only).
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// NewSQLiteStore opens an in-memory SQLite store seeded with the demo
// products/sales/features dataset. The store is closed when the test ends.
func NewSQLiteStore(t *testing.T) storage.Store {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open(ctx, "sqlite", ":memory:", 1, TestLogger())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(store.Close)

	if err := storage.Seed(ctx, store, migrations.FS, TestLogger()); err != nil {
		t.Fatalf("seed sqlite store: %v", err)
	}
	return store
}
