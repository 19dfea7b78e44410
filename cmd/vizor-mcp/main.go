// vizor-mcp serves the Vizor MCP tools over stdio for editor and agent
// integrations. Logs go to stderr; stdout is reserved for the MCP transport.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/vizor-ai/vizor/internal/catalog"
	"github.com/vizor-ai/vizor/internal/config"
	"github.com/vizor-ai/vizor/internal/dispatch"
	"github.com/vizor-ai/vizor/internal/mcp"
	"github.com/vizor-ai/vizor/internal/storage"
	"github.com/vizor-ai/vizor/migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := run(context.Background(), logger); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, cfg.MaxOpenConns, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()

	if cfg.DevSeed {
		if err := storage.Seed(ctx, store, migrations.FS, logger); err != nil {
			logger.Warn("seed failed", "error", err)
		}
	}

	cat := catalog.New(store, cfg.SchemaCacheTTL)

	dispatcher, err := dispatch.New(store, cat, cfg.StatementTimeout, logger)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	srv := mcp.New(dispatcher, cat, logger)

	if err := mcpserver.ServeStdio(srv.MCPServer()); err != nil {
		return fmt.Errorf("mcp: serve stdio: %w", err)
	}
	return nil
}
