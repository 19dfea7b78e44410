package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vizor-ai/vizor/internal/catalog"
	"github.com/vizor-ai/vizor/internal/config"
	"github.com/vizor-ai/vizor/internal/dispatch"
	"github.com/vizor-ai/vizor/internal/llm"
	"github.com/vizor-ai/vizor/internal/mcp"
	"github.com/vizor-ai/vizor/internal/server"
	"github.com/vizor-ai/vizor/internal/service/query"
	"github.com/vizor-ai/vizor/internal/storage"
	"github.com/vizor-ai/vizor/internal/telemetry"
	"github.com/vizor-ai/vizor/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("VIZOR_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("vizor starting", "version", version, "port", cfg.Port, "driver", cfg.DatabaseDriver)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Connect to the database backend.
	store, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, cfg.MaxOpenConns, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()

	// Apply demo schema and seed data (dev mode only).
	if cfg.DevSeed {
		if err := storage.Seed(ctx, store, migrations.FS, logger); err != nil {
			slog.Warn("seed failed", "error", err)
		}
	}

	// Schema catalog with TTL cache over live introspection.
	cat := catalog.New(store, cfg.SchemaCacheTTL)

	// Tool dispatcher: validates arguments, builds SQL, executes.
	dispatcher, err := dispatch.New(store, cat, cfg.StatementTimeout, logger)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	// Reasoning provider.
	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	slog.Info("ai provider configured", "provider", cfg.AIProvider)

	querySvc := query.New(cat, dispatcher, provider, logger)

	// Create MCP server (mounted at /mcp, also served over stdio by vizor-mcp).
	mcpSrv := mcp.New(dispatcher, cat, logger)

	srv := server.New(server.ServerConfig{
		QuerySvc:            querySvc,
		Catalog:             cat,
		DB:                  store,
		Logger:              logger,
		MCPServer:           mcpSrv.MCPServer(),
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	// Start HTTP server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("vizor shutting down")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("vizor stopped")
	return nil
}

// newProvider creates the tool-selection provider named by AI_PROVIDER.
func newProvider(cfg config.Config) (llm.Provider, error) {
	switch cfg.AIProvider {
	case "anthropic":
		return llm.NewAnthropic(llm.AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			Timeout: cfg.ProviderTimeout,
		})
	default:
		return llm.NewOpenAI(llm.OpenAIConfig{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.ProviderTimeout,
		})
	}
}
