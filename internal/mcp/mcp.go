// Package mcp implements the Model Context Protocol server for Vizor.
//
// It exposes the same two query tools the AI orchestrator uses —
// simple_query and advanced_query — plus the schema://database resource, so
// MCP-compatible agents can query the database through the exact validation
// and safety path the HTTP API enforces.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/vizor-ai/vizor/internal/catalog"
	"github.com/vizor-ai/vizor/internal/chart"
	"github.com/vizor-ai/vizor/internal/dispatch"
	"github.com/vizor-ai/vizor/internal/model"
)

// SchemaResourceURI names the read-only schema description resource.
const SchemaResourceURI = "schema://database"

// Server wraps the MCP server with Vizor's query layer.
type Server struct {
	mcpServer  *mcpserver.MCPServer
	dispatcher *dispatch.Dispatcher
	catalog    *catalog.Catalog
	logger     *slog.Logger
}

// New creates and configures a new MCP server with the query tools and the
// schema resource registered.
func New(d *dispatch.Dispatcher, cat *catalog.Catalog, logger *slog.Logger) *Server {
	s := &Server{
		dispatcher: d,
		catalog:    cat,
		logger:     logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"vizor",
		"0.1.0",
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
	)

	s.registerResources()
	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func (s *Server) registerResources() {
	// schema://database — table → columns mapping read from the catalog.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			SchemaResourceURI,
			"Database Schema",
			mcplib.WithResourceDescription("Tables and columns available for querying"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleSchemaResource,
	)
}

func (s *Server) registerTools() {
	// The raw schemas come from the dispatcher registry so the MCP surface
	// stays byte-identical to what the AI provider and validator see.
	for _, spec := range s.dispatcher.Tools() {
		tool := mcplib.NewToolWithRawSchema(spec.Name, spec.Description, spec.InputSchema)
		s.mcpServer.AddTool(tool, s.handleTool(spec.Name))
	}
}

func (s *Server) handleSchemaResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	schema, err := s.catalog.Describe(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: describe schema: %w", err)
	}

	// table name → ordered column list.
	description := make(map[string][]model.Column, len(schema.Tables))
	for _, t := range schema.Tables {
		description[t.Name] = t.Columns
	}

	data, err := json.MarshalIndent(description, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal schema: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      SchemaResourceURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleTool(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		args := request.GetArguments()

		result, err := s.dispatcher.Call(ctx, name, args)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		payload := chart.Normalize("", result.ChartType, result.Rows)
		payload.SQL = result.SQL

		data, err := json.Marshal(payload)
		if err != nil {
			return errorResult(fmt.Sprintf("marshal result: %v", err)), nil
		}

		return &mcplib.CallToolResult{
			Content: []mcplib.Content{
				mcplib.TextContent{Type: "text", Text: string(data)},
			},
		}, nil
	}
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
