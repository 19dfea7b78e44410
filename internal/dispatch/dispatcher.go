// Package dispatch routes tool calls from the reasoning orchestrator to the
// query builders and executes the resulting statements.
//
// A call is validated twice before it can touch the database: first against
// the tool's declared JSON Schema (shape, types, enums), then semantically by
// the builder (live schema whitelist or safety filter). Execution failures
// surface as ExecutionFailed and are never retried here; retry policy belongs
// to the orchestration layer.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/vizor-ai/vizor/internal/apperr"
	"github.com/vizor-ai/vizor/internal/catalog"
	"github.com/vizor-ai/vizor/internal/model"
	"github.com/vizor-ai/vizor/internal/sqlbuilder"
	"github.com/vizor-ai/vizor/internal/storage"
)

// Result is the outcome of one successful tool call.
type Result struct {
	Rows      []model.Row
	SQL       string
	ChartType model.ChartType
}

// Dispatcher validates and executes tool calls against one Store.
type Dispatcher struct {
	store    storage.Store
	catalog  *catalog.Catalog
	timeout  time.Duration
	logger   *slog.Logger
	compiled map[string]*jsonschema.Schema
}

// New creates a Dispatcher and compiles the tool argument schemas.
func New(store storage.Store, cat *catalog.Catalog, timeout time.Duration, logger *slog.Logger) (*Dispatcher, error) {
	compiled := make(map[string]*jsonschema.Schema, len(toolSpecs))
	for _, spec := range toolSpecs {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(spec.InputSchema)))
		if err != nil {
			return nil, fmt.Errorf("dispatch: parse %s schema: %w", spec.Name, err)
		}
		c := jsonschema.NewCompiler()
		resource := spec.Name + ".json"
		if err := c.AddResource(resource, doc); err != nil {
			return nil, fmt.Errorf("dispatch: add %s schema: %w", spec.Name, err)
		}
		sch, err := c.Compile(resource)
		if err != nil {
			return nil, fmt.Errorf("dispatch: compile %s schema: %w", spec.Name, err)
		}
		compiled[spec.Name] = sch
	}
	return &Dispatcher{
		store:    store,
		catalog:  cat,
		timeout:  timeout,
		logger:   logger,
		compiled: compiled,
	}, nil
}

// Tools returns the immutable tool registry.
func (d *Dispatcher) Tools() []ToolSpec {
	specs := make([]ToolSpec, len(toolSpecs))
	copy(specs, toolSpecs)
	return specs
}

// Call validates name and args, builds the statement, executes it, and
// returns the rows. All validation happens before anything reaches the
// database.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (Result, error) {
	sch, ok := d.compiled[name]
	if !ok {
		return Result{}, apperr.New(apperr.KindUnknownTool,
			"unknown tool %q, available: %s, %s", name, ToolSimpleQuery, ToolAdvancedQuery)
	}

	if err := d.validateArgs(sch, args); err != nil {
		return Result{}, err
	}

	var (
		stmt      sqlbuilder.Statement
		chartType model.ChartType
		err       error
	)
	switch name {
	case ToolSimpleQuery:
		structured := decodeStructuredArgs(args)
		chartType = structured.ChartType
		var schema model.Schema
		schema, err = d.catalog.Describe(ctx)
		if err != nil {
			return Result{}, err
		}
		stmt, err = sqlbuilder.BuildStructured(schema, structured, d.store.Dialect(), d.timeout)
	case ToolAdvancedQuery:
		raw := decodeRawArgs(args)
		chartType = raw.ChartType
		stmt, err = sqlbuilder.BuildRaw(raw, d.timeout)
	}
	if err != nil {
		return Result{}, err
	}

	d.logger.Debug("dispatch: executing", "tool", name, "sql", stmt.SQL)

	rows, err := d.store.Execute(ctx, stmt)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindExecutionFailed, err, "execute %s", name)
	}
	return Result{Rows: rows, SQL: stmt.SQL, ChartType: chartType}, nil
}

// validateArgs checks args against the compiled schema and reports the
// failing field locations.
func (d *Dispatcher) validateArgs(sch *jsonschema.Schema, args map[string]any) error {
	// Round-trip so numeric types match what a JSON decoder produces; MCP
	// and provider layers may hand us native ints.
	encoded, err := json.Marshal(args)
	if err != nil {
		return apperr.Wrap(apperr.KindSchemaViolation, err, "arguments are not JSON-encodable")
	}
	decoded, err := jsonschema.UnmarshalJSON(strings.NewReader(string(encoded)))
	if err != nil {
		return apperr.Wrap(apperr.KindSchemaViolation, err, "arguments are not valid JSON")
	}

	if err := sch.Validate(decoded); err != nil {
		var ve *jsonschema.ValidationError
		if fields := failingFields(err, &ve); len(fields) > 0 {
			return apperr.Wrap(apperr.KindSchemaViolation, err,
				"arguments failed schema validation at: %s", strings.Join(fields, ", "))
		}
		return apperr.Wrap(apperr.KindSchemaViolation, err, "arguments failed schema validation")
	}
	return nil
}

// failingFields collects the instance locations of all leaf causes.
func failingFields(err error, ve **jsonschema.ValidationError) []string {
	v, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil
	}
	*ve = v
	var fields []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := "/" + strings.Join(e.InstanceLocation, "/")
			fields = append(fields, loc)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(v)
	return fields
}

// decodeStructuredArgs maps schema-validated arguments onto typed args.
// Shape and enums were already checked; this is a plain extraction.
func decodeStructuredArgs(args map[string]any) model.StructuredQueryArgs {
	out := model.StructuredQueryArgs{
		Table:       argString(args, "table"),
		LabelColumn: argString(args, "label_column"),
		ValueColumn: argString(args, "value_column"),
		Aggregation: model.Aggregation(argString(args, "aggregation")),
		OrderBy:     model.OrderBy(argString(args, "order_by")),
		Limit:       argInt(args, "limit"),
		ChartType:   model.ChartType(argString(args, "chart_type")),
	}
	rawFilters, ok := args["filters"].([]any)
	if !ok {
		return out
	}
	for _, rf := range rawFilters {
		f, ok := rf.(map[string]any)
		if !ok {
			continue
		}
		out.Filters = append(out.Filters, model.Filter{
			Column:   argString(f, "column"),
			Operator: model.Operator(argString(f, "operator")),
			Value:    f["value"],
		})
	}
	return out
}

func decodeRawArgs(args map[string]any) model.RawQueryArgs {
	return model.RawQueryArgs{
		SQL:       argString(args, "sql"),
		ChartType: model.ChartType(argString(args, "chart_type")),
	}
}

func argString(args map[string]any, key string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}

func argInt(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return 0
}
