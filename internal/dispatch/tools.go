package dispatch

import "encoding/json"

// ToolSpec declares one callable query strategy: its name and the JSON
// Schema of its arguments. The registry is defined once at startup and the
// same raw schema bytes are handed to the MCP layer and the AI provider, so
// all three surfaces stay byte-identical.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

const (
	// ToolSimpleQuery builds SQL from validated discrete fields.
	ToolSimpleQuery = "simple_query"
	// ToolAdvancedQuery accepts caller-supplied SELECT text, safety-filtered.
	ToolAdvancedQuery = "advanced_query"
)

const simpleQuerySchema = `{
  "type": "object",
  "properties": {
    "table": {
      "type": "string",
      "description": "Table to query"
    },
    "label_column": {
      "type": "string",
      "description": "Column used as the label axis"
    },
    "value_column": {
      "type": "string",
      "description": "Column the aggregation is applied to"
    },
    "aggregation": {
      "type": "string",
      "enum": ["SUM", "COUNT", "AVG", "MIN", "MAX"],
      "description": "Aggregation function"
    },
    "filters": {
      "type": "array",
      "description": "Optional WHERE conditions, combined with AND",
      "items": {
        "type": "object",
        "properties": {
          "column": {"type": "string"},
          "operator": {"type": "string", "enum": ["=", "!=", ">", "<", ">=", "<=", "LIKE", "IN"]},
          "value": {}
        },
        "required": ["column", "operator", "value"]
      }
    },
    "order_by": {
      "type": "string",
      "enum": ["value_asc", "value_desc", "label_asc", "label_desc"],
      "description": "Result ordering"
    },
    "limit": {
      "type": "integer",
      "default": 100,
      "description": "Maximum number of rows"
    },
    "chart_type": {
      "type": "string",
      "enum": ["bar", "line", "pie"],
      "description": "Type of chart to display"
    }
  },
  "required": ["table", "label_column", "value_column", "aggregation", "chart_type"]
}`

const advancedQuerySchema = `{
  "type": "object",
  "properties": {
    "sql": {
      "type": "string",
      "description": "A single SELECT statement. JOINs and aggregations are allowed; the first selected column becomes the label axis."
    },
    "chart_type": {
      "type": "string",
      "enum": ["bar", "line", "pie"],
      "description": "Type of chart to display"
    }
  },
  "required": ["sql", "chart_type"]
}`

// toolSpecs is the immutable tool registry.
var toolSpecs = []ToolSpec{
	{
		Name: ToolSimpleQuery,
		Description: "Query a single table with an aggregation grouped by a label column. " +
			"Use for straightforward questions answerable from one table.",
		InputSchema: json.RawMessage(simpleQuerySchema),
	},
	{
		Name: ToolAdvancedQuery,
		Description: "Run a custom SELECT query. Use when the question needs JOINs, " +
			"expressions, or anything simple_query cannot express. Only SELECT is permitted.",
		InputSchema: json.RawMessage(advancedQuerySchema),
	},
}
