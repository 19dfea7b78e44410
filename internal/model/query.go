// Package model defines the domain types shared across Vizor's packages:
// query arguments, schema descriptions, result rows, and chart payloads.
package model

// Aggregation is the SQL aggregate applied to the value column on the
// structured query path.
type Aggregation string

const (
	AggSum   Aggregation = "SUM"
	AggCount Aggregation = "COUNT"
	AggAvg   Aggregation = "AVG"
	AggMin   Aggregation = "MIN"
	AggMax   Aggregation = "MAX"
)

// Valid reports whether a is one of the known aggregations.
func (a Aggregation) Valid() bool {
	switch a {
	case AggSum, AggCount, AggAvg, AggMin, AggMax:
		return true
	}
	return false
}

// OrderBy selects the result ordering on the structured query path.
// The enum refers to the label/value output aliases, not raw columns.
type OrderBy string

const (
	OrderValueAsc  OrderBy = "value_asc"
	OrderValueDesc OrderBy = "value_desc"
	OrderLabelAsc  OrderBy = "label_asc"
	OrderLabelDesc OrderBy = "label_desc"
)

// Valid reports whether o is one of the known orderings.
func (o OrderBy) Valid() bool {
	switch o {
	case OrderValueAsc, OrderValueDesc, OrderLabelAsc, OrderLabelDesc:
		return true
	}
	return false
}

// ChartType is the chart kind requested by the orchestrator. It is passed
// through to the rendering layer untouched.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
)

// Valid reports whether c is one of the known chart kinds.
func (c ChartType) Valid() bool {
	switch c {
	case ChartBar, ChartLine, ChartPie:
		return true
	}
	return false
}

// Operator is a filter comparison operator on the structured query path.
type Operator string

const (
	OpEq   Operator = "="
	OpNeq  Operator = "!="
	OpGt   Operator = ">"
	OpLt   Operator = "<"
	OpGte  Operator = ">="
	OpLte  Operator = "<="
	OpLike Operator = "LIKE"
	OpIn   Operator = "IN"
)

// Valid reports whether op is in the fixed allowed set.
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte, OpLike, OpIn:
		return true
	}
	return false
}

// Filter is a single WHERE condition on the structured query path.
// Value is always parameter-bound, never interpolated.
type Filter struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// StructuredQueryArgs are the validated arguments of the simple_query tool.
// Table and column names must exist in the live schema catalog.
type StructuredQueryArgs struct {
	Table       string      `json:"table"`
	LabelColumn string      `json:"label_column"`
	ValueColumn string      `json:"value_column"`
	Aggregation Aggregation `json:"aggregation"`
	Filters     []Filter    `json:"filters,omitempty"`
	OrderBy     OrderBy     `json:"order_by,omitempty"`
	Limit       int         `json:"limit,omitempty"`
	ChartType   ChartType   `json:"chart_type"`
}

// RawQueryArgs are the arguments of the advanced_query tool. SQL is
// caller-supplied free text and must pass the safety filter before execution.
type RawQueryArgs struct {
	SQL       string    `json:"sql"`
	ChartType ChartType `json:"chart_type"`
}

// Column is one column of a catalog table with its declared type.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Table is one catalog table with its columns in declaration order.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Schema is the database schema as read from the metadata store.
// Tables and columns keep their catalog order.
type Schema struct {
	Tables []Table `json:"tables"`
}

// Table returns the named table and whether it exists.
func (s Schema) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// HasColumn reports whether the table declares the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the table's column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Row is a single result row with columns in select-list order.
// The first column is the label axis; the rest are value series.
type Row struct {
	Columns []string
	Values  []any
}
