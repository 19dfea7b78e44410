package sqlbuilder

import (
	"strconv"
	"strings"
	"time"

	"github.com/vizor-ai/vizor/internal/apperr"
	"github.com/vizor-ai/vizor/internal/model"
)

// BuildStructured assembles a parameterized aggregation query from validated
// discrete fields. Every identifier is checked against the live schema and
// quoted through the dialect; filter values are bound parameters. The output
// SQL contains no caller-supplied raw text outside of parameter values.
func BuildStructured(schema model.Schema, args model.StructuredQueryArgs, d Dialect, timeout time.Duration) (Statement, error) {
	table, ok := schema.Table(args.Table)
	if !ok {
		return Statement{}, apperr.New(apperr.KindInvalidArgument,
			"unknown table %q, valid tables: %s", args.Table, tableNames(schema))
	}
	if !table.HasColumn(args.LabelColumn) {
		return Statement{}, apperr.New(apperr.KindInvalidArgument,
			"unknown label column %q on table %q, valid columns: %s",
			args.LabelColumn, args.Table, strings.Join(table.ColumnNames(), ", "))
	}
	if !table.HasColumn(args.ValueColumn) {
		return Statement{}, apperr.New(apperr.KindInvalidArgument,
			"unknown value column %q on table %q, valid columns: %s",
			args.ValueColumn, args.Table, strings.Join(table.ColumnNames(), ", "))
	}
	if !args.Aggregation.Valid() {
		return Statement{}, apperr.New(apperr.KindInvalidArgument,
			"unknown aggregation %q, valid: SUM, COUNT, AVG, MIN, MAX", args.Aggregation)
	}
	if args.OrderBy != "" && !args.OrderBy.Valid() {
		return Statement{}, apperr.New(apperr.KindInvalidArgument,
			"unknown order_by %q, valid: value_asc, value_desc, label_asc, label_desc", args.OrderBy)
	}

	limit := args.Limit
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 0:
		return Statement{}, apperr.New(apperr.KindInvalidArgument, "limit must be positive, got %d", limit)
	case limit > MaxRows:
		limit = MaxRows
	}

	labelIdent := d.QuoteIdent(args.LabelColumn)
	valueIdent := d.QuoteIdent(args.ValueColumn)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(labelIdent)
	b.WriteString(" AS label, ")
	b.WriteString(string(args.Aggregation))
	b.WriteString("(")
	b.WriteString(valueIdent)
	b.WriteString(") AS value FROM ")
	b.WriteString(d.QuoteIdent(args.Table))

	var bound []any
	if len(args.Filters) > 0 {
		conditions := make([]string, 0, len(args.Filters))
		for _, f := range args.Filters {
			cond, vals, err := buildFilter(table, f, d, len(bound))
			if err != nil {
				return Statement{}, err
			}
			conditions = append(conditions, cond)
			bound = append(bound, vals...)
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}

	b.WriteString(" GROUP BY ")
	b.WriteString(labelIdent)

	if args.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderClause(args.OrderBy))
	}

	b.WriteString(" LIMIT ")
	b.WriteString(strconv.Itoa(limit))

	return Statement{SQL: b.String(), Args: bound, MaxRows: limit, Timeout: timeout}, nil
}

// buildFilter renders one WHERE condition. offset is the count of parameters
// already bound, so placeholders stay sequential for $n dialects.
func buildFilter(table model.Table, f model.Filter, d Dialect, offset int) (string, []any, error) {
	if !table.HasColumn(f.Column) {
		return "", nil, apperr.New(apperr.KindInvalidArgument,
			"unknown filter column %q on table %q", f.Column, table.Name)
	}
	if !f.Operator.Valid() {
		return "", nil, apperr.New(apperr.KindInvalidArgument,
			"unknown filter operator %q, valid: =, !=, >, <, >=, <=, LIKE, IN", f.Operator)
	}

	ident := d.QuoteIdent(f.Column)

	if f.Operator == model.OpIn {
		vals, ok := f.Value.([]any)
		if !ok || len(vals) == 0 {
			return "", nil, apperr.New(apperr.KindInvalidArgument,
				"IN filter on %q requires a non-empty array value", f.Column)
		}
		placeholders := make([]string, len(vals))
		for i := range vals {
			placeholders[i] = d.Placeholder(offset + i + 1)
		}
		return ident + " IN (" + strings.Join(placeholders, ", ") + ")", vals, nil
	}

	return ident + " " + string(f.Operator) + " " + d.Placeholder(offset+1), []any{f.Value}, nil
}

func orderClause(o model.OrderBy) string {
	switch o {
	case model.OrderValueAsc:
		return "value ASC"
	case model.OrderValueDesc:
		return "value DESC"
	case model.OrderLabelAsc:
		return "label ASC"
	default:
		return "label DESC"
	}
}

func tableNames(schema model.Schema) string {
	names := make([]string, len(schema.Tables))
	for i, t := range schema.Tables {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}
