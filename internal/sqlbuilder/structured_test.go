package sqlbuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizor-ai/vizor/internal/apperr"
	"github.com/vizor-ai/vizor/internal/model"
)

func demoSchema() model.Schema {
	return model.Schema{Tables: []model.Table{
		{Name: "products", Columns: []model.Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "name", Type: "VARCHAR"},
			{Name: "category", Type: "VARCHAR"},
			{Name: "price", Type: "NUMERIC"},
		}},
		{Name: "sales", Columns: []model.Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "product_id", Type: "INTEGER"},
			{Name: "quantity", Type: "INTEGER"},
			{Name: "total_amount", Type: "NUMERIC"},
			{Name: "sale_date", Type: "DATE"},
		}},
	}}
}

func TestBuildStructured_Basic(t *testing.T) {
	stmt, err := BuildStructured(demoSchema(), model.StructuredQueryArgs{
		Table:       "products",
		LabelColumn: "category",
		ValueColumn: "price",
		Aggregation: model.AggSum,
	}, Postgres, 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "category" AS label, SUM("price") AS value FROM "products" GROUP BY "category" LIMIT 100`,
		stmt.SQL)
	assert.Empty(t, stmt.Args)
	assert.Equal(t, 100, stmt.MaxRows)
	assert.Equal(t, 5*time.Second, stmt.Timeout)
}

func TestBuildStructured_FiltersAndOrder(t *testing.T) {
	stmt, err := BuildStructured(demoSchema(), model.StructuredQueryArgs{
		Table:       "sales",
		LabelColumn: "sale_date",
		ValueColumn: "total_amount",
		Aggregation: model.AggSum,
		Filters: []model.Filter{
			{Column: "quantity", Operator: model.OpGte, Value: 2},
			{Column: "product_id", Operator: model.OpIn, Value: []any{1, 2, 3}},
		},
		OrderBy: model.OrderValueDesc,
		Limit:   10,
	}, Postgres, time.Second)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "sale_date" AS label, SUM("total_amount") AS value FROM "sales"`+
			` WHERE "quantity" >= $1 AND "product_id" IN ($2, $3, $4)`+
			` GROUP BY "sale_date" ORDER BY value DESC LIMIT 10`,
		stmt.SQL)
	assert.Equal(t, []any{2, 1, 2, 3}, stmt.Args)
	assert.Equal(t, 10, stmt.MaxRows)
}

func TestBuildStructured_MySQLPlaceholders(t *testing.T) {
	stmt, err := BuildStructured(demoSchema(), model.StructuredQueryArgs{
		Table:       "products",
		LabelColumn: "category",
		ValueColumn: "id",
		Aggregation: model.AggCount,
		Filters: []model.Filter{
			{Column: "price", Operator: model.OpLt, Value: 100.0},
		},
	}, MySQL, time.Second)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT `category` AS label, COUNT(`id`) AS value FROM `products`"+
			" WHERE `price` < ? GROUP BY `category` LIMIT 100",
		stmt.SQL)
	assert.Equal(t, []any{100.0}, stmt.Args)
}

func TestBuildStructured_Deterministic(t *testing.T) {
	args := model.StructuredQueryArgs{
		Table:       "sales",
		LabelColumn: "product_id",
		ValueColumn: "quantity",
		Aggregation: model.AggAvg,
		Filters: []model.Filter{
			{Column: "total_amount", Operator: model.OpGt, Value: 50},
		},
		OrderBy: model.OrderLabelAsc,
	}
	first, err := BuildStructured(demoSchema(), args, SQLite, time.Second)
	require.NoError(t, err)
	second, err := BuildStructured(demoSchema(), args, SQLite, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.SQL, second.SQL)
	assert.Equal(t, first.Args, second.Args)
}

func TestBuildStructured_LimitClamped(t *testing.T) {
	stmt, err := BuildStructured(demoSchema(), model.StructuredQueryArgs{
		Table:       "products",
		LabelColumn: "category",
		ValueColumn: "price",
		Aggregation: model.AggMax,
		Limit:       50000,
	}, Postgres, time.Second)
	require.NoError(t, err)
	assert.Contains(t, stmt.SQL, "LIMIT 1000")
	assert.Equal(t, MaxRows, stmt.MaxRows)
}

func TestBuildStructured_Rejections(t *testing.T) {
	schema := demoSchema()
	base := model.StructuredQueryArgs{
		Table:       "products",
		LabelColumn: "category",
		ValueColumn: "price",
		Aggregation: model.AggSum,
	}

	tests := []struct {
		name    string
		mutate  func(*model.StructuredQueryArgs)
		wantMsg string
	}{
		{"unknown table", func(a *model.StructuredQueryArgs) { a.Table = "users" }, "unknown table"},
		{"unknown label column", func(a *model.StructuredQueryArgs) { a.LabelColumn = "region" }, "unknown label column"},
		{"unknown value column", func(a *model.StructuredQueryArgs) { a.ValueColumn = "cost" }, "unknown value column"},
		{"unknown aggregation", func(a *model.StructuredQueryArgs) { a.Aggregation = "MEDIAN" }, "unknown aggregation"},
		{"unknown order", func(a *model.StructuredQueryArgs) { a.OrderBy = "random" }, "unknown order_by"},
		{"negative limit", func(a *model.StructuredQueryArgs) { a.Limit = -5 }, "limit must be positive"},
		{"unknown filter column", func(a *model.StructuredQueryArgs) {
			a.Filters = []model.Filter{{Column: "region", Operator: model.OpEq, Value: "EU"}}
		}, "unknown filter column"},
		{"unknown operator", func(a *model.StructuredQueryArgs) {
			a.Filters = []model.Filter{{Column: "price", Operator: "BETWEEN", Value: 1}}
		}, "unknown filter operator"},
		{"empty IN", func(a *model.StructuredQueryArgs) {
			a.Filters = []model.Filter{{Column: "id", Operator: model.OpIn, Value: []any{}}}
		}, "non-empty array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := base
			tt.mutate(&args)
			_, err := BuildStructured(schema, args, Postgres, time.Second)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestBuildStructured_InjectionAttemptStaysQuoted(t *testing.T) {
	// An identifier not present in the schema is rejected before it ever
	// reaches the SQL string.
	_, err := BuildStructured(demoSchema(), model.StructuredQueryArgs{
		Table:       "products; DROP TABLE products",
		LabelColumn: "category",
		ValueColumn: "price",
		Aggregation: model.AggSum,
	}, Postgres, time.Second)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}
