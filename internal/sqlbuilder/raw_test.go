package sqlbuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizor-ai/vizor/internal/apperr"
	"github.com/vizor-ai/vizor/internal/model"
)

func buildRaw(t *testing.T, sql string) (Statement, error) {
	t.Helper()
	return BuildRaw(model.RawQueryArgs{SQL: sql, ChartType: model.ChartBar}, time.Second)
}

func TestBuildRaw_Accepts(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantSQL string
	}{
		{
			"plain select gains a limit",
			"SELECT category, SUM(price) FROM products GROUP BY category",
			"SELECT category, SUM(price) FROM products GROUP BY category LIMIT 1000",
		},
		{
			"trailing semicolon is stripped",
			"SELECT name FROM products;",
			"SELECT name FROM products LIMIT 1000",
		},
		{
			"existing small limit is kept",
			"SELECT name FROM products LIMIT 5",
			"SELECT name FROM products LIMIT 5",
		},
		{
			"oversized limit is clamped",
			"SELECT name FROM products LIMIT 99999",
			"SELECT name FROM products LIMIT 1000",
		},
		{
			"keyword as identifier substring passes",
			"SELECT update_count, created_at FROM products",
			"SELECT update_count, created_at FROM products LIMIT 1000",
		},
		{
			"lowercase select",
			"select name from products",
			"select name from products LIMIT 1000",
		},
		{
			"select with parenthesis boundary",
			"SELECT(1)",
			"SELECT(1) LIMIT 1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := buildRaw(t, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, stmt.SQL)
			assert.Equal(t, MaxRows, stmt.MaxRows)
		})
	}
}

func TestBuildRaw_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantMsg string
	}{
		{"empty", "   ", "empty query"},
		{"drop", "DROP TABLE sales", `blocked keyword "DROP"`},
		{"lowercase delete", "delete from sales", `blocked keyword "DELETE"`},
		{"piggybacked statement", "SELECT * FROM sales; DROP TABLE sales;", `blocked keyword "DROP"`},
		{"stacked selects", "SELECT 1; SELECT 2", "multiple statements"},
		{"line comment", "SELECT name FROM products -- hide", "comments are not allowed"},
		{"block comment", "SELECT name /* x */ FROM products", "comments are not allowed"},
		{"union", "SELECT name FROM products UNION SELECT sql FROM sqlite_master", "UNION is not allowed"},
		{"not a select", "EXPLAIN SELECT 1", "only SELECT"},
		{"selectx prefix", "SELECTX FROM products", "only SELECT"},
		{"bare keyword", "SELECT", "only SELECT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildRaw(t, tt.in)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindUnsafeQuery), "kind = %v", apperr.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestBuildRaw_KeywordCheckedBeforeSeparator(t *testing.T) {
	// Order matters: the keyword scan runs before the separator check, so a
	// piggybacked DDL statement reports the keyword, not the semicolon.
	_, err := buildRaw(t, "SELECT 1; TRUNCATE sales")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUNCATE")
}

func TestBuildRaw_SubqueryLimitsClamped(t *testing.T) {
	stmt, err := buildRaw(t,
		"SELECT name FROM (SELECT name FROM products LIMIT 5000) sub LIMIT 2000")
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT name FROM (SELECT name FROM products LIMIT 1000) sub LIMIT 1000",
		stmt.SQL)
}
