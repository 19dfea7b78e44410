package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizor-ai/vizor/internal/model"
)

func row(columns []string, values ...any) model.Row {
	return model.Row{Columns: columns, Values: values}
}

func TestNormalize_CategoryTotals(t *testing.T) {
	cols := []string{"label", "value"}
	answer := Normalize("sales by category", model.ChartBar, []model.Row{
		row(cols, "Electronics", 4049.96),
		row(cols, "Clothing", 299.97),
	})

	assert.Equal(t, "sales by category", answer.Question)
	assert.Equal(t, model.ChartBar, answer.ChartType)
	assert.Equal(t, []string{"Electronics", "Clothing"}, answer.Data.Labels)
	require.Len(t, answer.Data.Datasets, 1)
	assert.Equal(t, "Value", answer.Data.Datasets[0].Label)
	assert.Equal(t, []float64{4049.96, 299.97}, answer.Data.Datasets[0].Data)
}

func TestNormalize_EmptyRows(t *testing.T) {
	answer := Normalize("anything", model.ChartPie, nil)
	assert.NotNil(t, answer.Data.Labels)
	assert.NotNil(t, answer.Data.Datasets)
	assert.Empty(t, answer.Data.Labels)
	assert.Empty(t, answer.Data.Datasets)
}

func TestNormalize_MultipleSeries(t *testing.T) {
	cols := []string{"category", "total_amount", "quantity"}
	answer := Normalize("q", model.ChartLine, []model.Row{
		row(cols, "Food", 100.5, int64(7)),
		row(cols, "Home", 250.0, int64(3)),
	})

	require.Len(t, answer.Data.Datasets, 2)
	assert.Equal(t, "Total Amount", answer.Data.Datasets[0].Label)
	assert.Equal(t, "Quantity", answer.Data.Datasets[1].Label)
	assert.Equal(t, []float64{100.5, 250.0}, answer.Data.Datasets[0].Data)
	assert.Equal(t, []float64{7, 3}, answer.Data.Datasets[1].Data)
}

func TestNormalize_LabelCoercion(t *testing.T) {
	cols := []string{"label", "value"}
	day := time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC)
	answer := Normalize("q", model.ChartLine, []model.Row{
		row(cols, day, 1),
		row(cols, 42.5, 2),
		row(cols, nil, 3),
		row(cols, int64(7), 4),
	})

	assert.Equal(t, []string{"2025-03-09", "42.5", "", "7"}, answer.Data.Labels)
}

func TestNormalize_NonNumericSeriesCoercesToZero(t *testing.T) {
	cols := []string{"label", "value"}
	answer := Normalize("q", model.ChartBar, []model.Row{
		row(cols, "a", "12.5"),
		row(cols, "b", "not a number"),
		row(cols, "c", nil),
	})

	require.Len(t, answer.Data.Datasets, 1)
	assert.Equal(t, []float64{12.5, 0, 0}, answer.Data.Datasets[0].Data)
}

func TestNormalize_RaggedRow(t *testing.T) {
	// A row shorter than the column list pads its series with zero instead of
	// panicking.
	answer := Normalize("q", model.ChartBar, []model.Row{
		{Columns: []string{"label", "value"}, Values: []any{"only-label"}},
	})
	require.Len(t, answer.Data.Datasets, 1)
	assert.Equal(t, []float64{0}, answer.Data.Datasets[0].Data)
}
