// Package chart normalizes heterogeneous result rows into the uniform
// label/series payload the rendering layer consumes.
package chart

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vizor-ai/vizor/internal/model"
)

// Normalize maps rows into a chart payload. The first column is always the
// label axis regardless of its name; every remaining column becomes one
// numeric dataset. Non-numeric series values coerce to 0 — lossy on purpose,
// not an error. Empty rows produce empty labels/datasets. The chart type is
// passed through untouched.
func Normalize(question string, chartType model.ChartType, rows []model.Row) model.Answer {
	answer := model.Answer{
		Question:  question,
		ChartType: chartType,
		Data:      model.EmptyChartData(),
	}
	if len(rows) == 0 {
		return answer
	}

	columns := rows[0].Columns
	if len(columns) == 0 {
		return answer
	}

	for _, row := range rows {
		answer.Data.Labels = append(answer.Data.Labels, labelString(row.Values[0]))
	}

	for col := 1; col < len(columns); col++ {
		ds := model.Dataset{
			Label: datasetLabel(columns[col]),
			Data:  make([]float64, 0, len(rows)),
		}
		for _, row := range rows {
			var v any
			if col < len(row.Values) {
				v = row.Values[col]
			}
			ds.Data = append(ds.Data, toFloat(v))
		}
		answer.Data.Datasets = append(answer.Data.Datasets, ds)
	}
	return answer
}

func labelString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
		return 0
	case fmt.Stringer:
		// Covers driver decimal types (e.g. pgtype.Numeric rendered as text).
		if f, err := strconv.ParseFloat(x.String(), 64); err == nil {
			return f
		}
		return 0
	default:
		return 0
	}
}

// datasetLabel turns a column name into a display label: underscores become
// spaces and each word is capitalized ("total_amount" -> "Total Amount").
func datasetLabel(column string) string {
	words := strings.Split(strings.ReplaceAll(column, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
