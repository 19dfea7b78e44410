package model

// Dataset is one value series of a chart, Chart.js style.
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// ChartData is the normalized label/series structure handed to the
// rendering layer. Labels and Datasets are never nil so empty results
// marshal as [] rather than null.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// EmptyChartData returns a ChartData with empty, non-nil slices.
func EmptyChartData() ChartData {
	return ChartData{Labels: []string{}, Datasets: []Dataset{}}
}

// Answer is the terminal artifact of one question: either a chart payload
// (ChartType and Data set) or a plain-text answer (Message set).
type Answer struct {
	Question  string    `json:"question"`
	ChartType ChartType `json:"chart_type,omitempty"`
	SQL       string    `json:"sql,omitempty"`
	Message   string    `json:"message,omitempty"`
	Data      ChartData `json:"data"`
}
