// internal/models/chart.go
package models

// Chart types understood by the frontend chart component.
const (
	ChartTypeColumn = "ColumnChart"
	ChartTypeBar    = "BarChart"
	ChartTypeLine   = "LineChart"
	ChartTypePie    = "PieChart"
	ChartTypeGeo    = "GeoChart"
	ChartTypeTable  = "Table"
	ChartTypeAuto   = "auto"
)

// ChartConfig is a renderable chart: a type, a 2D data array whose first row
// is the header, and display options. Valid configs have at least a header
// row plus one data row, and numeric cells outside the label column.
type ChartConfig struct {
	ChartType string                 `json:"chartType"`
	Data      [][]interface{}        `json:"data"`
	Options   map[string]interface{} `json:"options,omitempty"`
}

// Visualization is the chart slot on the final response.
type Visualization struct {
	Ready bool         `json:"ready"`
	Chart *ChartConfig `json:"chart,omitempty"`
	Error string       `json:"error,omitempty"`
}
