// internal/pipeline/visualization/schema.go
package visualization

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"planiq/internal/models"
)

// chartConfigSchema is the contract a generated chart must satisfy before
// the frontend ever sees it: a chart type, a 2D data array with a header
// row plus at least one data row, and string headers.
const chartConfigSchema = `{
  "type": "object",
  "required": ["chartType", "data"],
  "properties": {
    "chartType": {
      "type": "string",
      "enum": ["ColumnChart", "BarChart", "LineChart", "PieChart", "GeoChart", "AreaChart", "ScatterChart", "Table"]
    },
    "data": {
      "type": "array",
      "minItems": 2,
      "items": {
        "type": "array",
        "minItems": 1
      }
    },
    "options": {
      "type": "object"
    }
  }
}`

var compiledChartSchema = gojsonschema.NewStringLoader(chartConfigSchema)

// validateChartConfig checks the raw completion output against the schema
// and the structural rules the schema cannot express.
func validateChartConfig(raw []byte, config *models.ChartConfig) error {
	result, err := gojsonschema.Validate(compiledChartSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("chart config rejected: %s", result.Errors()[0].String())
	}

	for _, cell := range config.Data[0] {
		if _, ok := cell.(string); !ok {
			return fmt.Errorf("header row must contain only strings")
		}
	}
	return nil
}
