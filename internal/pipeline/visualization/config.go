// internal/pipeline/visualization/config.go
package visualization

type Config struct {
	Temperature float64
	MaxTokens   int
	// MaxChartRows bounds the chartability check; larger results stay tabular.
	MaxChartRows int
	// MaxFallbackRows caps the deterministic fallback chart.
	MaxFallbackRows int
}

func LoadConfig() *Config {
	return &Config{
		Temperature:     0.2,
		MaxTokens:       3000,
		MaxChartRows:    100,
		MaxFallbackRows: 30,
	}
}
