// internal/pipeline/response/config.go
package response

type Config struct {
	Temperature float64
	MaxTokens   int
	// FullDataThreshold is the row count up to which the whole result set
	// goes into the synthesis context; above it only SampleRows go in.
	FullDataThreshold int
	SampleRows        int
}

func LoadConfig() *Config {
	return &Config{
		Temperature:       0.2,
		MaxTokens:         1200,
		FullDataThreshold: 50,
		SampleRows:        15,
	}
}
