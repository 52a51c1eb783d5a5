// internal/pipeline/intent/config.go
package intent

type Config struct {
	Temperature float64
	MaxTokens   int
}

func LoadConfig() *Config {
	return &Config{
		Temperature: 0.1,
		MaxTokens:   10,
	}
}
