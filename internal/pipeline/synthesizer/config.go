// internal/pipeline/synthesizer/config.go
package synthesizer

import "planiq/internal/common/config"

type Config struct {
	Temperature     float64
	MaxTokens       int
	DefaultRowLimit int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Temperature:     0.1,
		MaxTokens:       500,
		DefaultRowLimit: cfg.Pipeline.DefaultRowLimit,
	}
}
