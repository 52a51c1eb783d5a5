// internal/pipeline/expander/config.go
package expander

import (
	"time"

	"planiq/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// CategoryFanout bounds product siblings per expansion, MarketFanout
	// bounds location siblings.
	CategoryFanout int
	MarketFanout   int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:        config.GetDuration(cfg.Pipeline.ExpandTimeout),
		CategoryFanout: cfg.Pipeline.CategoryFanout,
		MarketFanout:   cfg.Pipeline.MarketFanout,
	}
}
