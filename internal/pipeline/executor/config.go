// internal/pipeline/executor/config.go
package executor

import (
	"time"

	"planiq/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// CacheTTL of zero disables the result cache.
	CacheTTL time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:  config.GetDuration(cfg.Pipeline.QueryTimeout),
		CacheTTL: config.GetDuration(cfg.Pipeline.CacheTTL),
	}
}
