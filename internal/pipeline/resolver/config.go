// internal/pipeline/resolver/config.go
package resolver

import (
	"time"

	"planiq/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	ProductTopK  int
	LocationTopK int
	EventTopK    int
	CalendarTopK int
	MetadataTopK int
	Indexes      config.IndexConfig
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:      config.GetDuration(cfg.Pipeline.ResolveTimeout),
		ProductTopK:  cfg.Pipeline.ProductTopK,
		LocationTopK: cfg.Pipeline.LocationTopK,
		EventTopK:    cfg.Pipeline.EventTopK,
		CalendarTopK: cfg.Pipeline.CalendarTopK,
		MetadataTopK: 3,
		Indexes:      cfg.Database.Elasticsearch.Indexes,
	}
}
