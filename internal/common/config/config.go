// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	APIs     APIsConfig     `mapstructure:"apis"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Session  SessionConfig  `mapstructure:"session"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Graph         GraphConfig         `mapstructure:"graph"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility

	// Per-category similarity index names.
	Indexes IndexConfig `mapstructure:"indexes"`
}

// IndexConfig maps entity categories to their similarity-search indexes.
type IndexConfig struct {
	Products  string `mapstructure:"products"`
	Locations string `mapstructure:"locations"`
	Events    string `mapstructure:"events"`
	Calendar  string `mapstructure:"calendar"`
	Metadata  string `mapstructure:"metadata"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GraphConfig points at a Gremlin Server HTTP endpoint.
type GraphConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"genai"`
}

// PipelineConfig carries per-stage tuning. Timeouts are milliseconds; a
// timed-out degradable stage yields an empty result instead of failing the
// request.
type PipelineConfig struct {
	ResolveTimeout  int `mapstructure:"resolve_timeout"`
	ExpandTimeout   int `mapstructure:"expand_timeout"`
	QueryTimeout    int `mapstructure:"query_timeout"`
	CacheTTL        int `mapstructure:"cache_ttl"`
	DefaultRowLimit int `mapstructure:"default_row_limit"`
	ProductTopK     int `mapstructure:"product_top_k"`
	LocationTopK    int `mapstructure:"location_top_k"`
	EventTopK       int `mapstructure:"event_top_k"`
	CalendarTopK    int `mapstructure:"calendar_top_k"`
	CategoryFanout  int `mapstructure:"category_fanout"`
	MarketFanout    int `mapstructure:"market_fanout"`
}

// SessionConfig tunes the Redis-backed conversation history.
type SessionConfig struct {
	TTL      int `mapstructure:"ttl"`       // seconds
	MaxTurns int `mapstructure:"max_turns"` // history entries kept per session
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
