package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment    string               `mapstructure:"environment"`
	Server         ServerConfig         `mapstructure:"server"`
	API            APIConfig            `mapstructure:"api"`
	NLP            NLPConfig            `mapstructure:"nlp"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Cache          CacheConfig          `mapstructure:"cache"`
	History        HistoryConfig        `mapstructure:"history"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	MCP            MCPConfig            `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	HSTS            bool          `mapstructure:"hsts"`
}

// APIConfig holds presentation-layer gates applied before the core is called.
type APIConfig struct {
	MinInputLength      int           `mapstructure:"min_input_length"`
	MaxInputLength      int           `mapstructure:"max_input_length"`
	DefaultHistoryLimit int           `mapstructure:"default_history_limit"`
	CORSAllowedOrigins  []string      `mapstructure:"cors_allowed_origins"`
	WebSocketReadLimit  int64         `mapstructure:"websocket_read_limit"`
	WebSocketPongWait   time.Duration `mapstructure:"websocket_pong_wait"`
}

// NLPConfig configures the extraction stage.
type NLPConfig struct {
	EntityBackend BackendConfig `mapstructure:"entity_backend"`
}

// RecommendationConfig configures plan generation.
type RecommendationConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ChatBackend BackendConfig `mapstructure:"chat_backend"`
}

// BackendConfig describes one optional model backend. An empty BaseURL or
// Enabled=false means the backend is not configured.
type BackendConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	RateLimit       int           `mapstructure:"rate_limit"` // requests per second
	Burst           int           `mapstructure:"burst"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
	BreakerInterval time.Duration `mapstructure:"breaker_interval"`
	Temperature     float64       `mapstructure:"temperature"`
	TopP            float64       `mapstructure:"top_p"`
	TopK            int           `mapstructure:"top_k"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	DefaultScore    float64       `mapstructure:"default_score"`
}

// Configured reports whether the backend should be probed at all.
func (b BackendConfig) Configured() bool {
	return b.Enabled && b.BaseURL != ""
}

// CacheConfig represents response cache configuration
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MemorySize  int           `mapstructure:"memory_size"`
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// HistoryConfig selects and bounds the assessment history store.
type HistoryConfig struct {
	Driver     string `mapstructure:"driver"` // memory, sqlite, postgres
	MaxEntries int    `mapstructure:"max_entries"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName     string        `mapstructure:"server_name"`
	ServerVersion  string        `mapstructure:"server_version"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}
