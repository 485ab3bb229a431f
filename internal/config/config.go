package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/symptom-intake-server/internal/domain"
)

// EnvPrefix is prepended to every environment override, e.g.
// SYMPTOM_INTAKE_SERVER_PORT or SYMPTOM_INTAKE_NLP_ENTITY_BACKEND_BASE_URL.
const EnvPrefix = "SYMPTOM_INTAKE"

// Manager loads and validates configuration using Viper
type Manager struct {
	configPaths []string
	config      *domain.Config
}

// NewManager creates a new configuration manager. When no paths are given the
// config file is searched in ".", "./config" and "/etc/symptom-intake/".
func NewManager(configPaths ...string) (*Manager, error) {
	if len(configPaths) == 0 {
		configPaths = []string{".", "./config", "/etc/symptom-intake/"}
	}
	m := &Manager{configPaths: configPaths}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range m.configPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; defaults and environment variables suffice.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	m.applyEnvironment()
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.hsts", false)

	// Presentation gates
	v.SetDefault("api.min_input_length", 10)
	v.SetDefault("api.max_input_length", 5000)
	v.SetDefault("api.default_history_limit", 3)
	v.SetDefault("api.cors_allowed_origins", []string{"*"})
	v.SetDefault("api.websocket_read_limit", 64*1024)
	v.SetDefault("api.websocket_pong_wait", "60s")

	// Entity/concept backend
	v.SetDefault("nlp.entity_backend.enabled", false)
	v.SetDefault("nlp.entity_backend.base_url", "http://localhost:8500")
	v.SetDefault("nlp.entity_backend.model", "en_core_sci_sm")
	v.SetDefault("nlp.entity_backend.timeout", "5s")
	v.SetDefault("nlp.entity_backend.probe_timeout", "2s")
	v.SetDefault("nlp.entity_backend.rate_limit", 20)
	v.SetDefault("nlp.entity_backend.burst", 5)
	v.SetDefault("nlp.entity_backend.breaker_failures", 5)
	v.SetDefault("nlp.entity_backend.breaker_timeout", "30s")
	v.SetDefault("nlp.entity_backend.breaker_interval", "60s")
	v.SetDefault("nlp.entity_backend.default_score", 0.8)

	// Chat-completion backend
	v.SetDefault("recommendation.enabled", true)
	v.SetDefault("recommendation.chat_backend.enabled", false)
	v.SetDefault("recommendation.chat_backend.base_url", "http://localhost:11434")
	v.SetDefault("recommendation.chat_backend.model", "mistral:7b")
	v.SetDefault("recommendation.chat_backend.timeout", "60s")
	v.SetDefault("recommendation.chat_backend.probe_timeout", "5s")
	v.SetDefault("recommendation.chat_backend.rate_limit", 2)
	v.SetDefault("recommendation.chat_backend.burst", 2)
	v.SetDefault("recommendation.chat_backend.breaker_failures", 3)
	v.SetDefault("recommendation.chat_backend.breaker_timeout", "60s")
	v.SetDefault("recommendation.chat_backend.breaker_interval", "120s")
	v.SetDefault("recommendation.chat_backend.temperature", 0.3)
	v.SetDefault("recommendation.chat_backend.top_p", 0.9)
	v.SetDefault("recommendation.chat_backend.top_k", 40)
	v.SetDefault("recommendation.chat_backend.max_output_tokens", 600)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.memory_size", 1000)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.default_ttl", "1h")
	v.SetDefault("cache.key_prefix", "symptom-intake:")
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")

	// History defaults
	v.SetDefault("history.driver", "memory")
	v.SetDefault("history.max_entries", 100)
	v.SetDefault("history.sqlite_path", filepath.Join(DefaultDataDir(), "history.db"))

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "symptom_intake")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")
	v.SetDefault("database.auto_migrate", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.filename", "")

	// MCP defaults
	v.SetDefault("mcp.server_name", "symptom-intake-server")
	v.SetDefault("mcp.server_version", "1.0.0")
	v.SetDefault("mcp.request_timeout", "90s")
}

// DefaultDataDir returns the per-user directory for local data files.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return filepath.Join(os.TempDir(), "symptom-intake")
	}
	return filepath.Join(homeDir, ".symptom-intake")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.API.MinInputLength < 0 {
		return fmt.Errorf("api.min_input_length must not be negative: %d", config.API.MinInputLength)
	}
	if config.API.MaxInputLength > 0 && config.API.MaxInputLength < config.API.MinInputLength {
		return fmt.Errorf("api.max_input_length (%d) is below api.min_input_length (%d)",
			config.API.MaxInputLength, config.API.MinInputLength)
	}

	for name, backend := range map[string]domain.BackendConfig{
		"nlp.entity_backend":          config.NLP.EntityBackend,
		"recommendation.chat_backend": config.Recommendation.ChatBackend,
	} {
		if !backend.Enabled {
			continue
		}
		if backend.BaseURL == "" {
			return fmt.Errorf("%s is enabled but base_url is empty", name)
		}
		if backend.Timeout <= 0 {
			return fmt.Errorf("%s timeout must be positive", name)
		}
	}

	if config.Recommendation.ChatBackend.Enabled && config.Recommendation.ChatBackend.Model == "" {
		return fmt.Errorf("recommendation.chat_backend.model is required when the chat backend is enabled")
	}

	// An empty driver selects the in-memory store.
	switch strings.ToLower(config.History.Driver) {
	case "", "memory":
	case "sqlite":
		if config.History.SQLitePath == "" {
			return fmt.Errorf("history.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	default:
		return fmt.Errorf("unsupported history driver: %s", config.History.Driver)
	}
	if config.History.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be positive: %d", config.History.MaxEntries)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// applyEnvironment pins the settings production requires: gin release mode
// and HSTS.
func (m *Manager) applyEnvironment() {
	if !m.IsProduction() {
		return
	}
	m.config.Server.Mode = "release"
	m.config.Server.HSTS = true
}
