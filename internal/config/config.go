package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/neuroscope-selfcheck/internal/domain"
)

// EnvPrefix is the prefix of every environment override, e.g. NEUROSCOPE_STORAGE_DRIVER.
const EnvPrefix = "NEUROSCOPE"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v      *viper.Viper
	file   string
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	return NewManagerFromFile("")
}

// NewManagerFromFile loads the given config file instead of searching the default paths.
func NewManagerFromFile(path string) (*Manager, error) {
	m := &Manager{file: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.file != "" {
		v.SetConfigFile(m.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/neuroscope/")
	}

	// Set environment variable prefix and enable automatic env binding
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || m.file != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values. Every key needs a default so that
// AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8787)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.data_dir", DefaultDataDir())
	v.SetDefault("storage.postgres.url", "")
	v.SetDefault("storage.postgres.max_open_conns", 25)
	v.SetDefault("storage.postgres.max_idle_conns", 5)
	v.SetDefault("storage.postgres.conn_max_lifetime", "5m")
	v.SetDefault("storage.redis.url", "redis://localhost:6379")
	v.SetDefault("storage.redis.prefix", "neuroscope:")
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.pool_timeout", "4s")
	v.SetDefault("storage.redis.max_retries", 3)
	v.SetDefault("storage.breaker.max_requests", 3)
	v.SetDefault("storage.breaker.interval", "30s")
	v.SetDefault("storage.breaker.timeout", "60s")
	v.SetDefault("storage.breaker.consecutive_failures", 5)

	// Scoring defaults
	v.SetDefault("scoring.norms_path", "data/norms/cutoffs.json")
	v.SetDefault("scoring.weights_path", "data/weights.json")
	v.SetDefault("scoring.bootstrap_resamples", 1000)
	v.SetDefault("scoring.bootstrap_level", 0.95)
	v.SetDefault("scoring.bootstrap_seed", 1)

	// Heuristics defaults
	v.SetDefault("heuristics.self_harm_threshold", 1)
	v.SetDefault("heuristics.psychosis_band", 3)
	v.SetDefault("heuristics.penalty_per_flag", 0.1)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_sec", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.max_clients", 1024)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetStorageConfig returns storage configuration
func (m *Manager) GetStorageConfig() *domain.StorageConfig {
	return &m.config.Storage
}

// GetScoringConfig returns scoring configuration
func (m *Manager) GetScoringConfig() *domain.ScoringConfig {
	return &m.config.Scoring
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	return Validate(m.config)
}

// Validate checks a configuration for values the server cannot run with.
func Validate(config *domain.Config) error {
	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate storage configuration
	switch config.Storage.Driver {
	case "memory":
	case "sqlite":
		if config.Storage.DataDir == "" {
			return fmt.Errorf("storage data_dir is required for the sqlite driver")
		}
	case "postgres":
		if config.Storage.Postgres.URL == "" {
			return fmt.Errorf("storage postgres url is required for the postgres driver")
		}
	case "redis":
		if config.Storage.Redis.URL == "" {
			return fmt.Errorf("storage redis url is required for the redis driver")
		}
		if config.Storage.DataDir == "" {
			return fmt.Errorf("storage data_dir is required to keep the master key locally")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s", config.Storage.Driver)
	}

	// Validate scoring configuration
	if config.Scoring.BootstrapLevel <= 0 || config.Scoring.BootstrapLevel >= 1 {
		return fmt.Errorf("bootstrap level must be in (0,1): %v", config.Scoring.BootstrapLevel)
	}

	// Validate heuristics configuration
	if err := domain.ValidateBand(domain.Band(config.Heuristics.PsychosisBand)); err != nil {
		return fmt.Errorf("heuristics psychosis_band: %w", err)
	}
	if config.Heuristics.PenaltyPerFlag < 0 || config.Heuristics.PenaltyPerFlag > 1 {
		return fmt.Errorf("heuristics penalty_per_flag must be in [0,1]: %v", config.Heuristics.PenaltyPerFlag)
	}

	// Validate rate limit configuration
	if config.RateLimit.Enabled && (config.RateLimit.RequestsPerSec <= 0 || config.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit requires positive requests_per_sec and burst")
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.v.GetString("environment")) == "production"
}
