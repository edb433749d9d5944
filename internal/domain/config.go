package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Heuristics HeuristicsConfig `mapstructure:"heuristics"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// StorageConfig selects and configures the persistence backends
type StorageConfig struct {
	Driver   string         `mapstructure:"driver"` // sqlite, postgres, redis, memory
	DataDir  string         `mapstructure:"data_dir"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
}

// PostgresConfig represents the shared-deployment database
type PostgresConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig represents the Redis value backend
type RedisConfig struct {
	URL         string        `mapstructure:"url"`
	Prefix      string        `mapstructure:"prefix"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// BreakerConfig configures the circuit breaker around remote backends
type BreakerConfig struct {
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
}

// ScoringConfig points at optional norm and calibration files
type ScoringConfig struct {
	NormsPath          string  `mapstructure:"norms_path"`
	WeightsPath        string  `mapstructure:"weights_path"`
	BootstrapResamples int     `mapstructure:"bootstrap_resamples"`
	BootstrapLevel     float64 `mapstructure:"bootstrap_level"`
	BootstrapSeed      int64   `mapstructure:"bootstrap_seed"`
}

// HeuristicsConfig holds thresholds of the rule engine
type HeuristicsConfig struct {
	SelfHarmThreshold float64 `mapstructure:"self_harm_threshold"`
	PsychosisBand     int     `mapstructure:"psychosis_band"`
	PenaltyPerFlag    float64 `mapstructure:"penalty_per_flag"`
}

// RateLimitConfig represents per-client request limits
type RateLimitConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
	Burst          int     `mapstructure:"burst"`
	MaxClients     int     `mapstructure:"max_clients"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
