package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroscope-selfcheck/internal/domain"
)

func TestNewManager_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8787, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.NotEmpty(t, cfg.Storage.DataDir)
	assert.Equal(t, 5*time.Minute, cfg.Storage.Postgres.ConnMaxLifetime)
	assert.Equal(t, uint32(5), cfg.Storage.Breaker.ConsecutiveFailures)
	assert.Equal(t, 1000, cfg.Scoring.BootstrapResamples)
	assert.Equal(t, 0.95, cfg.Scoring.BootstrapLevel)
	assert.Equal(t, 1.0, cfg.Heuristics.SelfHarmThreshold)
	assert.Equal(t, 3, cfg.Heuristics.PsychosisBand)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, m.Validate())
	assert.Same(t, &cfg.Storage, m.GetStorageConfig())
	assert.Same(t, &cfg.Scoring, m.GetScoringConfig())
	assert.Same(t, &cfg.Server, m.GetServerConfig())
}

func TestNewManager_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NEUROSCOPE_STORAGE_DRIVER", "memory")
	t.Setenv("NEUROSCOPE_SERVER_PORT", "9090")
	t.Setenv("NEUROSCOPE_HEURISTICS_SELF_HARM_THRESHOLD", "2")
	t.Setenv("NEUROSCOPE_STORAGE_REDIS_PREFIX", "test:")

	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2.0, cfg.Heuristics.SelfHarmThreshold)
	assert.Equal(t, "test:", cfg.Storage.Redis.Prefix)
}

func TestNewManagerFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7000
storage:
  driver: postgres
  postgres:
    url: postgres://localhost/neuroscope?sslmode=disable
scoring:
  bootstrap_resamples: 250
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	m, err := NewManagerFromFile(path)
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/neuroscope?sslmode=disable", cfg.Storage.Postgres.URL)
	assert.Equal(t, 250, cfg.Scoring.BootstrapResamples)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, m.Validate())
}

func TestNewManagerFromFile_Missing(t *testing.T) {
	_, err := NewManagerFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func validConfig() *domain.Config {
	return &domain.Config{
		Server:     domain.ServerConfig{Port: 8787},
		Storage:    domain.StorageConfig{Driver: "sqlite", DataDir: "/tmp/neuroscope"},
		Scoring:    domain.ScoringConfig{BootstrapLevel: 0.95},
		Heuristics: domain.HeuristicsConfig{PsychosisBand: 3, PenaltyPerFlag: 0.1},
		RateLimit:  domain.RateLimitConfig{Enabled: true, RequestsPerSec: 10, Burst: 10},
		Logging:    domain.LoggingConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{"valid", func(*domain.Config) {}, ""},
		{"bad port", func(c *domain.Config) { c.Server.Port = 0 }, "invalid server port"},
		{"unknown driver", func(c *domain.Config) { c.Storage.Driver = "etcd" }, "invalid storage driver"},
		{"sqlite without dir", func(c *domain.Config) { c.Storage.DataDir = "" }, "data_dir"},
		{"postgres without url", func(c *domain.Config) { c.Storage.Driver = "postgres" }, "postgres url"},
		{"redis without url", func(c *domain.Config) { c.Storage.Driver = "redis" }, "redis url"},
		{"memory needs nothing", func(c *domain.Config) { c.Storage = domain.StorageConfig{Driver: "memory"} }, ""},
		{"bootstrap level", func(c *domain.Config) { c.Scoring.BootstrapLevel = 1 }, "bootstrap level"},
		{"psychosis band", func(c *domain.Config) { c.Heuristics.PsychosisBand = 5 }, "psychosis_band"},
		{"penalty", func(c *domain.Config) { c.Heuristics.PenaltyPerFlag = 2 }, "penalty_per_flag"},
		{"rate limit", func(c *domain.Config) { c.RateLimit.Burst = 0 }, "rate limit"},
		{"rate limit disabled", func(c *domain.Config) { c.RateLimit = domain.RateLimitConfig{} }, ""},
		{"log level", func(c *domain.Config) { c.Logging.Level = "verbose" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStoragePaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	cfg := domain.StorageConfig{DataDir: dir}

	assert.Equal(t, filepath.Join(dir, "values.db"), ValuesDBPath(cfg))
	assert.Equal(t, filepath.Join(dir, "keys.db"), KeysDBPath(cfg))

	require.NoError(t, EnsureDataDir(cfg))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDefaultDataDir(t *testing.T) {
	assert.NotEmpty(t, DefaultDataDir())
}
