package securestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/neuroscope-selfcheck/internal/config"
	"github.com/neuroscope-selfcheck/internal/database"
	"github.com/neuroscope-selfcheck/internal/domain"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Backends is the value backend and key store selected by configuration.
type Backends struct {
	Values  ValueBackend
	Keys    KeyStore
	Driver  string
	closers []io.Closer
}

// Close releases every underlying connection.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenBackends builds the backends for cfg.Driver.
//
// sqlite keeps values and keys in two files under the data directory. postgres keeps
// both in one migrated table split by namespace. redis keeps values remotely and the master key
// in the local keys database. Remote backends are wrapped in a circuit breaker.
func OpenBackends(ctx context.Context, logger *logrus.Logger, cfg domain.StorageConfig) (*Backends, error) {
	b := &Backends{Driver: cfg.Driver}

	switch cfg.Driver {
	case DriverMemory:
		b.Values = NewMemoryBackend()
		b.Keys = NewMemoryBackend()

	case DriverSQLite, "":
		b.Driver = DriverSQLite
		if err := config.EnsureDataDir(cfg); err != nil {
			return nil, err
		}
		values, err := NewSQLiteBackend(config.ValuesDBPath(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to open values database: %w", err)
		}
		b.closers = append(b.closers, values)
		keys, err := NewSQLiteBackend(config.KeysDBPath(cfg))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to open keys database: %w", err)
		}
		b.closers = append(b.closers, keys)
		b.Values, b.Keys = values, keys

	case DriverPostgres:
		db, err := database.NewConnection(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db)
		if err := database.Migrate(ctx, cfg.Postgres.URL, logger); err != nil {
			b.Close()
			return nil, err
		}
		values, err := NewPostgresBackend(db.SQL(), NamespaceValues)
		if err != nil {
			b.Close()
			return nil, err
		}
		keys, err := NewPostgresBackend(db.SQL(), NamespaceKeys)
		if err != nil {
			b.Close()
			return nil, err
		}
		guarded := NewBreakerBackend(logger, "postgres", cfg.Breaker, values, keys)
		b.Values, b.Keys = guarded, guarded

	case DriverRedis:
		if err := config.EnsureDataDir(cfg); err != nil {
			return nil, err
		}
		values, err := NewRedisBackend(cfg.Redis)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, values)
		keys, err := NewSQLiteBackend(config.KeysDBPath(cfg))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to open keys database: %w", err)
		}
		b.closers = append(b.closers, keys)
		b.Values = NewBreakerBackend(logger, "redis", cfg.Breaker, values, nil)
		b.Keys = keys

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}

	logger.WithField("driver", b.Driver).Info("Opened storage backends")
	return b, nil
}
