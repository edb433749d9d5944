package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/neuroscope-selfcheck/internal/database"
	"github.com/neuroscope-selfcheck/internal/domain"
	"github.com/neuroscope-selfcheck/internal/securestore"
)

// startPostgres runs a throwaway PostgreSQL container and returns its URL.
func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	})

	url, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func TestDatabaseConnection(t *testing.T) {
	url := startPostgres(t)
	ctx := context.Background()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests

	db, err := database.NewConnection(ctx, domain.PostgresConfig{
		URL:             url,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	}, logger)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Health(ctx))
	assert.Greater(t, db.Stats().TotalConns(), int32(0))

	runner, err := database.NewMigrationRunner(url, logger)
	require.NoError(t, err)
	defer runner.Close()

	require.NoError(t, runner.Up(ctx))
	require.NoError(t, runner.Up(ctx), "second run has nothing to do")
	version, dirty, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, database.SchemaVersion, version)
	assert.False(t, dirty)

	values, err := securestore.NewPostgresBackend(db.SQL(), securestore.NamespaceValues)
	require.NoError(t, err)
	keys, err := securestore.NewPostgresBackend(db.SQL(), securestore.NamespaceKeys)
	require.NoError(t, err)

	store := securestore.NewStore(logger, values, keys, securestore.NewAESGCM(nil))
	require.NoError(t, store.Set(ctx, "psyche_state_v1", map[string]int{"idx": 3}))

	var out map[string]int
	ok, err := store.GetInto(ctx, "psyche_state_v1", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, out["idx"])
	assert.Equal(t, securestore.KeyStateDurable, store.KeyState())

	_, found, err := values.Get(ctx, securestore.MasterKeyID)
	require.NoError(t, err)
	assert.False(t, found, "key material lives in its own namespace")
}

func TestNewConnection_InvalidURL(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	_, err := database.NewConnection(context.Background(), domain.PostgresConfig{URL: "postgres://%zz"}, logger)
	assert.Error(t, err)
}
