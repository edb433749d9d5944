package securestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T, name string) *SQLiteBackend {
	t.Helper()
	backend, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "nested", name))
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestSQLiteBackend_CRUD(t *testing.T) {
	backend := newTestSQLite(t, "values.db")
	ctx := context.Background()

	_, found, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, backend.Set(ctx, "k", "one"))
	require.NoError(t, backend.Set(ctx, "k", "two"))

	v, found, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "two", v)

	require.NoError(t, backend.Delete(ctx, "k"))
	require.NoError(t, backend.Delete(ctx, "k"))
	_, found, err = backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteBackend_KeyStore(t *testing.T) {
	backend := newTestSQLite(t, "keys.db")
	ctx := context.Background()

	material := []byte{0, 1, 2, 255}
	require.NoError(t, backend.SaveKey(ctx, MasterKeyID, material))

	loaded, found, err := backend.LoadKey(ctx, MasterKeyID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, material, loaded)
}

func TestSQLiteBackend_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	values, err := NewSQLiteBackend(filepath.Join(dir, "values.db"))
	require.NoError(t, err)
	keys, err := NewSQLiteBackend(filepath.Join(dir, "keys.db"))
	require.NoError(t, err)

	store := NewStore(testLogger(), values, keys, NewAESGCM(nil))
	require.NoError(t, store.Set(ctx, "psyche_state_v1", map[string]int{"idx": 7}))
	require.NoError(t, values.Close())
	require.NoError(t, keys.Close())

	values, err = NewSQLiteBackend(filepath.Join(dir, "values.db"))
	require.NoError(t, err)
	defer values.Close()
	keys, err = NewSQLiteBackend(filepath.Join(dir, "keys.db"))
	require.NoError(t, err)
	defer keys.Close()

	reopened := NewStore(testLogger(), values, keys, NewAESGCM(nil))
	var out map[string]int
	ok, err := reopened.GetInto(ctx, "psyche_state_v1", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, out["idx"])
	assert.Equal(t, KeyStateDurable, reopened.KeyState())
	assert.Equal(t, filepath.Join(dir, "values.db"), values.Path())
}
