package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroscope-selfcheck/internal/domain"
	"github.com/neuroscope-selfcheck/internal/securestore"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing
	return logger
}

func newTestManager(t *testing.T) (*Manager, *securestore.MemoryBackend, *securestore.Store) {
	t.Helper()
	values := securestore.NewMemoryBackend()
	store := securestore.NewStore(testLogger(), values, securestore.NewMemoryBackend(), securestore.NewAESGCM(nil))
	return NewManager(testLogger(), store, 10*time.Millisecond), values, store
}

// recordingStore counts writes and can fail removals.
type recordingStore struct {
	Store
	mu        sync.Mutex
	sets      []State
	removeErr error
	removed   []string
}

func (r *recordingStore) Set(ctx context.Context, key string, value any) error {
	r.mu.Lock()
	r.sets = append(r.sets, value.(State))
	r.mu.Unlock()
	return r.Store.Set(ctx, key, value)
}

func (r *recordingStore) Remove(ctx context.Context, key string) error {
	r.mu.Lock()
	r.removed = append(r.removed, key)
	r.mu.Unlock()
	if r.removeErr != nil {
		return r.removeErr
	}
	return r.Store.Remove(ctx, key)
}

func (r *recordingStore) writes() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.sets...)
}

func TestManager_RestoreEmpty(t *testing.T) {
	m, _, _ := newTestManager(t)

	st, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, st.HasProgress())
	assert.NotNil(t, st.Answers)
}

func TestManager_SaveRestore(t *testing.T) {
	m, values, _ := newTestManager(t)
	ctx := context.Background()

	st := NewState()
	st.Started = true
	st.Idx = 4
	st.SetAnswer("m_down", 1)
	st.SetMedications([]domain.MedicationEntry{{Name: "Quetiapin"}})
	require.NoError(t, m.Save(ctx, st))

	raw, found, err := values.Get(ctx, StateKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, securestore.IsEnvelope(raw))

	restored, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, st, restored)
}

func TestManager_RestoreMigratesLegacyPlaintext(t *testing.T) {
	m, values, _ := newTestManager(t)
	ctx := context.Background()

	legacy := `{"started":true,"idx":2,"answers":{"m_down":3,"meds_list":[{"name":"Lithium"}]}}`
	require.NoError(t, values.Set(ctx, LegacyStateKey, legacy))

	st, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, st.Started)
	assert.Equal(t, 2, st.Idx)
	v, _ := st.Answers.Numeric("m_down")
	assert.Equal(t, 3.0, v)
	require.Len(t, st.Medications, 1)
	assert.Equal(t, "Lithium", st.Medications[0].Name)

	_, found, _ := values.Get(ctx, LegacyStateKey)
	assert.False(t, found)

	again, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, st, again)
}

func TestManager_RestoreUnavailable(t *testing.T) {
	values := securestore.NewMemoryBackend()
	store := securestore.NewStore(testLogger(), values, securestore.NewMemoryBackend(), nil)
	m := NewManager(testLogger(), store, 0)

	legacy := `{"started":true}`
	require.NoError(t, values.Set(context.Background(), LegacyStateKey, legacy))

	st, err := m.Restore(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.False(t, st.HasProgress())

	raw, found, _ := values.Get(context.Background(), LegacyStateKey)
	assert.True(t, found, "plaintext is kept when it cannot be encrypted")
	assert.Equal(t, legacy, raw)
}

func TestManager_RestoreAfterTamper(t *testing.T) {
	m, values, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, values.Set(ctx, StateKey, securestore.Seal(make([]byte, 12), []byte("garbage")).String()))

	st, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, st.HasProgress())
	_, found, _ := values.Get(ctx, StateKey)
	assert.False(t, found)
}

func TestManager_SaveAsyncCoalesces(t *testing.T) {
	_, _, store := newTestManager(t)
	rec := &recordingStore{Store: store}
	m := NewManager(testLogger(), rec, 20*time.Millisecond)

	st := NewState()
	for i := 0; i < 5; i++ {
		st.SetAnswer("m_down", float64(i))
		m.SaveAsync(st)
	}

	assert.Eventually(t, func() bool { return len(rec.writes()) == 1 }, time.Second, 5*time.Millisecond)
	m.Wait()

	writes := rec.writes()
	require.Len(t, writes, 1)
	v, _ := writes[0].Answers.Numeric("m_down")
	assert.Equal(t, 4.0, v, "only the latest snapshot is written")
}

func TestManager_SaveAsyncSkipsEmptyState(t *testing.T) {
	_, _, store := newTestManager(t)
	rec := &recordingStore{Store: store}
	m := NewManager(testLogger(), rec, time.Millisecond)

	m.SaveAsync(NewState())
	m.Wait()
	time.Sleep(5 * time.Millisecond)

	assert.Empty(t, rec.writes())
}

func TestManager_Flush(t *testing.T) {
	_, _, store := newTestManager(t)
	rec := &recordingStore{Store: store}
	m := NewManager(testLogger(), rec, time.Hour)
	ctx := context.Background()

	require.NoError(t, m.Flush(ctx), "nothing pending")

	st := NewState()
	st.Started = true
	m.SaveAsync(st)
	require.NoError(t, m.Flush(ctx))
	m.Wait()

	assert.Len(t, rec.writes(), 1)

	restored, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, restored.Started)
}

func TestManager_Reset(t *testing.T) {
	m, values, _ := newTestManager(t)
	ctx := context.Background()

	st := NewState()
	st.Started = true
	require.NoError(t, m.Save(ctx, st))
	require.NoError(t, values.Set(ctx, LegacyStateKey, `{"idx":1}`))

	fresh := m.Reset(ctx)
	assert.False(t, fresh.HasProgress())

	_, found, _ := values.Get(ctx, StateKey)
	assert.False(t, found)
	_, found, _ = values.Get(ctx, LegacyStateKey)
	assert.False(t, found)
}

func TestManager_ResetCancelsPendingAutosave(t *testing.T) {
	_, _, store := newTestManager(t)
	rec := &recordingStore{Store: store}
	m := NewManager(testLogger(), rec, 50*time.Millisecond)

	st := NewState()
	st.Started = true
	m.SaveAsync(st)
	m.Reset(context.Background())
	m.Wait()
	time.Sleep(80 * time.Millisecond)

	assert.Empty(t, rec.writes())
}

func TestManager_ResetIgnoresRemoveErrors(t *testing.T) {
	_, _, store := newTestManager(t)
	rec := &recordingStore{Store: store, removeErr: errors.New("read-only")}
	logger, hook := test.NewNullLogger()
	m := NewManager(logger, rec, 0)

	fresh := m.Reset(context.Background())
	assert.False(t, fresh.HasProgress())
	assert.Equal(t, []string{StateKey, LegacyStateKey}, rec.removed)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, logrus.WarnLevel, e.Level)
	}
}
