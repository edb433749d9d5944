package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/neuroscope-selfcheck/internal/securestore"
)

// DefaultAutosaveDelay coalesces bursts of answer changes into one write.
const DefaultAutosaveDelay = 250 * time.Millisecond

// Store is the subset of the secure store the session needs.
type Store interface {
	Set(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string) securestore.Lookup
	Remove(ctx context.Context, key string) error
	MigrateIfNeeded(ctx context.Context, key, legacyKey string) (securestore.MigrationResult, error)
}

// Manager restores, saves and resets the session state.
type Manager struct {
	store  Store
	logger *logrus.Logger
	delay  time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *State
	wg      sync.WaitGroup
}

// NewManager creates a manager. A non-positive delay uses DefaultAutosaveDelay.
func NewManager(logger *logrus.Logger, store Store, delay time.Duration) *Manager {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Manager{
		store:  store,
		logger: logger,
		delay:  delay,
	}
}

// Restore migrates any plaintext state and loads the saved session. A missing,
// foreign or purged entry yields an empty state; only an unavailable store is an error.
func (m *Manager) Restore(ctx context.Context) (State, error) {
	result, err := m.store.MigrateIfNeeded(ctx, StateKey, LegacyStateKey)
	if err != nil {
		m.logger.WithError(err).WithField("result", result.String()).Warn("Session migration did not complete")
	} else if result != securestore.MigrationNothingToDo && result != securestore.MigrationSkippedAlreadyEncrypted {
		m.logger.WithField("result", result.String()).Info("Migrated session state")
	}

	l := m.store.Get(ctx, StateKey)
	switch l.Status {
	case securestore.LookupFound:
		var st State
		if err := l.Decode(&st); err != nil {
			m.logger.WithError(err).Warn("Saved session could not be decoded, starting fresh")
			return NewState(), nil
		}
		return st, nil
	case securestore.LookupUnavailable:
		return NewState(), fmt.Errorf("failed to restore session: %w", l.Err)
	case securestore.LookupPurged:
		m.logger.Warn("Saved session failed authentication and was discarded")
		return NewState(), nil
	default:
		return NewState(), nil
	}
}

// Save writes st immediately and drops any pending autosave.
func (m *Manager) Save(ctx context.Context, st State) error {
	m.cancelPending()
	if err := m.store.Set(ctx, StateKey, st); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SaveAsync schedules st to be written after the autosave delay. A later call replaces
// the pending state. A state without progress is never written so that an empty
// session does not overwrite a saved one.
func (m *Manager) SaveAsync(st State) {
	if !st.HasProgress() {
		return
	}
	snapshot := st.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = &snapshot
	if m.timer != nil {
		// A timer that already fired picks up the new snapshot when it runs.
		if m.timer.Stop() {
			m.timer.Reset(m.delay)
		}
		return
	}
	m.wg.Add(1)
	m.timer = time.AfterFunc(m.delay, m.autosave)
}

func (m *Manager) autosave() {
	defer m.wg.Done()

	m.mu.Lock()
	st := m.pending
	m.pending = nil
	m.timer = nil
	m.mu.Unlock()

	if st == nil {
		return
	}
	if err := m.store.Set(context.Background(), StateKey, *st); err != nil {
		m.logger.WithError(err).Error("Autosave failed")
	}
}

// Flush writes a pending autosave now.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	st := m.pending
	m.mu.Unlock()
	m.cancelPending()

	if st == nil {
		return nil
	}
	return m.Save(ctx, *st)
}

// Wait blocks until no autosave is running.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) cancelPending() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = nil
	if m.timer != nil && m.timer.Stop() {
		m.timer = nil
		m.wg.Done()
	}
}

// Reset discards the session, including plaintext left under the legacy key. Removal
// failures are logged and otherwise ignored: the caller always gets an empty state.
func (m *Manager) Reset(ctx context.Context) State {
	m.cancelPending()
	for _, key := range []string{StateKey, LegacyStateKey} {
		if err := m.store.Remove(ctx, key); err != nil {
			m.logger.WithError(err).WithField("key", key).Warn("Failed to remove session entry")
		}
	}
	return NewState()
}
