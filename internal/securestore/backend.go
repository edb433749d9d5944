// Package securestore is an authenticated-encryption key/value store. Values are
// sealed with AES-256-GCM under a device master key kept in a separate key namespace,
// and are never written in plaintext.
package securestore

import (
	"context"
	"sync"
)

// ValueBackend persists envelope strings by key.
// Get reports found=false for a missing key; that is not an error.
type ValueBackend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// KeyStore persists raw key material by key id. It must be a separate namespace
// from the value backend.
type KeyStore interface {
	LoadKey(ctx context.Context, id string) (material []byte, found bool, err error)
	SaveKey(ctx context.Context, id string, material []byte) error
}

// MemoryBackend is a map-backed ValueBackend and KeyStore.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string][]byte)}
}

// Get implements ValueBackend.
func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return string(v), ok, nil
}

// Set implements ValueBackend.
func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = []byte(value)
	return nil
}

// Delete implements ValueBackend.
func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// LoadKey implements KeyStore.
func (m *MemoryBackend) LoadKey(_ context.Context, id string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[id]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// SaveKey implements KeyStore.
func (m *MemoryBackend) SaveKey(_ context.Context, id string, material []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = append([]byte(nil), material...)
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
