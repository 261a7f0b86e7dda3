// Package store persists wizard session state.
//
// State is kept as six logical fields in a session-scoped key/value
// [Backend]. The [Adapter] layers typed accessors over a backend and never
// returns storage errors to callers: failures are logged and the accessor
// falls back to the documented default, so a broken store degrades the
// session instead of ending it.
//
// Backends:
//   - [FileBackend] - one YAML document per session on local disk
//   - [RedisBackend] - one Redis key per field, with optional TTL
//   - [MemoryBackend] - process-local map for tests and ephemeral runs
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrInvalidSession is returned when a session name cannot be used as a key.
var ErrInvalidSession = errors.New("invalid session name")

// Backend is a session-scoped string key/value store.
//
// Get reports found=false with a nil error for missing keys. Delete ignores
// keys that do not exist.
type Backend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryBackend is an in-memory [Backend]. The zero value is not usable; use
// [NewMemoryBackend].
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]string)}
}

// Get implements [Backend].
func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements [Backend].
func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

// Delete implements [Backend].
func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryBackend) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
