package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory store implementation. It is the default for
// tests and for hosts that accept losing the cache on restart.
type Memory struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]*Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{namespaces: make(map[string]map[string]*Entry)}
}

// Namespaces lists every namespace key present.
func (m *Memory) Namespaces(_ context.Context) ([]Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]Key, 0, len(m.namespaces))
	for name := range m.namespaces {
		key, err := ParseKey(name)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// EnsureNamespace creates the namespace if absent.
func (m *Memory) EnsureNamespace(_ context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name := key.Encode()
	if _, ok := m.namespaces[name]; !ok {
		m.namespaces[name] = make(map[string]*Entry)
	}
	return nil
}

// DeleteNamespace removes the namespace wholesale. Idempotent.
func (m *Memory) DeleteNamespace(_ context.Context, key Key) error {
	m.mu.Lock()
	delete(m.namespaces, key.Encode())
	m.mu.Unlock()
	return nil
}

// Get retrieves an entry. Returns (nil, false) on miss.
func (m *Memory) Get(_ context.Context, key Key, url string) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ns, ok := m.namespaces[key.Encode()]
	if !ok {
		return nil, false
	}
	entry, ok := ns[url]
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

// Put stores an entry. Last write wins.
func (m *Memory) Put(_ context.Context, key Key, entry *Entry) error {
	if entry == nil || entry.URL == "" {
		return ErrInvalidEntry
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.namespaces[key.Encode()]
	if !ok {
		return ErrNoNamespace
	}
	stored := entry.Clone()
	if stored.CapturedAt.IsZero() {
		stored.CapturedAt = time.Now()
	}
	ns[entry.URL] = stored
	return nil
}

// Len reports the number of entries in the given namespace.
func (m *Memory) Len(key Key) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces[key.Encode()])
}

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)
