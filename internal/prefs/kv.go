package prefs

import "sync"

// KV is the per-profile key-value store preferences persist to.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryKV keeps values in process memory.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// MemoryBackend hands out one MemoryKV per profile.
type MemoryBackend struct {
	mu       sync.Mutex
	profiles map[string]*MemoryKV
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{profiles: make(map[string]*MemoryKV)}
}

// Profile returns the store for a profile, creating it on first use.
func (b *MemoryBackend) Profile(id string) KV {
	b.mu.Lock()
	defer b.mu.Unlock()
	kv, ok := b.profiles[id]
	if !ok {
		kv = NewMemoryKV()
		b.profiles[id] = kv
	}
	return kv
}

// Close is a no-op.
func (b *MemoryBackend) Close() error { return nil }
