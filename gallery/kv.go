package gallery

import (
	"errors"
	"sync"
)

// DefaultQuota mirrors the usual per-origin browser storage limit.
const DefaultQuota int64 = 5 << 20

// ErrQuotaExceeded is returned by a KV write that would push the total size of
// all keys and values past the store's quota. The previous value is kept.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KV is a small string key-value store.
type KV interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	Close() error
}

// quotaAllows reports whether replacing a value of oldSize bytes with one of
// newSize bytes keeps used within quota. A quota <= 0 means unlimited.
func quotaAllows(quota, used int64, oldSize, newSize int) bool {
	if quota <= 0 {
		return true
	}
	return used-int64(oldSize)+int64(newSize) <= quota
}

// MemoryKV is an in-process KV, used by tests and the "memory" storage backend.
type MemoryKV struct {
	quota  int64
	used   int64
	values map[string]string
	mu     sync.RWMutex
}

var _ KV = (*MemoryKV)(nil)

// NewMemoryKV creates an empty MemoryKV. quota <= 0 disables the limit.
func NewMemoryKV(quota int64) *MemoryKV {
	return &MemoryKV{
		quota:  quota,
		values: make(map[string]string),
	}
}

// Get returns the value stored under key.
func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key, or returns ErrQuotaExceeded and keeps the
// previous value.
func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldSize := 0
	if old, ok := m.values[key]; ok {
		oldSize = len(key) + len(old)
	}
	newSize := len(key) + len(value)
	if !quotaAllows(m.quota, m.used, oldSize, newSize) {
		return ErrQuotaExceeded
	}

	m.values[key] = value
	m.used += int64(newSize - oldSize)
	return nil
}

// Close is a no-op.
func (m *MemoryKV) Close() error { return nil }
