package gallery

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrIndexOutOfRange is returned by Remove for an index outside the gallery.
var ErrIndexOutOfRange = errors.New("gallery index out of range")

// Store is the in-memory gallery, newest entry first, mirrored to a KV under
// KeyImagesHistory. Every mutation rewrites the whole array.
//
// A failed write leaves the in-memory state as mutated; the caller decides
// how to surface it.
type Store struct {
	kv      KV
	logger  *slog.Logger
	entries []HistoryEntry
	mu      sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Load reads the gallery from kv. A missing key, a read error or a value that
// is not a JSON array of entries all give an empty gallery.
func Load(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		logger:  slog.Default(),
		entries: []HistoryEntry{},
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, ok, err := kv.Get(KeyImagesHistory)
	switch {
	case err != nil:
		s.logger.Debug("gallery unreadable, starting empty", "error", err.Error())
		return s
	case !ok:
		return s
	}

	var entries []HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.Debug("gallery malformed, starting empty", "error", err.Error())
		return s
	}
	if entries != nil {
		s.entries = entries
	}
	s.logger.Debug("gallery loaded", "entries", len(s.entries))
	return s
}

// Entries returns a copy of the gallery, newest first.
func (s *Store) Entries() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// At returns the entry at index i.
func (s *Store) At(i int) (HistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i < 0 || i >= len(s.entries) {
		return HistoryEntry{}, false
	}
	return s.entries[i], true
}

// Add prepends entry and persists.
func (s *Store) Add(entry HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]HistoryEntry, 0, len(s.entries)+1)
	entries = append(entries, entry)
	s.entries = append(entries, s.entries...)
	return s.persistLocked()
}

// Remove deletes the entry at index i and persists. Out of range indexes
// return ErrIndexOutOfRange and change nothing.
func (s *Store) Remove(i int) (HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.entries) {
		return HistoryEntry{}, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(s.entries))
	}

	removed := s.entries[i]
	entries := make([]HistoryEntry, 0, len(s.entries)-1)
	entries = append(entries, s.entries[:i]...)
	s.entries = append(entries, s.entries[i+1:]...)
	return removed, s.persistLocked()
}

// Clear removes every entry and persists.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []HistoryEntry{}
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("encode gallery: %w", err)
	}
	if err := s.kv.Set(KeyImagesHistory, string(data)); err != nil {
		return fmt.Errorf("persist gallery: %w", err)
	}
	return nil
}
