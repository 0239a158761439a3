package gallery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileKV keeps all keys in a single JSON object file. Writes go to a temp
// file that is renamed over the original.
type FileKV struct {
	path   string
	quota  int64
	used   int64
	values map[string]string
	mu     sync.Mutex
}

var _ KV = (*FileKV)(nil)

// OpenFileKV loads path if it exists. A file that is not a JSON object of
// strings opens as an empty store. Only I/O errors are returned.
func OpenFileKV(path string, quota int64) (*FileKV, error) {
	f := &FileKV{
		path:   path,
		quota:  quota,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &f.values); err != nil {
			// Unreadable content starts empty; the next Set overwrites it.
			f.values = make(map[string]string)
			return f, nil
		}
	}
	for k, v := range f.values {
		f.used += int64(len(k) + len(v))
	}
	return f, nil
}

// Get returns the value stored under key.
func (f *FileKV) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.values[key]
	return v, ok, nil
}

// Set stores value under key and rewrites the file. On any failure the
// previous value is kept.
func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	old, had := f.values[key]
	oldSize := 0
	if had {
		oldSize = len(key) + len(old)
	}
	newSize := len(key) + len(value)
	if !quotaAllows(f.quota, f.used, oldSize, newSize) {
		return ErrQuotaExceeded
	}

	f.values[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.values[key] = old
		} else {
			delete(f.values, key)
		}
		return err
	}
	f.used += int64(newSize - oldSize)
	return nil
}

func (f *FileKV) flush() error {
	data, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".schnell-kv-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

// Close is a no-op; every Set is already on disk.
func (f *FileKV) Close() error { return nil }
