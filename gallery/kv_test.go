package gallery

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kvFactory func(t *testing.T, quota int64) KV

func backends() map[string]kvFactory {
	return map[string]kvFactory{
		"memory": func(t *testing.T, quota int64) KV {
			return NewMemoryKV(quota)
		},
		"file": func(t *testing.T, quota int64) KV {
			kv, err := OpenFileKV(filepath.Join(t.TempDir(), "store.json"), quota)
			require.NoError(t, err)
			return kv
		},
		"sqlite": func(t *testing.T, quota int64) KV {
			kv, err := OpenSQLiteKV(filepath.Join(t.TempDir(), "store.db"), quota)
			require.NoError(t, err)
			t.Cleanup(func() { kv.Close() })
			return kv
		},
	}
}

func TestKV_GetSet(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			kv := open(t, 0)

			_, ok, err := kv.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set("a", "1"))
			require.NoError(t, kv.Set("a", "2"))

			v, ok, err := kv.Get("a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "2", v)
		})
	}
}

func TestKV_Quota(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			kv := open(t, 20)

			require.NoError(t, kv.Set("k", strings.Repeat("x", 10)))

			err := kv.Set("k", strings.Repeat("y", 30))
			assert.ErrorIs(t, err, ErrQuotaExceeded)

			v, _, err := kv.Get("k")
			require.NoError(t, err)
			assert.Equal(t, strings.Repeat("x", 10), v, "rejected write must keep the old value")

			// Replacing a value only counts the difference.
			assert.NoError(t, kv.Set("k", strings.Repeat("z", 19)))
			assert.ErrorIs(t, kv.Set("other", "abc"), ErrQuotaExceeded)
		})
	}
}

func TestFileKV_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	kv, err := OpenFileKV(path, 0)
	require.NoError(t, err)
	require.NoError(t, kv.Set(KeyImagesHistory, `[{"prompt":"a","imageUrl":"data:,"}]`))

	reopened, err := OpenFileKV(path, 0)
	require.NoError(t, err)
	v, ok, err := reopened.Get(KeyImagesHistory)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, v, `"prompt":"a"`)
}

func TestFileKV_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	kv, err := OpenFileKV(path, 0)
	require.NoError(t, err)

	_, ok, err := kv.Get(KeyImagesHistory)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(KeyImagesHistory, "[]"))
	reopened, err := OpenFileKV(path, 0)
	require.NoError(t, err)
	v, ok, err := reopened.Get(KeyImagesHistory)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
}

func TestFileKV_TruncatedFileLoadsEmptyGallery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"imagesHistory": "[{\"prompt\":\"a\"`), 0644))

	kv, err := OpenFileKV(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, Load(kv).Len())
}

func TestSQLiteKV_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	kv, err := OpenSQLiteKV(path, 0)
	require.NoError(t, err)
	require.NoError(t, kv.Set(KeyShowDeleteConfirmation, "false"))
	require.NoError(t, kv.Close())

	reopened, err := OpenSQLiteKV(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(KeyShowDeleteConfirmation)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", v)
}
