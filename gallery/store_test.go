package gallery

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingKV wraps a KV and counts writes; it can be told to fail.
type countingKV struct {
	KV
	sets    int
	getErr  error
	failSet error
}

func (c *countingKV) Get(key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	return c.KV.Get(key)
}

func (c *countingKV) Set(key, value string) error {
	c.sets++
	if c.failSet != nil {
		return c.failSet
	}
	return c.KV.Set(key, value)
}

func entry(prompt string) HistoryEntry {
	return HistoryEntry{Prompt: prompt, ImageURL: "data:image/png;base64,AAAA"}
}

func stored(t *testing.T, kv KV) string {
	t.Helper()
	v, ok, err := kv.Get(KeyImagesHistory)
	require.NoError(t, err)
	require.True(t, ok)
	return v
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  []HistoryEntry
	}{
		{name: "absent", value: nil, want: []HistoryEntry{}},
		{name: "malformed", value: ptr("{not json"), want: []HistoryEntry{}},
		{name: "wrong shape", value: ptr(`{"prompt":"x"}`), want: []HistoryEntry{}},
		{name: "null", value: ptr("null"), want: []HistoryEntry{}},
		{
			name:  "stored order is kept",
			value: ptr(`[{"prompt":"new","imageUrl":"data:a"},{"prompt":"old","imageUrl":"data:b"}]`),
			want: []HistoryEntry{
				{Prompt: "new", ImageURL: "data:a"},
				{Prompt: "old", ImageURL: "data:b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV(0)
			if tt.value != nil {
				require.NoError(t, kv.Set(KeyImagesHistory, *tt.value))
			}
			assert.Equal(t, tt.want, Load(kv).Entries())
		})
	}
}

func TestLoad_ReadError(t *testing.T) {
	kv := &countingKV{KV: NewMemoryKV(0), getErr: errors.New("disk on fire")}
	s := Load(kv)
	assert.Zero(t, s.Len())
}

func TestStore_AddPrependsAndPersists(t *testing.T) {
	kv := NewMemoryKV(0)
	s := Load(kv)

	require.NoError(t, s.Add(entry("first")))
	require.NoError(t, s.Add(entry("second")))

	assert.Equal(t, []HistoryEntry{entry("second"), entry("first")}, s.Entries())
	assert.Equal(t,
		`[{"prompt":"second","imageUrl":"data:image/png;base64,AAAA"},{"prompt":"first","imageUrl":"data:image/png;base64,AAAA"}]`,
		stored(t, kv))

	assert.Equal(t, s.Entries(), Load(kv).Entries())
}

func TestStore_Remove(t *testing.T) {
	kv := &countingKV{KV: NewMemoryKV(0)}
	s := Load(kv)
	for _, p := range []string{"c", "b", "a"} {
		require.NoError(t, s.Add(entry(p)))
	}
	writes := kv.sets

	removed, err := s.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, "b", removed.Prompt)
	assert.Equal(t, []HistoryEntry{entry("a"), entry("c")}, s.Entries())
	assert.Equal(t, writes+1, kv.sets)
	assert.NotContains(t, stored(t, kv), `"prompt":"b"`)
}

func TestStore_RemoveOutOfRange(t *testing.T) {
	kv := &countingKV{KV: NewMemoryKV(0)}
	s := Load(kv)
	require.NoError(t, s.Add(entry("only")))
	writes := kv.sets

	for _, i := range []int{-1, 1, 5} {
		_, err := s.Remove(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
	assert.Equal(t, []HistoryEntry{entry("only")}, s.Entries())
	assert.Equal(t, writes, kv.sets, "no write on a rejected remove")
}

func TestStore_Clear(t *testing.T) {
	kv := NewMemoryKV(0)
	s := Load(kv)
	require.NoError(t, s.Add(entry("a")))
	require.NoError(t, s.Add(entry("b")))

	require.NoError(t, s.Clear())
	assert.Zero(t, s.Len())
	assert.Equal(t, "[]", stored(t, kv))
}

func TestStore_QuotaExceededKeepsMemory(t *testing.T) {
	kv := NewMemoryKV(200)
	s := Load(kv)
	require.NoError(t, s.Add(entry("small")))

	big := HistoryEntry{Prompt: "big", ImageURL: "data:image/png;base64," + strings.Repeat("A", 500)}
	err := s.Add(big)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	assert.Equal(t, []HistoryEntry{big, entry("small")}, s.Entries())
	assert.NotContains(t, stored(t, kv), `"prompt":"big"`)

	// The next successful write carries the full in-memory state again.
	_, err = s.Remove(0)
	require.NoError(t, err)
	assert.Equal(t, Load(kv).Entries(), s.Entries())
}

func TestStore_At(t *testing.T) {
	s := Load(NewMemoryKV(0))
	require.NoError(t, s.Add(entry("a")))

	got, ok := s.At(0)
	assert.True(t, ok)
	assert.Equal(t, "a", got.Prompt)

	_, ok = s.At(1)
	assert.False(t, ok)
}

func TestStore_EntriesIsACopy(t *testing.T) {
	s := Load(NewMemoryKV(0))
	require.NoError(t, s.Add(entry("a")))

	e := s.Entries()
	e[0].Prompt = "mutated"
	got, _ := s.At(0)
	assert.Equal(t, "a", got.Prompt)
}

func TestStore_SQLiteBackend(t *testing.T) {
	kv, err := OpenSQLiteKV(":memory:", DefaultQuota)
	require.NoError(t, err)
	defer kv.Close()

	s := Load(kv)
	require.NoError(t, s.Add(entry("persisted")))
	assert.Equal(t, []HistoryEntry{entry("persisted")}, Load(kv).Entries())
}

func ptr(s string) *string { return &s }
