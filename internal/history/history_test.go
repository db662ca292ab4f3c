package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppend_BoundedAtCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "operation-history.json")
	l := New(path, 5)

	for i := 0; i < 8; i++ {
		e := NewEntry("push", "2025-01-17T10:00:00Z", "main")
		require.NoError(t, l.Append(e))
	}

	entries, err := l.Load()
	require.NoError(t, err)
	require.Len(t, entries, 5)
}

func TestAppend_NewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "operation-history.json")
	l := New(path, 5)

	first := NewEntry("push", "2025-01-17T10:00:00Z", "main")
	second := NewEntry("pull", "2025-01-17T11:00:00Z", "main")
	require.NoError(t, l.Append(first))
	require.NoError(t, l.Append(second))

	entries, err := l.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, second.ID, entries[0].ID)
	require.Equal(t, first.ID, entries[1].ID)
	require.Equal(t, "main", entries[0].Branch)
	require.Equal(t, "main", entries[1].Branch)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	l := New(path, 5)

	entries, err := l.Load()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestLoad_CorruptFileIsEmptyNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "operation-history.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	l := New(path, 5)
	entries, err := l.Load()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestMarkUndone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "operation-history.json")
	l := New(path, 5)

	snapID := "snap-1"
	e := NewEntry("pull", "2025-01-17T10:00:00Z", "main")
	e.SnapshotID = &snapID
	require.NoError(t, l.Append(e))

	require.NoError(t, l.MarkUndone(snapID))

	entries, err := l.Load()
	require.NoError(t, err)
	require.True(t, entries[0].Undone)
}
