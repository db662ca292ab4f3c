package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreatePull_LoadAndRestore(t *testing.T) {
	stateRoot := t.TempDir()
	s := New(stateRoot)

	files := []FileEntry{
		{RelativePath: "p1/s1.jsonl", Body: []byte("original content\n"), Size: 17},
		{RelativePath: "p1/s2.jsonl", Absent: true},
	}
	id, err := s.CreatePull(files)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	m, _, err := s.Load(Pull)
	require.NoError(t, err)
	require.Equal(t, Pull, m.Kind)
	require.Len(t, m.Files, 2)

	localRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(localRoot, "p1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(localRoot, "p1", "s1.jsonl"), []byte("mutated\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(localRoot, "p1", "s2.jsonl"), []byte("new from pull\n"), 0o644))

	require.NoError(t, RestorePull(m, localRoot))

	data, err := os.ReadFile(filepath.Join(localRoot, "p1", "s1.jsonl"))
	require.NoError(t, err)
	require.Equal(t, "original content\n", string(data))

	_, err = os.Stat(filepath.Join(localRoot, "p1", "s2.jsonl"))
	require.True(t, os.IsNotExist(err))

	require.NoError(t, s.Delete(Pull))
	_, _, err = s.Load(Pull)
	require.Error(t, err)
}

func TestCreatePull_ReplacesPrevious(t *testing.T) {
	stateRoot := t.TempDir()
	s := New(stateRoot)

	_, err := s.CreatePull([]FileEntry{{RelativePath: "a.jsonl", Body: []byte("1")}})
	require.NoError(t, err)
	_, err = s.CreatePull([]FileEntry{{RelativePath: "b.jsonl", Body: []byte("2")}})
	require.NoError(t, err)

	m, _, err := s.Load(Pull)
	require.NoError(t, err)
	require.Len(t, m.Files, 1)
	require.Equal(t, "b.jsonl", m.Files[0].RelativePath)

	entries, err := os.ReadDir(filepath.Join(stateRoot, "snapshots"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestCreatePush_LoadAndDelete(t *testing.T) {
	stateRoot := t.TempDir()
	s := New(stateRoot)

	id, err := s.CreatePush("abc123", "main", []string{"p1/s1.jsonl"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	m, _, err := s.Load(Push)
	require.NoError(t, err)
	require.Equal(t, "abc123", m.PreviousHead)
	require.Equal(t, "main", m.Branch)

	require.NoError(t, s.Delete(Push))
	_, _, err = s.Load(Push)
	require.Error(t, err)
}
