package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalk_UUIDBasenameUsedDirectly(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "proj1")
	require.NoError(t, os.MkdirAll(projDir, 0o755))

	name := "550e8400-e29b-41d4-a716-446655440000.jsonl"
	require.NoError(t, os.WriteFile(filepath.Join(projDir, name), []byte(`{"uuid":"a1","type":"summary"}`+"\n"), 0o644))

	cands, warnings := Walk(root)
	require.Empty(t, warnings)
	require.Len(t, cands, 1)
	require.Equal(t, "550e8400-e29b-41d4-a716-446655440000", cands[0].SessionID)
	require.Equal(t, "proj1", cands[0].ProjectKey)
}

func TestWalk_NonUUIDBasenameFallsBackToSessionID(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "proj1")
	require.NoError(t, os.MkdirAll(projDir, 0o755))

	content := `{"uuid":"a1","type":"user","sessionId":"real-session-id","message":{"content":"hi there"}}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(projDir, "rollout-2025.jsonl"), []byte(content), 0o644))

	cands, warnings := Walk(root)
	require.Empty(t, warnings)
	require.Len(t, cands, 1)
	require.Equal(t, "real-session-id", cands[0].SessionID)
	require.Equal(t, "hi there", cands[0].Summary)
}

func TestWalk_NonUUIDBasenameNoSessionIDFallsBackToStem(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "proj1")
	require.NoError(t, os.MkdirAll(projDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(projDir, "notes.jsonl"), []byte(`{"uuid":"a1","type":"summary"}`+"\n"), 0o644))

	cands, _ := Walk(root)
	require.Len(t, cands, 1)
	require.Equal(t, "notes", cands[0].SessionID)
}

func TestWalk_MissingRootIsEmptyNotError(t *testing.T) {
	cands, warnings := Walk(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Empty(t, cands)
	require.Empty(t, warnings)
}

func TestWalk_DeterministicOrder(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"proj-b", "proj-a"} {
		dir := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "s.jsonl"), []byte(`{"uuid":"a1","type":"summary"}`+"\n"), 0o644))
	}

	cands, _ := Walk(root)
	require.Len(t, cands, 2)
	require.Less(t, cands[0].Path, cands[1].Path)
}
