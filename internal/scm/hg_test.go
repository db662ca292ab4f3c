package scm

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireHg(t *testing.T) {
	if _, err := exec.LookPath("hg"); err != nil {
		t.Skip("hg binary not available")
	}
}

func TestHgAdapter_InitCommitAndHead(t *testing.T) {
	requireHg(t)
	ctx := context.Background()
	dir := t.TempDir()

	a := NewHgAdapter(dir)
	require.NoError(t, a.Init(ctx, dir, ""))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jsonl"), []byte("{}\n"), 0o644))
	require.NoError(t, a.StageAll(ctx))

	id, noChange, err := a.Commit(ctx, "first commit")
	require.NoError(t, err)
	require.False(t, noChange)
	require.NotEmpty(t, id)

	_, noChange, err = a.Commit(ctx, "nothing changed")
	require.NoError(t, err)
	require.True(t, noChange)

	head, err := a.HeadID(ctx)
	require.NoError(t, err)
	require.Equal(t, id, head)
}
