package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmswd/sessync/internal/conflict"
	"github.com/jmswd/sessync/internal/filter"
	"github.com/jmswd/sessync/internal/history"
	"github.com/jmswd/sessync/internal/scm"
	"github.com/jmswd/sessync/internal/snapshot"
	"github.com/jmswd/sessync/internal/sync"
	"github.com/jmswd/sessync/internal/synerr"
	"github.com/jmswd/sessync/internal/syncstate"
)

// stateDir resolves <state-root>, defaulting to ~/.sessync.
func stateDir() string {
	if v := os.Getenv("SESSYNC_STATE_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sessync"
	}
	return filepath.Join(home, ".sessync")
}

// localProjectsDir resolves the local tree, defaulting to the
// directory Claude Code itself writes sessions into.
func localProjectsDir() string {
	if v := os.Getenv("SESSYNC_PROJECTS_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claude", "projects")
	}
	return filepath.Join(home, ".claude", "projects")
}

// loadEngine reads state.json and wires an *sync.Engine from it,
// along with whether a remote is configured. It exits the process
// with an actionable hint on failure, matching the core's contract
// that every user-visible error carries one.
func loadEngine(root string) (*sync.Engine, bool) {
	statePath := filepath.Join(root, "state.json")
	state, err := syncstate.Load(statePath)
	if err != nil {
		fatalHinted(&synerr.NotInitialized{Path: statePath})
	}

	var adapter scm.Adapter
	switch state.ScmBackend {
	case syncstate.BackendHg:
		adapter = scm.NewHgAdapter(state.RepoPath)
	default:
		adapter = scm.NewGitAdapter(state.RepoPath)
	}

	remote := ""
	if state.RemoteURL != nil {
		remote = *state.RemoteURL
	}
	if err := adapter.Init(context.Background(), state.RepoPath, remote); err != nil {
		fatalHinted(err)
	}

	mirrorRoot := filepath.Join(state.RepoPath, state.SyncSubdirectory)
	snapshots := snapshot.New(root)
	hist := history.New(filepath.Join(root, "operation-history.json"), history.DefaultCap)
	lockPath := filepath.Join(root, "sync.lock")

	e := sync.NewEngine(
		adapter, localProjectsDir(), mirrorRoot,
		filter.Config{MaxFileSizeBytes: filter.DefaultMaxFileSizeBytes},
		snapshots, hist, conflict.NoopResolver{}, filter.DefaultMaxFileSizeBytes, lockPath,
	)
	return e, remote != ""
}

// fatalHinted prints err and, when it carries a Hint, the hint too,
// then exits. Every error kind the core distinguishes implements this
// interface.
func fatalHinted(err error) {
	fmt.Fprintf(os.Stderr, "sessync: %v\n", err)
	if h, ok := err.(interface{ Hint() string }); ok {
		fmt.Fprintf(os.Stderr, "hint: %s\n", h.Hint())
	}
	os.Exit(1)
}
