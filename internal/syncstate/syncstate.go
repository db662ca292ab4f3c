// Package syncstate defines the shape of state.json, the collaborator-
// owned record of where the mirror lives and which backend manages it.
// The core never parses this file itself — sync.Engine takes already-
// resolved Go values — but cmd/sessync and tests need a place to read
// and write it.
package syncstate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmswd/sessync/internal/atomicfile"
)

// Backend names a concrete SCM Adapter implementation.
type Backend string

const (
	BackendGit Backend = "git"
	BackendHg  Backend = "hg"
)

// State is the persisted shape of <state-root>/state.json.
type State struct {
	RepoPath         string  `json:"repo_path"`
	RemoteURL        *string `json:"remote_url"`
	Branch           string  `json:"branch"`
	ScmBackend       Backend `json:"scm_backend"`
	SyncSubdirectory string  `json:"sync_subdirectory"`
}

// DefaultSyncSubdirectory is the mirror subdirectory sessions sync
// into when the config does not override it.
const DefaultSyncSubdirectory = "projects"

// Load reads and parses path into a State.
func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("read %s: %w", path, err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.SyncSubdirectory == "" {
		s.SyncSubdirectory = DefaultSyncSubdirectory
	}
	return s, nil
}

// Save writes s to path atomically.
func Save(path string, s State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return atomicfile.WriteFile(path, data, 0o644)
}
