// Package snapshot implements the Snapshot Store: pre-image captures
// of either the local tree or the mirror that make the last pull or
// push undoable.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jmswd/sessync/internal/atomicfile"
	"github.com/jmswd/sessync/internal/fingerprint"
	"github.com/jmswd/sessync/internal/synerr"
)

// Kind distinguishes the two snapshot kinds the store ever holds.
type Kind string

const (
	Pull Kind = "pull"
	Push Kind = "push"
)

const manifestFile = "snapshot.json"

// FileEntry is one recorded local file in a pull snapshot. Absent
// means the path did not exist before the pull that the snapshot
// protects (so restore must delete it, not rewrite it).
type FileEntry struct {
	RelativePath string             `json:"relative_path"`
	Fingerprint  fingerprint.Digest `json:"fingerprint,omitempty"`
	Size         int64              `json:"size"`
	Body         []byte             `json:"base64_body,omitempty"`
	Absent       bool               `json:"absent,omitempty"`
}

// Manifest is the persisted snapshot.json. Exactly one of Files
// (pull) or {PreviousHead, Branch, DirtyPaths} (push) is populated,
// selected by Kind.
type Manifest struct {
	Kind         Kind        `json:"kind"`
	OpUUID       string      `json:"op_uuid"`
	Files        []FileEntry `json:"files,omitempty"`
	PreviousHead string      `json:"previous_head,omitempty"`
	Branch       string      `json:"branch,omitempty"`
	DirtyPaths   []string    `json:"dirty_paths,omitempty"`
}

// Store owns <state-root>/snapshots/.
type Store struct {
	root string
}

// New returns a Store rooted at <state-root>/snapshots.
func New(stateRoot string) *Store {
	return &Store{root: filepath.Join(stateRoot, "snapshots")}
}

func (s *Store) dirFor(kind Kind, opUUID string) string {
	return filepath.Join(s.root, fmt.Sprintf("%s-%s", kind, opUUID))
}

// existingDir returns the directory of the current snapshot of kind,
// if any.
func (s *Store) existingDir(kind Kind) (string, bool) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return "", false
	}
	prefix := string(kind) + "-"
	for _, e := range entries {
		if e.IsDir() && len(e.Name()) > len(prefix) && e.Name()[:len(prefix)] == prefix {
			return filepath.Join(s.root, e.Name()), true
		}
	}
	return "", false
}

// CreatePull replaces the current pull snapshot (if any) with one
// built from files, keyed by relative path. The new snapshot is staged
// in a temporary sibling directory and renamed into place; the old one
// is removed just before that rename, so the swap is not atomic — a
// crash in between leaves no pull snapshot.
func (s *Store) CreatePull(files []FileEntry) (opUUID string, err error) {
	return s.create(Pull, func(m *Manifest) { m.Files = files })
}

// CreatePush replaces the current push snapshot (if any), the same
// way CreatePull does.
func (s *Store) CreatePush(previousHead, branch string, dirtyPaths []string) (opUUID string, err error) {
	return s.create(Push, func(m *Manifest) {
		m.PreviousHead = previousHead
		m.Branch = branch
		m.DirtyPaths = dirtyPaths
	})
}

func (s *Store) create(kind Kind, fill func(*Manifest)) (string, error) {
	id := uuid.New().String()
	dst := s.dirFor(kind, id)

	tmp, err := atomicfile.TempDirSibling(dst, ".tmp-"+id)
	if err != nil {
		return "", &synerr.SnapshotIO{Kind: string(kind), Err: err}
	}

	m := &Manifest{Kind: kind, OpUUID: id}
	fill(m)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", &synerr.SnapshotIO{Kind: string(kind), Err: err}
	}
	if err := os.WriteFile(filepath.Join(tmp, manifestFile), data, 0o644); err != nil {
		return "", &synerr.SnapshotIO{Kind: string(kind), Err: err}
	}

	if old, ok := s.existingDir(kind); ok {
		if err := os.RemoveAll(old); err != nil {
			return "", &synerr.SnapshotIO{Kind: string(kind), Err: err}
		}
	}

	if err := atomicfile.ReplaceDir(tmp, dst); err != nil {
		return "", &synerr.SnapshotIO{Kind: string(kind), Err: err}
	}
	return id, nil
}

// Load reads the current snapshot of kind, if one exists.
func (s *Store) Load(kind Kind) (*Manifest, string, error) {
	dir, ok := s.existingDir(kind)
	if !ok {
		return nil, "", &synerr.NothingToUndo{Kind: string(kind)}
	}
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, "", &synerr.CorruptState{Path: dir, Err: err}
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", &synerr.CorruptState{Path: dir, Err: err}
	}
	return &m, dir, nil
}

// Delete removes the current snapshot of kind, if any. A successful
// undo always calls this once it has restored from the snapshot.
func (s *Store) Delete(kind Kind) error {
	dir, ok := s.existingDir(kind)
	if !ok {
		return nil
	}
	return os.RemoveAll(dir)
}
