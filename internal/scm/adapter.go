// Package scm abstracts the source-control backend (git or hg) the
// Sync Engine pushes the mirror through. The Sync Engine depends only
// on the Adapter interface below, never on a concrete backend.
package scm

import "context"

// PushResult is the outcome of Adapter.Push.
type PushResult string

const (
	PushOk       PushResult = "ok"
	PushUpToDate PushResult = "up_to_date"
)

// Adapter is the backend-agnostic interface over the source-control
// tool that backs the mirror.
type Adapter interface {
	// Init creates or validates the working tree at path. If remote is
	// non-empty and path does not yet contain a working tree, it clones
	// remote into path instead of creating an empty repository.
	Init(ctx context.Context, path, remote string) error

	// StageAll adds all tracked and untracked changes under the sync
	// subdirectory.
	StageAll(ctx context.Context) error

	// Commit creates a commit iff the staged set is non-empty. When
	// there is nothing to commit, noChange is true and commitID is "".
	Commit(ctx context.Context, message string) (commitID string, noChange bool, err error)

	// Fetch advances the remote-tracking ref for branch and reports
	// whether the local branch is now behind it.
	Fetch(ctx context.Context, branch string) (changed bool, err error)

	// Push publishes the local branch.
	Push(ctx context.Context, branch string) (PushResult, error)

	// ResetHard moves the branch pointer and working tree to commitID.
	ResetHard(ctx context.Context, commitID string) error

	CurrentBranch(ctx context.Context) (string, error)
	HeadID(ctx context.Context) (string, error)
}
