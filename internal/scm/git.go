package scm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/jmswd/sessync/internal/synerr"
)

// GitAdapter is the Adapter backend built on go-git/v5, a pure-Go git
// implementation — no external git binary is required for the common
// path.
type GitAdapter struct {
	path       string
	repo       *git.Repository
	authorName string
	authorMail string
}

// NewGitAdapter returns a GitAdapter rooted at path. The commit
// author identity is fixed, matching a bot-style committer; per-commit
// authorship is out of scope.
func NewGitAdapter(path string) *GitAdapter {
	return &GitAdapter{path: path, authorName: "sessync", authorMail: "sessync@localhost"}
}

func (a *GitAdapter) Init(ctx context.Context, path, remote string) error {
	a.path = path

	repo, err := git.PlainOpen(path)
	if err == nil {
		a.repo = repo
		return nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return classifyGitErr("init", path, err)
	}

	if remote != "" {
		repo, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{URL: remote})
		if err != nil {
			return classifyGitErr("init", remote, err)
		}
		a.repo = repo
		return nil
	}

	repo, err = git.PlainInit(path, false)
	if err != nil {
		return classifyGitErr("init", path, err)
	}
	a.repo = repo
	return nil
}

func (a *GitAdapter) StageAll(ctx context.Context) error {
	w, err := a.repo.Worktree()
	if err != nil {
		return classifyGitErr("stage_all", a.path, err)
	}
	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return classifyGitErr("stage_all", a.path, err)
	}
	return nil
}

func (a *GitAdapter) Commit(ctx context.Context, message string) (string, bool, error) {
	w, err := a.repo.Worktree()
	if err != nil {
		return "", false, classifyGitErr("commit", a.path, err)
	}

	status, err := w.Status()
	if err != nil {
		return "", false, classifyGitErr("commit", a.path, err)
	}
	if status.IsClean() {
		return "", true, nil
	}

	hash, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: a.authorName, Email: a.authorMail, When: time.Now()},
	})
	if err != nil {
		return "", false, classifyGitErr("commit", a.path, err)
	}
	return hash.String(), false, nil
}

// Fetch advances the "origin" remote-tracking ref for branch and, if
// it moved, fast-forwards the working tree to match — the mirror on
// disk is the sole read surface Discovery and the Conflict Resolver
// use, so it must already reflect the fetched state by the time Fetch
// returns. The Sync Engine is the only writer of mirror commits, so a
// hard reset to the fetched tip is always a fast-forward in practice.
// A repository with no "origin" configured is local-only: Fetch is a
// no-op rather than an error.
func (a *GitAdapter) Fetch(ctx context.Context, branch string) (bool, error) {
	before, _ := a.remoteTrackingHash(branch)

	err := a.repo.FetchContext(ctx, &git.FetchOptions{RemoteName: "origin"})
	if err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return false, nil
		}
		if errors.Is(err, git.ErrRemoteNotFound) {
			return false, nil
		}
		return false, classifyGitErr("fetch", branch, err)
	}

	after, err := a.remoteTrackingHash(branch)
	if err != nil || before == after {
		return false, nil
	}

	w, err := a.repo.Worktree()
	if err != nil {
		return false, classifyGitErr("fetch", branch, err)
	}
	if err := w.Reset(&git.ResetOptions{Commit: after, Mode: git.HardReset}); err != nil {
		return false, classifyGitErr("fetch", branch, err)
	}
	return true, nil
}

func (a *GitAdapter) remoteTrackingHash(branch string) (plumbing.Hash, error) {
	ref, err := a.repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

func (a *GitAdapter) Push(ctx context.Context, branch string) (PushResult, error) {
	refSpec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err := a.repo.PushContext(ctx, &git.PushOptions{RemoteName: "origin", RefSpecs: []config.RefSpec{refSpec}})
	if err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return PushUpToDate, nil
		}
		return "", classifyGitErr("push", branch, err)
	}
	return PushOk, nil
}

func (a *GitAdapter) ResetHard(ctx context.Context, commitID string) error {
	w, err := a.repo.Worktree()
	if err != nil {
		return classifyGitErr("reset_hard", a.path, err)
	}
	if err := w.Reset(&git.ResetOptions{Commit: plumbing.NewHash(commitID), Mode: git.HardReset}); err != nil {
		return classifyGitErr("reset_hard", commitID, err)
	}
	return nil
}

func (a *GitAdapter) CurrentBranch(ctx context.Context) (string, error) {
	head, err := a.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return a.unbornBranch()
		}
		return "", classifyGitErr("current_branch", a.path, err)
	}
	return head.Name().Short(), nil
}

// HeadID returns "" with no error on a repository with no commits
// yet, so a first Push does not need a special case.
func (a *GitAdapter) HeadID(ctx context.Context) (string, error) {
	head, err := a.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", classifyGitErr("head_id", a.path, err)
	}
	return head.Hash().String(), nil
}

// unbornBranch resolves the branch name HEAD points at before any
// commit exists, by reading the symbolic HEAD reference directly.
func (a *GitAdapter) unbornBranch() (string, error) {
	ref, err := a.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", classifyGitErr("current_branch", a.path, err)
	}
	return ref.Target().Short(), nil
}

// classifyGitErr maps a go-git error into the adapter's Network/Auth/
// Conflict/State/Fatal error taxonomy.
func classifyGitErr(op, detail string, err error) error {
	if err == nil {
		return nil
	}
	kind := synerr.ScmFatal
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		kind = synerr.ScmAuth
	case errors.Is(err, transport.ErrRepositoryNotFound):
		kind = synerr.ScmNetwork
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		kind = synerr.ScmConflict
	case errors.Is(err, git.ErrRepositoryNotExists),
		errors.Is(err, git.ErrWorktreeNotClean):
		kind = synerr.ScmState
	case isNetworkish(err):
		kind = synerr.ScmNetwork
	}
	return &synerr.ScmError{Kind: kind, Op: op, Detail: detail, Err: err}
}

func isNetworkish(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "dial") ||
		strings.Contains(msg, "connection") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "no such host")
}
