package scm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/jmswd/sessync/internal/synerr"
)

// HgAdapter is the Adapter backend for Mercurial. No Go-native
// Mercurial client library was found anywhere in the retrieved
// example corpus, so this one backend shells out to the hg binary
// directly rather than pulling in an unsourced dependency.
type HgAdapter struct {
	path     string
	userName string
	userMail string
}

// NewHgAdapter returns an HgAdapter rooted at path.
func NewHgAdapter(path string) *HgAdapter {
	return &HgAdapter{path: path, userName: "sessync", userMail: "sessync@localhost"}
}

func (a *HgAdapter) Init(ctx context.Context, path, remote string) error {
	a.path = path
	if _, err := a.run(ctx, path, "root"); err == nil {
		return nil
	}
	if remote != "" {
		if _, err := a.run(ctx, ".", "clone", remote, path); err != nil {
			return err
		}
		return nil
	}
	if _, err := a.run(ctx, path, "init"); err != nil {
		return err
	}
	return nil
}

func (a *HgAdapter) StageAll(ctx context.Context) error {
	_, err := a.run(ctx, a.path, "addremove")
	return err
}

func (a *HgAdapter) Commit(ctx context.Context, message string) (string, bool, error) {
	out, err := a.runRaw(ctx, a.path, "status")
	if err != nil {
		return "", false, err
	}
	if strings.TrimSpace(out) == "" {
		return "", true, nil
	}

	user := fmt.Sprintf("%s <%s>", a.userName, a.userMail)
	if _, err := a.run(ctx, a.path, "commit", "-m", message, "-u", user); err != nil {
		return "", false, err
	}
	id, err := a.runRaw(ctx, a.path, "id", "-i")
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(id), "+")), false, nil
}

func (a *HgAdapter) Fetch(ctx context.Context, branch string) (bool, error) {
	before, _ := a.runRaw(ctx, a.path, "id", "-i", "-r", "default")
	if _, err := a.run(ctx, a.path, "pull", "-u"); err != nil {
		if strings.Contains(err.Error(), "repository not configured") {
			return false, nil
		}
		return false, err
	}
	after, _ := a.runRaw(ctx, a.path, "id", "-i", "-r", "default")
	return before != after, nil
}

func (a *HgAdapter) Push(ctx context.Context, branch string) (PushResult, error) {
	_, err := a.runRaw(ctx, a.path, "push")
	if err != nil {
		if strings.Contains(err.Error(), "no changes found") {
			return PushUpToDate, nil
		}
		return "", err
	}
	return PushOk, nil
}

func (a *HgAdapter) ResetHard(ctx context.Context, commitID string) error {
	_, err := a.run(ctx, a.path, "update", "--clean", "-r", commitID)
	return err
}

func (a *HgAdapter) CurrentBranch(ctx context.Context) (string, error) {
	out, err := a.runRaw(ctx, a.path, "branch")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (a *HgAdapter) HeadID(ctx context.Context) (string, error) {
	out, err := a.runRaw(ctx, a.path, "id", "-i")
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(strings.TrimSpace(out), "+"), nil
}

func (a *HgAdapter) run(ctx context.Context, dir string, args ...string) (string, error) {
	return a.runRaw(ctx, dir, args...)
}

func (a *HgAdapter) runRaw(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "hg", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), classifyHgErr(args[0], strings.Join(args, " "), stderr.String(), err)
	}
	return stdout.String(), nil
}

func classifyHgErr(op, detail, stderr string, err error) error {
	kind := synerr.ScmFatal
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "authorization") || strings.Contains(lower, "password"):
		kind = synerr.ScmAuth
	case strings.Contains(lower, "could not connect") || strings.Contains(lower, "timed out") || strings.Contains(lower, "no route to host"):
		kind = synerr.ScmNetwork
	case strings.Contains(lower, "abort: conflicting"):
		kind = synerr.ScmConflict
	}
	if stderr != "" {
		detail = strings.TrimSpace(stderr)
	}
	return &synerr.ScmError{Kind: kind, Op: op, Detail: detail, Err: err}
}
