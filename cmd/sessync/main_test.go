package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStateDir(t *testing.T) {
	t.Run("EnvOverride", func(t *testing.T) {
		t.Setenv("SESSYNC_STATE_DIR", "/tmp/custom-state")
		if got := stateDir(); got != "/tmp/custom-state" {
			t.Errorf("stateDir() = %q, want /tmp/custom-state", got)
		}
	})

	t.Run("DefaultsUnderHome", func(t *testing.T) {
		os.Unsetenv("SESSYNC_STATE_DIR")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory available")
		}
		want := filepath.Join(home, ".sessync")
		if got := stateDir(); got != want {
			t.Errorf("stateDir() = %q, want %q", got, want)
		}
	})
}

func TestLocalProjectsDir(t *testing.T) {
	t.Run("EnvOverride", func(t *testing.T) {
		t.Setenv("SESSYNC_PROJECTS_DIR", "/tmp/custom-projects")
		if got := localProjectsDir(); got != "/tmp/custom-projects" {
			t.Errorf("localProjectsDir() = %q, want /tmp/custom-projects", got)
		}
	})

	t.Run("DefaultsUnderHome", func(t *testing.T) {
		os.Unsetenv("SESSYNC_PROJECTS_DIR")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory available")
		}
		want := filepath.Join(home, ".claude", "projects")
		if got := localProjectsDir(); got != want {
			t.Errorf("localProjectsDir() = %q, want %q", got, want)
		}
	})
}

func TestShortHead(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "(none)"},
		{"abc123", "abc123"},
		{"0123456789abcdef", "0123456789"},
	}
	for _, c := range cases {
		if got := shortHead(c.in); got != c.want {
			t.Errorf("shortHead(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// TestInitPushPullHistoryUndo exercises the full CLI happy path against
// a real local git mirror: init, push, pull, history, and undo all in
// one sequence, the way a first-time user would run them by hand.
func TestInitPushPullHistoryUndo(t *testing.T) {
	stateRoot := t.TempDir()
	mirrorRoot := filepath.Join(t.TempDir(), "mirror")
	localRoot := t.TempDir()

	t.Setenv("SESSYNC_STATE_DIR", stateRoot)
	t.Setenv("SESSYNC_PROJECTS_DIR", localRoot)

	runInit([]string{"-repo", mirrorRoot, "-branch", "main"})

	projectDir := filepath.Join(localRoot, "proj1")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatal(err)
	}
	session := `{"uuid":"u1","sessionId":"s1","type":"user","timestamp":"2026-01-01T00:00:00Z","message":{"role":"user","content":"hi"}}` + "\n"
	if err := os.WriteFile(filepath.Join(projectDir, "s1.jsonl"), []byte(session), 0o644); err != nil {
		t.Fatal(err)
	}

	runPush([]string{"-push-remote=false"})
	runPull([]string{})
	runHistory([]string{})
	runUndo([]string{"push"})
}
