package lock

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sync.lock")

	l := New(path)
	if err := l.Acquire(nil); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected lockfile removed, stat err = %v", err)
	}
}

func TestAcquire_HeldByOther(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sync.lock")

	first := New(path)
	if err := first.Acquire(nil); err != nil {
		t.Fatalf("Acquire (first): %v", err)
	}
	defer first.Release()

	second := New(path)
	if err := second.Acquire(nil); err == nil {
		t.Fatal("expected second Acquire to fail while first holds the lock")
	}
}

func TestAcquire_BreaksStaleLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sync.lock")

	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-2 * StaleAfter)
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatal(err)
	}

	var brokenAge time.Duration
	l := New(path)
	if err := l.Acquire(func(age time.Duration) { brokenAge = age }); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	if brokenAge <= StaleAfter {
		t.Fatalf("expected stale-break callback with age > %v, got %v", StaleAfter, brokenAge)
	}
}
