// Package lock implements the global sync.lock that serializes
// mutating operations (push, pull, undo) on one host.
package lock

import (
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// StaleAfter is the age beyond which a held lock may be broken after
// reporting.
const StaleAfter = 1 * time.Hour

// Lock wraps a flock.Flock with stale-lock-break behavior: a lock
// older than StaleAfter is removed (with a warning) before a fresh
// acquire attempt, rather than blocking forever.
type Lock struct {
	path string
	fl   *flock.Flock
}

// New returns a Lock for the given lockfile path. The lockfile is not
// touched until Acquire is called.
func New(path string) *Lock {
	return &Lock{path: path, fl: flock.New(path)}
}

// Acquire takes the lock, breaking a stale (>StaleAfter) lock first
// if one is found. onStaleBreak, if non-nil, is called with a
// human-readable report before the stale lock is removed.
func (l *Lock) Acquire(onStaleBreak func(age time.Duration)) error {
	if age, stale := l.staleAge(); stale {
		if onStaleBreak != nil {
			onStaleBreak(age)
		}
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("breaking stale lock %s: %w", l.path, err)
		}
	}

	locked, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock %s: %w", l.path, err)
	}
	if locked {
		return nil
	}

	if age, stale := l.staleAge(); stale {
		if onStaleBreak != nil {
			onStaleBreak(age)
		}
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("breaking stale lock %s: %w", l.path, err)
		}
		locked, err = l.fl.TryLock()
		if err != nil {
			return fmt.Errorf("acquiring lock %s after break: %w", l.path, err)
		}
		if locked {
			return nil
		}
	}

	return fmt.Errorf("lock held: %s", l.path)
}

// Release releases the lock and removes the lockfile.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("releasing lock %s: %w", l.path, err)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lockfile %s: %w", l.path, err)
	}
	return nil
}

func (l *Lock) staleAge() (time.Duration, bool) {
	info, err := os.Stat(l.path)
	if err != nil {
		return 0, false
	}
	age := time.Since(info.ModTime())
	return age, age > StaleAfter
}
