package snapshot

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jmswd/sessync/internal/atomicfile"
	"github.com/jmswd/sessync/internal/scm"
)

// RestorePull rewrites every file the pull snapshot recorded under
// localRoot to its pre-pull body, deleting paths the snapshot
// recorded as absent.
func RestorePull(m *Manifest, localRoot string) error {
	for _, f := range m.Files {
		path := filepath.Join(localRoot, f.RelativePath)
		if f.Absent {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := atomicfile.WriteFile(path, f.Body, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// RestorePush resets the mirror's branch back to the snapshot's
// previous_head.
func RestorePush(ctx context.Context, m *Manifest, adapter scm.Adapter) error {
	return adapter.ResetHard(ctx, m.PreviousHead)
}
