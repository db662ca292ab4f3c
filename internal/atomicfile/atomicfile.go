// Package atomicfile writes files and directories the way every
// mutation in this module must: write to a temp sibling, fsync, then
// rename over the final path, so a crash mid-write never leaves a
// partial file in place.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile atomically replaces path with data, using perm for the
// temp file's mode.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsync temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// ReplaceDir atomically replaces dst with the directory currently
// staged at src. A non-empty dst cannot be renamed over directly (the
// OS rejects that), so dst is first moved aside to a sibling path,
// src is renamed into dst's place, and only then is the old directory
// removed. A crash between the two renames leaves only the sibling
// (dst is missing); a crash after the second rename but before the
// removal leaves both dst and the sibling on disk.
func ReplaceDir(src, dst string) error {
	old := dst + ".old-" + filepath.Base(src)
	hadOld := false
	if _, err := os.Stat(dst); err == nil {
		if err := os.Rename(dst, old); err != nil {
			return fmt.Errorf("move aside %s: %w", dst, err)
		}
		hadOld = true
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", dst, err)
	}

	if err := os.Rename(src, dst); err != nil {
		if hadOld {
			_ = os.Rename(old, dst) // best-effort restore
		}
		return fmt.Errorf("rename %s to %s: %w", src, dst, err)
	}

	if hadOld {
		if err := os.RemoveAll(old); err != nil {
			return fmt.Errorf("remove stale %s: %w", old, err)
		}
	}
	return nil
}

// TempDirSibling creates a new empty directory next to dst suitable
// as a staging area for a subsequent ReplaceDir(tempDir, dst).
func TempDirSibling(dst, prefix string) (string, error) {
	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("create parent %s: %w", parent, err)
	}
	return os.MkdirTemp(parent, prefix+"-*")
}
