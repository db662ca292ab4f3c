// Package filter implements the accept/reject predicate over a
// discovered candidate session.
package filter

import (
	"path/filepath"
	"time"

	"github.com/jmswd/sessync/internal/discovery"
)

// DefaultMaxFileSizeBytes is the default size cap, 10 MiB.
const DefaultMaxFileSizeBytes = 10 * 1024 * 1024

// Config is the Filter's configuration.
type Config struct {
	ExcludeOlderThanDays int // 0 means disabled
	IncludePatterns      []string
	ExcludePatterns      []string
	MaxFileSizeBytes     int64 // 0 means DefaultMaxFileSizeBytes

	// ExcludeAttachments rejects non-.jsonl siblings carried along with
	// a session. Discovery currently only walks .jsonl files, so this
	// has no candidate to act on yet; it is wired here so Discovery can
	// grow to surface attachment siblings as Candidates without any
	// change to this predicate or to cmd/sessync's -exclude-attachments
	// flag.
	ExcludeAttachments bool
}

// maxSize returns the effective size cap, applying the default when
// unset.
func (c Config) maxSize() int64 {
	if c.MaxFileSizeBytes <= 0 {
		return DefaultMaxFileSizeBytes
	}
	return c.MaxFileSizeBytes
}

// Accept reports whether c passes the filter, evaluated against now.
// Exclude takes precedence over include when both match.
func Accept(cfg Config, c discovery.Candidate, now time.Time) (bool, string) {
	// Every Candidate discovery yields today already ends in .jsonl, so
	// this never rejects anything in practice; see the ExcludeAttachments
	// field comment.
	if cfg.ExcludeAttachments && filepath.Ext(c.Path) != ".jsonl" {
		return false, "attachment excluded"
	}

	if cfg.ExcludeOlderThanDays > 0 {
		age := now.Sub(c.ModTime)
		if age > time.Duration(cfg.ExcludeOlderThanDays)*24*time.Hour {
			return false, "older than exclude_older_than_days"
		}
	}

	if c.Size > cfg.maxSize() {
		return false, "exceeds max_file_size_bytes"
	}

	if matchesAny(cfg.ExcludePatterns, c.ProjectKey) {
		return false, "matched exclude_patterns"
	}

	if len(cfg.IncludePatterns) > 0 && !matchesAny(cfg.IncludePatterns, c.ProjectKey) {
		return false, "did not match include_patterns"
	}

	return true, ""
}

func matchesAny(patterns []string, s string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, s); err == nil && ok {
			return true
		}
	}
	return false
}
