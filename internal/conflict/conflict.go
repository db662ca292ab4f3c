// Package conflict implements the Conflict Resolver: given a
// divergent session, chooses and applies a resolution strategy.
package conflict

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmswd/sessync/internal/entry"
	"github.com/jmswd/sessync/internal/merge"
	"github.com/jmswd/sessync/internal/synerr"
)

// Strategy is one of the four resolution strategies, in their
// declared precedence order.
type Strategy string

const (
	SmartMerge Strategy = "smart-merge"
	KeepLocal  Strategy = "keep-local"
	KeepRemote Strategy = "keep-remote"
	KeepBoth   Strategy = "keep-both"
)

// Stats mirrors merge.Result's report, recorded only for a
// smart-merge resolution.
type Stats struct {
	LocalEntries  int `json:"local_entries"`
	RemoteEntries int `json:"remote_entries"`
	TotalEntries  int `json:"total_entries"`
	BranchCount   int `json:"branch_count"`
}

// Record is the persisted outcome of resolving one session.
type Record struct {
	SessionID string   `json:"session_id"`
	Strategy  Strategy `json:"strategy"`
	Stats     *Stats   `json:"stats,omitempty"`
	Hazard    string   `json:"hazard,omitempty"`
}

// Resolver chooses a strategy for a given session; nil means defer to
// the non-interactive default (smart-merge, falling back to
// keep-both on hazard). This is the interactive-resolver collaborator
// interface — the core ships no real implementation.
type Resolver interface {
	Choose(sessionID, projectKey string, localStats, remoteStats Stats) (Strategy, bool)
}

// NoopResolver never overrides the non-interactive default.
type NoopResolver struct{}

func (NoopResolver) Choose(string, string, Stats, Stats) (Strategy, bool) { return "", false }

// Resolve resolves one divergent session: local and remote are its
// two entry sequences, localPath is where the local file lives (and
// where Keep-remote/Smart-merge write), opStart is the operation's
// start time (used for the Keep-both sibling filename's timestamp).
func Resolve(resolver Resolver, sessionID, projectKey, localPath string, local, remote []entry.Entry, sizeCapBytes int64, opStart time.Time) (Record, error) {
	strategy := SmartMerge
	if resolver != nil {
		// local_stats/remote_stats are passed empty: computing them
		// ahead of resolveSmartMerge would mean running the merge twice
		// for an interactive resolver. Harmless today since the only
		// shipped Resolver is NoopResolver, which ignores its arguments.
		if chosen, ok := resolver.Choose(sessionID, projectKey, Stats{}, Stats{}); ok {
			strategy = chosen
		}
	}

	switch strategy {
	case SmartMerge:
		return resolveSmartMerge(sessionID, localPath, local, remote, sizeCapBytes, opStart)
	case KeepLocal:
		return Record{SessionID: sessionID, Strategy: KeepLocal}, nil
	case KeepRemote:
		if err := entry.Write(localPath, remote); err != nil {
			return Record{}, fmt.Errorf("keep-remote write %s: %w", localPath, err)
		}
		return Record{SessionID: sessionID, Strategy: KeepRemote}, nil
	case KeepBoth:
		if err := writeConflictSibling(localPath, remote, opStart); err != nil {
			return Record{}, err
		}
		return Record{SessionID: sessionID, Strategy: KeepBoth}, nil
	default:
		return Record{}, fmt.Errorf("unknown strategy %q", strategy)
	}
}

func resolveSmartMerge(sessionID, localPath string, local, remote []entry.Entry, sizeCapBytes int64, opStart time.Time) (Record, error) {
	result, err := merge.Merge(local, remote, sizeCapBytes)
	if err != nil {
		var hz *synerr.MergeHazard
		if errors.As(err, &hz) {
			if werr := writeConflictSibling(localPath, remote, opStart); werr != nil {
				return Record{}, werr
			}
			return Record{SessionID: sessionID, Strategy: KeepBoth, Hazard: string(hz.Kind)}, nil
		}
		return Record{}, err
	}

	if err := entry.Write(localPath, result.Entries); err != nil {
		return Record{}, fmt.Errorf("smart-merge write %s: %w", localPath, err)
	}
	return Record{
		SessionID: sessionID,
		Strategy:  SmartMerge,
		Stats: &Stats{
			LocalEntries:  result.LocalEntries,
			RemoteEntries: result.RemoteEntries,
			TotalEntries:  result.TotalEntries,
			BranchCount:   result.BranchCount,
		},
	}, nil
}

// writeConflictSibling writes remote's content into
// <session-id>-conflict-<YYYYMMDD-HHMMSS>.jsonl next to localPath.
func writeConflictSibling(localPath string, remote []entry.Entry, opStart time.Time) error {
	dir := filepath.Dir(localPath)
	stem := filepath.Base(localPath)
	if ext := filepath.Ext(stem); ext != "" {
		stem = stem[:len(stem)-len(ext)]
	}
	ts := opStart.UTC().Format("20060102-150405")
	siblingPath := filepath.Join(dir, fmt.Sprintf("%s-conflict-%s.jsonl", stem, ts))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return entry.Write(siblingPath, remote)
}
