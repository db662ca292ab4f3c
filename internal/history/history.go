// Package history implements the Operation History: an append-only,
// bounded log of recent sync operations, referenced by undo.
package history

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/jmswd/sessync/internal/atomicfile"
	"github.com/jmswd/sessync/internal/conflict"
)

// DefaultCap is the default number of entries retained.
const DefaultCap = 5

// Counts is the per-operation summary recorded on every entry.
type Counts struct {
	Added     int `json:"added"`
	Modified  int `json:"modified"`
	Conflicts int `json:"conflicts"`
	Unchanged int `json:"unchanged"`
}

// Entry is one operation history record.
type Entry struct {
	ID          string            `json:"id"`
	Kind        string            `json:"kind"` // "push" or "pull"
	Timestamp   string            `json:"ts"`
	Branch      string            `json:"branch"`
	HeadBefore  *string           `json:"head_before"`
	HeadAfter   *string           `json:"head_after"`
	Counts      Counts            `json:"counts"`
	Resolutions []conflict.Record `json:"resolutions,omitempty"`
	SnapshotID  *string           `json:"snapshot_id"`
	Undone      bool              `json:"undone"`
	Host        string            `json:"host,omitempty"`
}

// NewEntry returns an Entry with a fresh id and the local machine's
// hostname stamped in, so a log shared by two machines stays
// attributable.
func NewEntry(kind, ts, branch string) Entry {
	host, _ := os.Hostname()
	return Entry{ID: uuid.New().String(), Kind: kind, Timestamp: ts, Branch: branch, Host: host}
}

// Log is the append-only history at <state-root>/operation-history.json.
type Log struct {
	path    string
	maxSize int
}

// New returns a Log backed by path, capped at maxSize entries
// (DefaultCap when maxSize <= 0).
func New(path string, maxSize int) *Log {
	if maxSize <= 0 {
		maxSize = DefaultCap
	}
	return &Log{path: path, maxSize: maxSize}
}

// Load reads the log, newest first. A corrupt or missing file is
// treated as empty, with a warning logged for corruption (not for a
// simply-absent file, which is the expected first-run state).
func (l *Log) Load() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("warning: corrupt operation history at %s, treating as empty: %v", l.path, err)
		return nil, nil
	}
	return entries, nil
}

// Append prepends entry to the log and truncates to cap, saving
// atomically.
func (l *Log) Append(entry Entry) error {
	entries, err := l.Load()
	if err != nil {
		return err
	}
	entries = append([]Entry{entry}, entries...)
	if len(entries) > l.maxSize {
		entries = entries[:l.maxSize]
	}
	return l.save(entries)
}

// MarkUndone sets Undone=true on the entry with the given snapshot
// id and saves the log.
func (l *Log) MarkUndone(snapshotID string) error {
	entries, err := l.Load()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].SnapshotID != nil && *entries[i].SnapshotID == snapshotID {
			entries[i].Undone = true
		}
	}
	return l.save(entries)
}

func (l *Log) save(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	return atomicfile.WriteFile(l.path, data, 0o644)
}
