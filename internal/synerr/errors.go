// Package synerr defines the typed error kinds the core distinguishes,
// each carrying enough structure for a caller to build the "category,
// path/session id, one-line hint" user-visible surface without
// string-parsing an error message.
package synerr

import "fmt"

// ScmKind classifies an SCM Adapter failure.
type ScmKind string

const (
	ScmNetwork  ScmKind = "network"
	ScmAuth     ScmKind = "auth"
	ScmConflict ScmKind = "conflict"
	ScmState    ScmKind = "state"
	ScmFatal    ScmKind = "fatal"
)

// NotInitialized means the mirror/state directory has not been set up.
type NotInitialized struct {
	Path string
}

func (e *NotInitialized) Error() string {
	return fmt.Sprintf("not initialized: %s", e.Path)
}

func (e *NotInitialized) Hint() string {
	return "run setup to create the mirror before syncing"
}

// LockHeld means another sync operation already holds the global lock.
type LockHeld struct {
	LockPath string
	HeldFor  string
}

func (e *LockHeld) Error() string {
	return fmt.Sprintf("lock held: %s (held for %s)", e.LockPath, e.HeldFor)
}

func (e *LockHeld) Hint() string {
	return "wait for the other sync to finish, or remove the lock if it is stale"
}

// DiscoveryIO wraps a filesystem error encountered while walking the
// local projects root for a single path. Discovery skips the path and
// continues; this type exists for the warning surfaced to the caller.
type DiscoveryIO struct {
	Path string
	Err  error
}

func (e *DiscoveryIO) Error() string {
	return fmt.Sprintf("discovery io error at %s: %v", e.Path, e.Err)
}

func (e *DiscoveryIO) Unwrap() error { return e.Err }

func (e *DiscoveryIO) Hint() string {
	return "check file permissions under the projects root"
}

// ParseError names the file and 1-based line number of a malformed
// JSONL line, or a structural problem with the whole file (Line == 0).
type ParseError struct {
	Path   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s:%d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Reason)
}

func (e *ParseError) Hint() string {
	return "inspect the offending line; the file was skipped, not modified"
}

// FilterRejected is informational: a candidate session did not pass
// the configured Filter. Not an error condition for the caller.
type FilterRejected struct {
	ProjectKey string
	SessionID  string
	Reason     string
}

func (e *FilterRejected) Error() string {
	return fmt.Sprintf("filtered out %s/%s: %s", e.ProjectKey, e.SessionID, e.Reason)
}

// ScmError wraps a classified SCM Adapter failure.
type ScmError struct {
	Kind   ScmKind
	Op     string
	Detail string
	Err    error
}

func (e *ScmError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scm %s (%s): %s: %v", e.Op, e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("scm %s (%s): %s", e.Op, e.Kind, e.Detail)
}

func (e *ScmError) Unwrap() error { return e.Err }

func (e *ScmError) Hint() string {
	switch e.Kind {
	case ScmNetwork:
		return "check network connectivity to the remote and retry"
	case ScmAuth:
		return "check credentials for the remote"
	case ScmConflict:
		return "the backend reported a conflict outside the merge engine's control"
	default:
		return "inspect the mirror's working tree state"
	}
}

// MergeHazardKind names a condition under which the Merge Engine
// refuses to produce output.
type MergeHazardKind string

const (
	HazardCircularReference MergeHazardKind = "CircularReference"
	HazardSplitParent       MergeHazardKind = "SplitParent"
	HazardSizeExceeded      MergeHazardKind = "SizeExceeded"
	HazardMixedSessionID    MergeHazardKind = "MixedSessionID"
)

// MergeHazard is returned by the Merge Engine when it aborts.
type MergeHazard struct {
	Kind      MergeHazardKind
	SessionID string
	Detail    string
}

func (e *MergeHazard) Error() string {
	return fmt.Sprintf("merge hazard %s for session %s: %s", e.Kind, e.SessionID, e.Detail)
}

func (e *MergeHazard) Hint() string {
	return "smart-merge was skipped; a keep-both conflict file was written instead"
}

// SnapshotIO means a Snapshot Store operation failed, aborting the
// enclosing sync operation before any mutation.
type SnapshotIO struct {
	Kind string // "pull" or "push"
	Err  error
}

func (e *SnapshotIO) Error() string {
	return fmt.Sprintf("snapshot io error (%s): %v", e.Kind, e.Err)
}

func (e *SnapshotIO) Unwrap() error { return e.Err }

func (e *SnapshotIO) Hint() string {
	return "the operation was aborted before any local or mirror mutation"
}

// NothingToUndo means undo(kind) found no matching snapshot.
type NothingToUndo struct {
	Kind string
}

func (e *NothingToUndo) Error() string {
	return fmt.Sprintf("nothing to undo: no %s snapshot", e.Kind)
}

func (e *NothingToUndo) Hint() string {
	return "undo only works immediately after the matching push or pull"
}

// CorruptState means a snapshot manifest could not be read or parsed.
// snapshot.Store.Load returns it as an error, so the undo that needed
// the manifest fails. (A corrupt operation history does not use this
// type: history.Log.Load treats it as empty with a logged warning.)
type CorruptState struct {
	Path string
	Err  error
}

func (e *CorruptState) Error() string {
	return fmt.Sprintf("corrupt state file %s: %v", e.Path, e.Err)
}

func (e *CorruptState) Unwrap() error { return e.Err }

func (e *CorruptState) Hint() string {
	return "the file could not be parsed; inspect it manually if data loss is suspected"
}
