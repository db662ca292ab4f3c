// Package sync implements the Sync Engine: the orchestration layer
// that drives Push, Pull, and Undo against a local projects tree, a
// mirror working copy, and an SCM Adapter.
package sync

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jmswd/sessync/internal/atomicfile"
	"github.com/jmswd/sessync/internal/conflict"
	"github.com/jmswd/sessync/internal/discovery"
	"github.com/jmswd/sessync/internal/entry"
	"github.com/jmswd/sessync/internal/filter"
	"github.com/jmswd/sessync/internal/fingerprint"
	"github.com/jmswd/sessync/internal/history"
	"github.com/jmswd/sessync/internal/lock"
	"github.com/jmswd/sessync/internal/scm"
	"github.com/jmswd/sessync/internal/snapshot"
	"github.com/jmswd/sessync/internal/synerr"
)

const maxFingerprintWorkers = 8

// Options carries the runtime knobs a collaborator config source
// resolves for one Push or Pull call.
type Options struct {
	Message            string
	Branch             string
	ExcludeAttachments bool
	PushRemote         bool
	RemoteConfigured   bool
}

// Engine wires together every component the Sync Engine orchestrates.
// One Engine serves one local-tree/mirror pair.
type Engine struct {
	Adapter    scm.Adapter
	LocalRoot  string // <config-root>/projects equivalent: where sessions actually live
	MirrorRoot string // <repo-path>/<sync-subdirectory>
	Filter     filter.Config
	Snapshots  *snapshot.Store
	History    *history.Log
	Resolver   conflict.Resolver
	SizeCap    int64 // merge hazard cap, passed straight to merge.Merge

	lockPath string
	now      func() time.Time
}

// NewEngine returns an Engine. lockPath is the path to the global
// sync.lock; resolver may be nil (conflict.NoopResolver is used).
func NewEngine(
	adapter scm.Adapter, localRoot, mirrorRoot string,
	filterCfg filter.Config, snapshots *snapshot.Store, hist *history.Log,
	resolver conflict.Resolver, sizeCap int64, lockPath string,
) *Engine {
	if resolver == nil {
		resolver = conflict.NoopResolver{}
	}
	return &Engine{
		Adapter: adapter, LocalRoot: localRoot, MirrorRoot: mirrorRoot,
		Filter: filterCfg, Snapshots: snapshots, History: hist,
		Resolver: resolver, SizeCap: sizeCap, lockPath: lockPath,
		now: time.Now,
	}
}

func (e *Engine) acquireLock() (*lock.Lock, error) {
	lk := lock.New(e.lockPath)
	err := lk.Acquire(func(age time.Duration) {
		log.Printf("sync: breaking stale lock %s (held for %s)", e.lockPath, age.Round(time.Second))
	})
	if err != nil {
		held := "unknown"
		if info, statErr := os.Stat(e.lockPath); statErr == nil {
			held = time.Since(info.ModTime()).Round(time.Second).String()
		}
		return nil, &synerr.LockHeld{LockPath: e.lockPath, HeldFor: held}
	}
	return lk, nil
}

// PushResult summarizes the outcome of Push.
type PushResult struct {
	HeadBefore string
	HeadAfter  string
	Branch     string
	Counts     history.Counts
	SnapshotID string
	Pushed     bool
	PushErr    error // non-nil when push_remote failed; commit is still retained
}

// Push fingerprints every local session file, copies the added or
// changed ones into the mirror, and commits.
func (e *Engine) Push(ctx context.Context, opts Options) (PushResult, error) {
	lk, err := e.acquireLock()
	if err != nil {
		return PushResult{}, err
	}
	defer func() {
		if rerr := lk.Release(); rerr != nil {
			log.Printf("sync: releasing lock: %v", rerr)
		}
	}()

	candidates, warnings := discovery.Walk(e.LocalRoot)
	for _, w := range warnings {
		log.Printf("discovery warning: %s: %v", w.Path, w.Err)
	}

	now := e.now()
	filterCfg := e.Filter
	filterCfg.ExcludeAttachments = filterCfg.ExcludeAttachments || opts.ExcludeAttachments
	var accepted []discovery.Candidate
	for _, c := range candidates {
		if ok, reason := filter.Accept(filterCfg, c, now); ok {
			accepted = append(accepted, c)
		} else {
			log.Printf("filter: rejected %s: %s", c.Path, reason)
		}
	}

	previousHead, err := e.Adapter.HeadID(ctx)
	if err != nil {
		return PushResult{}, err
	}
	branch := opts.Branch
	if branch == "" {
		branch, err = e.Adapter.CurrentBranch(ctx)
		if err != nil {
			return PushResult{}, err
		}
	}

	dirtyPaths := make([]string, len(accepted))
	for i, c := range accepted {
		dirtyPaths[i] = filepath.Join(c.ProjectKey, c.SessionID+".jsonl")
	}
	snapID, err := e.Snapshots.CreatePush(previousHead, branch, dirtyPaths)
	if err != nil {
		return PushResult{}, err
	}

	counts, err := e.copyCandidatesIntoMirror(accepted)
	if err != nil {
		return PushResult{}, err
	}

	if err := e.Adapter.StageAll(ctx); err != nil {
		return PushResult{}, err
	}
	message := opts.Message
	if message == "" {
		message = fmt.Sprintf("sync: %d added, %d modified", counts.Added, counts.Modified)
	}
	commitID, noChange, err := e.Adapter.Commit(ctx, message)
	if err != nil {
		return PushResult{}, err
	}

	headAfter := previousHead
	if !noChange {
		headAfter = commitID
	}

	result := PushResult{
		HeadBefore: previousHead, HeadAfter: headAfter, Branch: branch,
		Counts: counts, SnapshotID: snapID,
	}

	if opts.PushRemote && opts.RemoteConfigured {
		pr, perr := e.Adapter.Push(ctx, branch)
		if perr != nil {
			result.PushErr = perr
			log.Printf("sync: push to remote failed (commit retained): %v", result.PushErr)
		} else {
			result.Pushed = pr == scm.PushOk
		}
	}

	headBeforePtr, headAfterPtr := &result.HeadBefore, &result.HeadAfter
	snapIDPtr := &result.SnapshotID
	histEntry := history.NewEntry("push", now.UTC().Format(time.RFC3339), branch)
	histEntry.HeadBefore, histEntry.HeadAfter = headBeforePtr, headAfterPtr
	histEntry.Counts = counts
	histEntry.SnapshotID = snapIDPtr
	if err := e.History.Append(histEntry); err != nil {
		log.Printf("sync: appending history entry: %v", err)
	}

	return result, nil
}

// copyCandidatesIntoMirror fingerprints each candidate (bounded worker
// pool) and writes it into the mirror only when absent or different
// from the mirror's current copy.
func (e *Engine) copyCandidatesIntoMirror(candidates []discovery.Candidate) (history.Counts, error) {
	type fp struct {
		idx    int
		digest fingerprint.Digest
		data   []byte
		err    error
	}

	jobs := make(chan int, len(candidates))
	results := make(chan fp, len(candidates))
	workers := min(max(runtime.NumCPU(), 2), maxFingerprintWorkers)

	for range workers {
		go func() {
			for idx := range jobs {
				data, err := os.ReadFile(candidates[idx].Path)
				if err != nil {
					results <- fp{idx: idx, err: err}
					continue
				}
				results <- fp{idx: idx, digest: fingerprint.Of(data), data: data}
			}
		}()
	}
	for i := range candidates {
		jobs <- i
	}
	close(jobs)

	bodies := make([][]byte, len(candidates))
	digests := make([]fingerprint.Digest, len(candidates))
	for range candidates {
		r := <-results
		if r.err != nil {
			log.Printf("fingerprinting %s: %v", candidates[r.idx].Path, r.err)
			continue
		}
		bodies[r.idx], digests[r.idx] = r.data, r.digest
	}

	var counts history.Counts
	for i, c := range candidates {
		if bodies[i] == nil {
			continue
		}
		mirrorPath := filepath.Join(e.MirrorRoot, c.ProjectKey, c.SessionID+".jsonl")
		mirrorData, err := os.ReadFile(mirrorPath)
		switch {
		case err != nil && !os.IsNotExist(err):
			return counts, fmt.Errorf("read mirror %s: %w", mirrorPath, err)
		case err != nil:
			counts.Added++
		case fingerprint.Of(mirrorData) == digests[i]:
			counts.Unchanged++
			continue
		default:
			counts.Modified++
		}
		if err := os.MkdirAll(filepath.Dir(mirrorPath), 0o755); err != nil {
			return counts, fmt.Errorf("mkdir %s: %w", filepath.Dir(mirrorPath), err)
		}
		if err := atomicfile.WriteFile(mirrorPath, bodies[i], 0o644); err != nil {
			return counts, err
		}
	}
	return counts, nil
}

// PullResult summarizes the outcome of Pull.
type PullResult struct {
	Counts      history.Counts
	Resolutions []conflict.Record
	SnapshotID  string
}

// sessionKey pairs a project key with a session id, identifying one
// session file regardless of which tree it was discovered in.
type sessionKey struct {
	ProjectKey string
	SessionID  string
}

func relPathFor(k sessionKey) string {
	return filepath.Join(k.ProjectKey, k.SessionID+".jsonl")
}

// Pull fetches the remote, enumerates the mirror's sessions, and
// resolves each against the matching local file.
func (e *Engine) Pull(ctx context.Context, opts Options) (PullResult, error) {
	lk, err := e.acquireLock()
	if err != nil {
		return PullResult{}, err
	}
	defer func() {
		if rerr := lk.Release(); rerr != nil {
			log.Printf("sync: releasing lock: %v", rerr)
		}
	}()
	opStart := e.now()

	branch := opts.Branch
	if branch == "" {
		branch, err = e.Adapter.CurrentBranch(ctx)
		if err != nil {
			return PullResult{}, err
		}
	}
	if _, err := e.Adapter.Fetch(ctx, branch); err != nil {
		return PullResult{}, err
	}

	mirrorCandidates, warnings := discovery.Walk(e.MirrorRoot)
	for _, w := range warnings {
		log.Printf("discovery warning: %s: %v", w.Path, w.Err)
	}
	localCandidates, warnings := discovery.Walk(e.LocalRoot)
	for _, w := range warnings {
		log.Printf("discovery warning: %s: %v", w.Path, w.Err)
	}

	localByKey := make(map[sessionKey]discovery.Candidate, len(localCandidates))
	for _, c := range localCandidates {
		localByKey[sessionKey{c.ProjectKey, c.SessionID}] = c
	}

	var mirrorOnly, differing []sessionKey
	for _, mc := range mirrorCandidates {
		key := sessionKey{mc.ProjectKey, mc.SessionID}
		lc, ok := localByKey[key]
		if !ok {
			mirrorOnly = append(mirrorOnly, key)
			continue
		}
		same, err := sameContent(mc.Path, lc.Path)
		if err != nil {
			log.Printf("comparing %s: %v", key, err)
			continue
		}
		if !same {
			differing = append(differing, key)
		}
	}

	snapFiles, err := e.buildPullSnapshot(mirrorOnly, differing)
	if err != nil {
		return PullResult{}, err
	}
	snapID, err := e.Snapshots.CreatePull(snapFiles)
	if err != nil {
		return PullResult{}, err
	}

	var counts history.Counts
	counts.Unchanged = len(mirrorCandidates) - len(mirrorOnly) - len(differing)

	for _, key := range mirrorOnly {
		mirrorPath := filepath.Join(e.MirrorRoot, relPathFor(key))
		localPath := filepath.Join(e.LocalRoot, relPathFor(key))
		data, err := os.ReadFile(mirrorPath)
		if err != nil {
			return PullResult{}, fmt.Errorf("read mirror %s: %w", mirrorPath, err)
		}
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return PullResult{}, fmt.Errorf("mkdir %s: %w", filepath.Dir(localPath), err)
		}
		if err := atomicfile.WriteFile(localPath, data, 0o644); err != nil {
			return PullResult{}, err
		}
		counts.Added++
	}

	var resolutions []conflict.Record
	for _, key := range differing {
		mirrorPath := filepath.Join(e.MirrorRoot, relPathFor(key))
		localPath := filepath.Join(e.LocalRoot, relPathFor(key))

		localSess, err := entry.Parse(localPath, key.ProjectKey)
		if err != nil {
			log.Printf("parse local %s: %v", localPath, err)
			continue
		}
		remoteSess, err := entry.Parse(mirrorPath, key.ProjectKey)
		if err != nil {
			log.Printf("parse mirror %s: %v", mirrorPath, err)
			continue
		}

		rec, err := conflict.Resolve(
			e.Resolver, key.SessionID, key.ProjectKey, localPath,
			localSess.Entries, remoteSess.Entries, e.SizeCap, opStart,
		)
		if err != nil {
			log.Printf("resolving %s: %v", key.SessionID, err)
			continue
		}
		resolutions = append(resolutions, rec)
		switch rec.Strategy {
		case conflict.SmartMerge, conflict.KeepRemote:
			counts.Modified++
		case conflict.KeepBoth:
			counts.Conflicts++
		}
	}

	histEntry := history.NewEntry("pull", opStart.UTC().Format(time.RFC3339), branch)
	histEntry.Counts = counts
	histEntry.Resolutions = resolutions
	snapIDPtr := &snapID
	histEntry.SnapshotID = snapIDPtr
	if err := e.History.Append(histEntry); err != nil {
		log.Printf("sync: appending history entry: %v", err)
	}

	return PullResult{Counts: counts, Resolutions: resolutions, SnapshotID: snapID}, nil
}

// buildPullSnapshot captures the pre-pull body of every local path
// that mirror-only and differing sessions are about to touch. A
// session with no local file yet is recorded Absent so Undo knows to
// delete it rather than rewrite it.
func (e *Engine) buildPullSnapshot(mirrorOnly, differing []sessionKey) ([]snapshot.FileEntry, error) {
	keys := make([]sessionKey, 0, len(mirrorOnly)+len(differing))
	keys = append(keys, mirrorOnly...)
	keys = append(keys, differing...)

	files := make([]snapshot.FileEntry, 0, len(keys))
	for _, key := range keys {
		rel := relPathFor(key)
		localPath := filepath.Join(e.LocalRoot, rel)
		data, err := os.ReadFile(localPath)
		if err != nil {
			if os.IsNotExist(err) {
				files = append(files, snapshot.FileEntry{RelativePath: rel, Absent: true})
				continue
			}
			return nil, fmt.Errorf("snapshot read %s: %w", localPath, err)
		}
		files = append(files, snapshot.FileEntry{
			RelativePath: rel, Fingerprint: fingerprint.Of(data), Size: int64(len(data)), Body: data,
		})
	}
	return files, nil
}

func sameContent(a, b string) (bool, error) {
	da, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	db, err := os.ReadFile(b)
	if err != nil {
		return false, err
	}
	return fingerprint.Of(da) == fingerprint.Of(db), nil
}

// Undo reverts the most recent operation of the given kind ("push" or
// "pull") using its recorded snapshot.
func (e *Engine) Undo(ctx context.Context, kind string) error {
	lk, err := e.acquireLock()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := lk.Release(); rerr != nil {
			log.Printf("sync: releasing lock: %v", rerr)
		}
	}()

	k := snapshot.Kind(kind)
	m, _, err := e.Snapshots.Load(k)
	if err != nil {
		return err
	}

	switch k {
	case snapshot.Pull:
		if err := snapshot.RestorePull(m, e.LocalRoot); err != nil {
			return err
		}
	case snapshot.Push:
		if err := snapshot.RestorePush(ctx, m, e.Adapter); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown snapshot kind %q", kind)
	}

	if err := e.History.MarkUndone(m.OpUUID); err != nil {
		log.Printf("sync: marking history entry undone: %v", err)
	}
	return e.Snapshots.Delete(k)
}
