// Package merge implements the Merge Engine, the structured
// smart-merge of two JSONL entry sequences representing the same
// session, using uuid/parentUuid tree structure with timestamp
// tiebreak.
package merge

import (
	"sort"

	"github.com/jmswd/sessync/internal/entry"
	"github.com/jmswd/sessync/internal/fingerprint"
	"github.com/jmswd/sessync/internal/synerr"
)

// Result is the report the engine produces on success.
type Result struct {
	Entries       []entry.Entry
	LocalEntries  int
	RemoteEntries int
	TotalEntries  int
	BranchCount   int
}

// Merge deterministically merges local and remote, which must be two
// versions of the same session. sizeCapBytes is the Filter's
// max_file_size_bytes; a merged tree whose traversal would exceed
// 2*sizeCapBytes aborts with a SizeExceeded hazard.
func Merge(local, remote []entry.Entry, sizeCapBytes int64) (Result, error) {
	m := &merger{local: local, remote: remote, sizeCap: sizeCapBytes}
	return m.run()
}

type merger struct {
	local, remote []entry.Entry
	sizeCap       int64
}

func (m *merger) run() (Result, error) {
	localByUUID := indexByUUID(m.local)
	remoteByUUID := indexByUUID(m.remote)

	merged := make(map[string]entry.Entry)
	for id, e := range localByUUID {
		merged[id] = e
	}
	for id, re := range remoteByUUID {
		if le, ok := localByUUID[id]; ok {
			winner, err := resolveEdit(le, re)
			if err != nil {
				return Result{}, err
			}
			merged[id] = winner
		} else {
			merged[id] = re
		}
	}

	children, roots, err := buildForest(merged, m.local, m.remote)
	if err != nil {
		return Result{}, err
	}

	if err := detectCycles(merged, children, roots); err != nil {
		return Result{}, err
	}

	var ordered []entry.Entry
	var totalBytes int64
	visited := make(map[string]bool)
	for _, root := range roots {
		seq, bytesUsed, err := preorder(root, merged, children, visited, m.sizeCap)
		if err != nil {
			return Result{}, err
		}
		ordered = append(ordered, seq...)
		totalBytes += bytesUsed
	}

	branchCount := 0
	for _, kids := range children {
		if len(kids) > 1 {
			branchCount++
		}
	}

	nonUUID := mergeNonUUID(m.local, m.remote)
	ordered = append(ordered, nonUUID...)

	return Result{
		Entries:       ordered,
		LocalEntries:  len(m.local),
		RemoteEntries: len(m.remote),
		TotalEntries:  len(ordered),
		BranchCount:   branchCount,
	}, nil
}

func indexByUUID(entries []entry.Entry) map[string]entry.Entry {
	out := make(map[string]entry.Entry)
	for _, e := range entries {
		if e.HasUUID() {
			out[e.UUID] = e
		}
	}
	return out
}

// resolveEdit picks the winner for a uuid present on both sides.
func resolveEdit(l, r entry.Entry) (entry.Entry, error) {
	if string(l.Raw) == string(r.Raw) {
		return l, nil
	}
	if l.ParentUUID != r.ParentUUID {
		return entry.Entry{}, &synerr.MergeHazard{
			Kind: synerr.HazardSplitParent, SessionID: l.SessionID,
			Detail: "uuid " + l.UUID + " has distinct parentUuid on each side",
		}
	}
	switch {
	case l.Timestamp.After(r.Timestamp):
		return l, nil
	case r.Timestamp.After(l.Timestamp):
		return r, nil
	default:
		if string(l.Raw) > string(r.Raw) {
			return l, nil
		}
		return r, nil
	}
}

// buildForest computes, for the merged uuid set, the ordered children
// list per parent and the ordered list of roots (parentUuid missing
// or referencing a uuid outside the merged set), first-appearance
// order taken from local then remote.
func buildForest(merged map[string]entry.Entry, local, remote []entry.Entry) (map[string][]string, []string, error) {
	childrenL := orderedChildren(local)
	childrenR := orderedChildren(remote)

	children := make(map[string][]string)
	parents := make(map[string]struct{})
	for p := range childrenL {
		parents[p] = struct{}{}
	}
	for p := range childrenR {
		parents[p] = struct{}{}
	}
	for p := range parents {
		cl := childrenL[p]
		cr := childrenR[p]
		inR := make(map[string]bool, len(cr))
		for _, c := range cr {
			inR[c] = true
		}
		inL := make(map[string]bool, len(cl))
		for _, c := range cl {
			inL[c] = true
		}

		var ordered []string
		seen := make(map[string]bool)
		for _, c := range cl {
			if inR[c] && !seen[c] {
				ordered = append(ordered, c)
				seen[c] = true
			}
		}
		for _, c := range cl {
			if !inR[c] && !seen[c] {
				ordered = append(ordered, c)
				seen[c] = true
			}
		}
		for _, c := range cr {
			if !inL[c] && !seen[c] {
				ordered = append(ordered, c)
				seen[c] = true
			}
		}
		children[p] = ordered
	}

	var roots []string
	seenRoot := make(map[string]bool)
	for _, seq := range [][]entry.Entry{local, remote} {
		for _, e := range seq {
			if !e.HasUUID() || seenRoot[e.UUID] {
				continue
			}
			if _, known := merged[e.ParentUUID]; e.ParentUUID == "" || !known {
				roots = append(roots, e.UUID)
				seenRoot[e.UUID] = true
			}
		}
	}

	return children, roots, nil
}

// orderedChildren groups seq's uuid-bearing entries by parentUuid,
// preserving seq's order within each group.
func orderedChildren(seq []entry.Entry) map[string][]string {
	out := make(map[string][]string)
	for _, e := range seq {
		if !e.HasUUID() || e.ParentUUID == "" {
			continue
		}
		out[e.ParentUUID] = append(out[e.ParentUUID], e.UUID)
	}
	return out
}

// detectCycles walks the children lists depth-first, first from every
// root and then from any merged entry no root reached, failing if any
// entry is reachable from itself.
func detectCycles(merged map[string]entry.Entry, children map[string][]string, roots []string) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(merged))

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case gray:
			return &synerr.MergeHazard{Kind: synerr.HazardCircularReference, SessionID: merged[id].SessionID, Detail: "cycle at uuid " + id}
		case black:
			return nil
		}
		color[id] = gray
		for _, c := range children[id] {
			if err := visit(c); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}

	for _, r := range roots {
		if err := visit(r); err != nil {
			return err
		}
	}
	// Any uuid not reachable from a declared root but still present
	// in the merged set is part of a cycle (its "root" points back
	// into the cycle itself, so the roots pass above never reached it).
	for id := range merged {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// preorder walks the tree rooted at id, returning entries in the
// order visited and the cumulative raw byte size consumed.
func preorder(id string, merged map[string]entry.Entry, children map[string][]string, visited map[string]bool, sizeCap int64) ([]entry.Entry, int64, error) {
	if visited[id] {
		return nil, 0, nil
	}
	visited[id] = true

	e, ok := merged[id]
	if !ok {
		return nil, 0, nil
	}
	out := []entry.Entry{e}
	total := int64(len(e.Raw))

	for _, c := range children[id] {
		sub, subBytes, err := preorder(c, merged, children, visited, sizeCap)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, sub...)
		total += subBytes
		if sizeCap > 0 && total > 2*sizeCap {
			return nil, 0, &synerr.MergeHazard{Kind: synerr.HazardSizeExceeded, SessionID: e.SessionID, Detail: "merged tree exceeds twice the size cap"}
		}
	}
	return out, total, nil
}

type nonUUIDKey struct {
	typ  string
	ts   string
	hash fingerprint.Digest
}

func keyOf(e entry.Entry) nonUUIDKey {
	return nonUUIDKey{typ: e.Type, ts: e.TimestampRaw, hash: fingerprint.Of(e.Raw)}
}

// mergeNonUUID collects entries without uuid from both sides,
// deduplicated by fallback key, ordered by timestamp when present and
// by stable input order (local before remote) otherwise.
func mergeNonUUID(local, remote []entry.Entry) []entry.Entry {
	seen := make(map[nonUUIDKey]bool)
	var out []entry.Entry
	for _, seq := range [][]entry.Entry{local, remote} {
		for _, e := range seq {
			if e.HasUUID() {
				continue
			}
			k := keyOf(e)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Timestamp.IsZero() || b.Timestamp.IsZero() {
			return false
		}
		return a.Timestamp.Before(b.Timestamp)
	})
	return out
}
