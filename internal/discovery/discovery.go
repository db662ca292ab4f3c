// Package discovery walks the local projects root and yields
// candidate sessions, without reading a file's body beyond what is
// needed to resolve a fallback session-id.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jmswd/sessync/internal/synerr"
)

// Candidate is one discovered session, not yet filtered.
type Candidate struct {
	ProjectKey string
	SessionID  string
	Path       string
	Size       int64
	ModTime    time.Time
	Summary    string // best-effort, see entry.Session.Summary
}

// Warning is a non-fatal problem encountered walking a single path;
// Discovery skips the path and continues.
type Warning struct {
	Path string
	Err  error
}

// Walk walks root (<projects-root>/<project-key>/<session-id>.jsonl)
// single-pass, following symlinks once and rejecting cycles by
// device+inode. Returns candidates in deterministic (path-sorted)
// order plus any per-file warnings collected along the way.
func Walk(root string) ([]Candidate, []Warning) {
	var candidates []Candidate
	var warnings []Warning

	seen := newInodeSet()

	projectEntries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []Warning{{Path: root, Err: err}}
	}

	for _, proj := range projectEntries {
		projPath := filepath.Join(root, proj.Name())
		info, err := os.Stat(projPath) // follows one symlink level
		if err != nil {
			warnings = append(warnings, Warning{Path: projPath, Err: err})
			continue
		}
		if !info.IsDir() {
			continue
		}
		if !seen.addOnce(info) {
			warnings = append(warnings, Warning{
				Path: projPath,
				Err:  fmt.Errorf("cycle detected, skipping"),
			})
			continue
		}

		sessionEntries, err := os.ReadDir(projPath)
		if err != nil {
			warnings = append(warnings, Warning{Path: projPath, Err: err})
			continue
		}

		for _, sf := range sessionEntries {
			if sf.IsDir() || !strings.HasSuffix(sf.Name(), ".jsonl") {
				continue
			}
			path := filepath.Join(projPath, sf.Name())
			sinfo, err := sf.Info()
			if err != nil {
				warnings = append(warnings, Warning{Path: path, Err: &synerr.DiscoveryIO{Path: path, Err: err}})
				continue
			}

			c := Candidate{
				ProjectKey: proj.Name(),
				Path:       path,
				Size:       sinfo.Size(),
				ModTime:    sinfo.ModTime(),
			}

			stem := strings.TrimSuffix(sf.Name(), ".jsonl")
			if isUUID(stem) {
				c.SessionID = stem
			} else if sid, summary, err := peekSessionID(path); err != nil {
				warnings = append(warnings, Warning{Path: path, Err: &synerr.DiscoveryIO{Path: path, Err: err}})
				continue
			} else {
				if sid != "" {
					c.SessionID = sid
				} else {
					c.SessionID = stem
				}
				c.Summary = summary
			}

			candidates = append(candidates, c)
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Path < candidates[j].Path })
	return candidates, warnings
}

// peekSessionID reads just enough of path to extract the first
// entry's sessionId (for the fallback naming rule) and a best-effort
// summary, without a full Parser pass.
func peekSessionID(path string) (sessionID, summary string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	const maxPeek = 64 * 1024
	buf := make([]byte, maxPeek)
	n, readErr := f.Read(buf)
	if readErr != nil && n == 0 {
		return "", "", nil
	}
	data := buf[:n]

	end := 0
	for end < len(data) && data[end] != '\n' {
		end++
	}
	line := data[:end]
	if !gjson.ValidBytes(line) {
		return "", "", nil
	}
	lineStr := string(line)
	sessionID = gjson.Get(lineStr, "sessionId").Str
	if gjson.Get(lineStr, "type").Str == "user" {
		summary = gjson.Get(lineStr, "message.content").String()
		summary = strings.TrimSpace(strings.ReplaceAll(summary, "\n", " "))
		if len(summary) > 120 {
			summary = summary[:120] + "..."
		}
	}
	return sessionID, summary, nil
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, c := range s {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			if !isHex(c) {
				return false
			}
		}
	}
	return true
}

func isHex(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
