package entry

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jmswd/sessync/internal/fingerprint"
	"github.com/jmswd/sessync/internal/synerr"
	"github.com/jmswd/sessync/internal/timeutil"
)

const (
	initialScanBufSize = 64 * 1024
	maxScanTokenSize    = 20 * 1024 * 1024
)

// Parse reads path (a <session-id>.jsonl file under projectKey) into a
// Session. A malformed line aborts with a *synerr.ParseError naming
// the 1-based line number; a second, distinct, non-empty sessionId
// later in the file aborts the same way, tagged "mixed-session-id".
func Parse(path, projectKey string) (Session, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Session{}, fmt.Errorf("stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, fmt.Errorf("read %s: %w", path, err)
	}

	sess := Session{
		ProjectKey:  projectKey,
		Path:        path,
		SessionIDs:  make(map[string]struct{}),
		ByteLength:  info.Size(),
		Fingerprint: fingerprint.Of(data),
	}

	sessionID := ""

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, initialScanBufSize), maxScanTokenSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return Session{}, &synerr.ParseError{Path: path, Line: lineNo, Reason: "not valid JSON"}
		}

		lineStr := string(line)
		e := Entry{
			UUID:         gjson.Get(lineStr, "uuid").Str,
			ParentUUID:   gjson.Get(lineStr, "parentUuid").Str,
			SessionID:    gjson.Get(lineStr, "sessionId").Str,
			Type:         gjson.Get(lineStr, "type").Str,
			TimestampRaw: gjson.Get(lineStr, "timestamp").Str,
			Raw:          append([]byte(nil), line...),
		}
		e.Timestamp = timeutil.Parse(e.TimestampRaw)

		if e.SessionID != "" {
			sess.SessionIDs[e.SessionID] = struct{}{}
			if sessionID == "" {
				sessionID = e.SessionID
			} else if sessionID != e.SessionID {
				return Session{}, &synerr.ParseError{
					Path: path, Line: lineNo,
					Reason: fmt.Sprintf("mixed-session-id: first saw %q, now %q", sessionID, e.SessionID),
				}
			}
		}

		if !e.Timestamp.IsZero() {
			if sess.EarliestTS.IsZero() || e.Timestamp.Before(sess.EarliestTS) {
				sess.EarliestTS = e.Timestamp
			}
			if sess.LatestTS.IsZero() || e.Timestamp.After(sess.LatestTS) {
				sess.LatestTS = e.Timestamp
			}
		}

		if sess.Summary == "" && e.Type == "user" {
			sess.Summary = summaryFromUserEntry(lineStr)
		}

		sess.Entries = append(sess.Entries, e)
	}
	if err := scanner.Err(); err != nil {
		return Session{}, fmt.Errorf("scanning %s: %w", path, err)
	}

	if sessionID == "" {
		sessionID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	sess.SessionID = sessionID

	return sess, nil
}

// summaryFromUserEntry extracts a short, best-effort, one-line
// summary for human-facing logging. Never consulted for merge or
// hashing decisions.
func summaryFromUserEntry(line string) string {
	text := gjson.Get(line, "message.content").String()
	if text == "" {
		text = gjson.Get(line, "message.content.0.text").Str
	}
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	const maxLen = 120
	if len(text) > maxLen {
		text = text[:maxLen] + "..."
	}
	return text
}
