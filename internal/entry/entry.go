// Package entry implements the Parser: reading a session's JSONL file
// into an ordered sequence of entries and writing one back out.
package entry

import (
	"time"

	"github.com/jmswd/sessync/internal/fingerprint"
)

// Entry is one line of a session file. Raw holds the original bytes
// (without trailing newline) so Write never re-serializes a field the
// core does not understand.
type Entry struct {
	UUID         string
	ParentUUID   string
	SessionID    string
	Timestamp    time.Time
	TimestampRaw string
	Type         string
	Raw          []byte
}

// HasUUID reports whether this entry carries a stable uuid identity.
func (e Entry) HasUUID() bool { return e.UUID != "" }

// Session is the parsed form of one session file.
type Session struct {
	ProjectKey  string
	SessionID   string
	Path        string
	Entries     []Entry
	SessionIDs  map[string]struct{} // every distinct non-empty sessionId seen
	EarliestTS  time.Time
	LatestTS    time.Time
	ByteLength  int64
	Fingerprint fingerprint.Digest
	Summary     string // best-effort, derived from the first user-role entry
}
