// Package testsession provides JSONL fixture builders for entries
// with uuid/parentUuid trees, used by the sync-engine tests.
package testsession

import (
	"encoding/json"
	"strings"
)

// EntryJSON returns a JSON object line for an entry carrying the
// given identity fields plus any extra fields.
func EntryJSON(uuid, parentUUID, sessionID, typ, timestamp string, extra map[string]any) string {
	m := map[string]any{"type": typ}
	if uuid != "" {
		m["uuid"] = uuid
	}
	if parentUUID != "" {
		m["parentUuid"] = parentUUID
	}
	if sessionID != "" {
		m["sessionId"] = sessionID
	}
	if timestamp != "" {
		m["timestamp"] = timestamp
	}
	for k, v := range extra {
		m[k] = v
	}
	return mustMarshal(m)
}

// UserEntryJSON returns a "user" entry whose message.content is text,
// the shape the Parser and Discovery both look at for the best-effort
// session summary.
func UserEntryJSON(uuid, parentUUID, sessionID, timestamp, text string) string {
	return EntryJSON(uuid, parentUUID, sessionID, "user", timestamp, map[string]any{
		"message": map[string]any{"content": text},
	})
}

// AssistantEntryJSON returns an "assistant" entry.
func AssistantEntryJSON(uuid, parentUUID, sessionID, timestamp, text string) string {
	return EntryJSON(uuid, parentUUID, sessionID, "assistant", timestamp, map[string]any{
		"message": map[string]any{"content": text},
	})
}

// SummaryEntryJSON returns a uuid-less "summary" entry.
func SummaryEntryJSON(sessionID, timestamp, text string) string {
	return EntryJSON("", "", sessionID, "summary", timestamp, map[string]any{"summary": text})
}

// JoinJSONL joins lines with "\n" and appends a single trailing "\n".
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// Builder constructs JSONL session content fluently, mirroring the
// uuid/parentUuid tree a real session builds up turn by turn.
type Builder struct {
	lines []string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// User appends a user entry.
func (b *Builder) User(uuid, parentUUID, sessionID, timestamp, text string) *Builder {
	b.lines = append(b.lines, UserEntryJSON(uuid, parentUUID, sessionID, timestamp, text))
	return b
}

// Assistant appends an assistant entry.
func (b *Builder) Assistant(uuid, parentUUID, sessionID, timestamp, text string) *Builder {
	b.lines = append(b.lines, AssistantEntryJSON(uuid, parentUUID, sessionID, timestamp, text))
	return b
}

// Summary appends a uuid-less summary entry.
func (b *Builder) Summary(sessionID, timestamp, text string) *Builder {
	b.lines = append(b.lines, SummaryEntryJSON(sessionID, timestamp, text))
	return b
}

// Raw appends an arbitrary raw line.
func (b *Builder) Raw(line string) *Builder {
	b.lines = append(b.lines, line)
	return b
}

// String returns the JSONL content with a trailing newline.
func (b *Builder) String() string {
	return JoinJSONL(b.lines...)
}

func mustMarshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
