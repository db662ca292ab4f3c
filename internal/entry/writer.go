package entry

import (
	"bytes"

	"github.com/jmswd/sessync/internal/atomicfile"
)

// Write serializes entries in order, one per line, each terminated by
// "\n", and flushes+renames atomically. Round-tripping a file that
// already ends in exactly one "\n" reproduces the original bytes.
func Write(path string, entries []Entry) error {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.Write(e.Raw)
		buf.WriteByte('\n')
	}
	return atomicfile.WriteFile(path, buf.Bytes(), 0o644)
}
