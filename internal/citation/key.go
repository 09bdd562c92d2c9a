// Package citation maps chunk identity to the short keys reports cite.
// A key is "<fingerprint>:<chunk_index>" with a 6-char lowercase hex
// fingerprint; in report text keys are wrapped in square brackets and may
// appear back to back: [a1b2c3:0][d4e5f6:2].
package citation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Key identifies one chunk.
type Key struct {
	Fingerprint string
	ChunkIndex  int
}

func (k Key) String() string { return FormatKey(k.Fingerprint, k.ChunkIndex) }

// Cited renders the key the way it appears inline in report text.
func (k Key) Cited() string { return "[" + k.String() + "]" }

// keyPattern is the exact wire format: six lowercase hex characters, a colon,
// one or more digits, inside one pair of brackets, no whitespace.
var keyPattern = regexp.MustCompile(`\[([a-f0-9]{6}):(\d+)\]`)

var barePattern = regexp.MustCompile(`^([a-f0-9]{6}):(\d+)$`)

// FormatKey renders the canonical key for a chunk, without brackets.
func FormatKey(fingerprint string, chunkIndex int) string {
	return fmt.Sprintf("%s:%d", fingerprint, chunkIndex)
}

// ParseKey parses a single key, tolerating surrounding brackets and
// whitespace. It is the inverse of FormatKey.
func ParseKey(s string) (Key, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	m := barePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Key{}, fmt.Errorf("malformed citation key %q", s)
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return Key{}, fmt.Errorf("malformed citation key %q: %w", s, err)
	}
	return Key{Fingerprint: m[1], ChunkIndex: idx}, nil
}

// ExtractKeys scans arbitrary text for bracketed citation keys, yielding
// every match left to right, duplicates included.
func ExtractKeys(text string) []Key {
	matches := keyPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Key, 0, len(matches))
	for _, m := range matches {
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		out = append(out, Key{Fingerprint: m[1], ChunkIndex: idx})
	}
	return out
}

// ContainsKey reports whether text cites the given key.
func ContainsKey(text string, k Key) bool {
	return strings.Contains(text, k.Cited())
}
