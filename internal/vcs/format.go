package vcs

import (
	"fmt"
	"strconv"
	"strings"
)

// CommitMarker prefixes every header line of a log stream.
const CommitMarker = "###"

// NativeLogFormat is the `git log --format` argument producing header lines.
const NativeLogFormat = "format:" + CommitMarker + "%ct" + CommitMarker + "%ae" + CommitMarker + "%P"

// LogHeader is the parsed form of one commit header line.
type LogHeader struct {
	Timestamp int64
	Author    string
	// Parents is the number of parent commits, or -1 when the source did
	// not report it.
	Parents int
}

// IsMerge reports whether the header describes a merge commit.
func (h LogHeader) IsMerge() bool {
	return h.Parents > 1
}

// IsHeader reports whether a log line starts a new commit.
func IsHeader(line string) bool {
	return strings.HasPrefix(line, CommitMarker)
}

// FormatHeader renders a header line in the same shape git produces for
// NativeLogFormat.
func FormatHeader(h LogHeader) string {
	parents := ""
	if h.Parents > 0 {
		parents = strings.TrimSpace(strings.Repeat("p ", h.Parents))
	}
	return fmt.Sprintf("%s%d%s%s%s%s", CommitMarker, h.Timestamp, CommitMarker, h.Author, CommitMarker, parents)
}

// ParseHeader parses a header line. The parent segment is optional.
func ParseHeader(line string) (LogHeader, error) {
	if !IsHeader(line) {
		return LogHeader{}, fmt.Errorf("not a commit header: %q", line)
	}
	parts := strings.Split(strings.TrimPrefix(line, CommitMarker), CommitMarker)

	ts, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return LogHeader{}, fmt.Errorf("invalid commit timestamp %q: %w", parts[0], err)
	}
	if ts < 0 {
		return LogHeader{}, fmt.Errorf("negative commit timestamp %d", ts)
	}

	h := LogHeader{Timestamp: ts, Parents: -1}
	if len(parts) > 1 {
		h.Author = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		h.Parents = len(strings.Fields(parts[2]))
	}
	return h, nil
}
