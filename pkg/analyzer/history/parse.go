package history

import (
	"bufio"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/panbanda/decay/internal/vcs"
)

// Transaction is the set of source files touched by one commit.
type Transaction struct {
	Files     []string
	Timestamp int64
	Author    string
}

// Contains reports whether the transaction touched path.
func (t Transaction) Contains(path string) bool {
	i := sort.SearchStrings(t.Files, path)
	return i < len(t.Files) && t.Files[i] == path
}

// ParseStats counts what the parser discarded.
type ParseStats struct {
	Commits   int
	Merges    int
	Empty     int
	Malformed int
}

// DefaultSourceExtensions are the file types counted as source code.
var DefaultSourceExtensions = []string{
	".java", ".py", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs",
	".go", ".rs", ".rb", ".php", ".c", ".cpp", ".h", ".hpp",
	".kt", ".kts", ".swift", ".scala", ".cs",
}

// SourceFilter returns a predicate matching paths by extension,
// case-insensitively. Nil or empty uses DefaultSourceExtensions.
func SourceFilter(exts []string) func(string) bool {
	if len(exts) == 0 {
		exts = DefaultSourceExtensions
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	return func(path string) bool {
		return set[strings.ToLower(filepath.Ext(path))]
	}
}

// ParseLog reads a log stream of header lines followed by path lines and
// returns one Transaction per non-merge commit that touched at least one path
// accepted by keep. Lines are consumed strictly in order. Malformed headers
// are counted and their path lines discarded.
func ParseLog(r io.Reader, keep func(string) bool) ([]Transaction, ParseStats, error) {
	if keep == nil {
		keep = func(string) bool { return true }
	}

	var (
		txs      []Transaction
		stats    ParseStats
		cur      *Transaction
		seen     map[string]bool
		skipping bool
	)

	flush := func() {
		if cur == nil {
			return
		}
		if len(cur.Files) == 0 {
			stats.Empty++
		} else {
			sort.Strings(cur.Files)
			txs = append(txs, *cur)
		}
		cur = nil
	}

	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if raw != "" {
			line := strings.TrimSpace(raw)
			switch {
			case line == "":
			case vcs.IsHeader(line):
				flush()
				h, perr := vcs.ParseHeader(line)
				switch {
				case perr != nil:
					stats.Malformed++
					skipping = true
				case h.IsMerge():
					stats.Merges++
					skipping = true
				default:
					stats.Commits++
					skipping = false
					cur = &Transaction{Timestamp: h.Timestamp, Author: h.Author}
					seen = make(map[string]bool)
				}
			case cur == nil:
				if !skipping {
					// Path before any header.
					stats.Malformed++
				}
			default:
				path := unquotePath(line)
				if keep(path) && !seen[path] {
					seen[path] = true
					cur.Files = append(cur.Files, path)
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, stats, err
		}
	}
	flush()

	return txs, stats, nil
}

// unquotePath undoes git's C-style quoting of unusual paths.
func unquotePath(line string) string {
	if len(line) >= 2 && line[0] == '"' && line[len(line)-1] == '"' {
		if s, err := strconv.Unquote(line); err == nil {
			return s
		}
	}
	return line
}
