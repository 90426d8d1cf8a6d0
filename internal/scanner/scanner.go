package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/decay/pkg/analyzer/testability"
	"github.com/panbanda/decay/pkg/config"
	"github.com/panbanda/decay/pkg/parser"
)

// Files is the result of a scan. Paths are relative to the scanned root,
// slash-separated and sorted.
type Files struct {
	// Sources are the files to analyze.
	Sources []string
	// Tests are every test file found, whether or not it is analyzed. They
	// feed test discovery for the sources.
	Tests []string
}

// Scanner finds source files in a directory.
type Scanner struct {
	config    *config.Config
	accept    func(path string) bool
	gitignore gitignore.Matcher
	exclude   gitignore.Matcher
}

// NewScanner creates a new file scanner. accept decides which files are
// sources; nil accepts every file with a bundled grammar.
func NewScanner(cfg *config.Config, accept func(path string) bool) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if accept == nil {
		accept = func(path string) bool {
			return parser.DetectLanguage(path) != parser.LangUnknown
		}
	}
	return &Scanner{config: cfg, accept: accept}
}

// AcceptExtensions returns an accept func matching the given extensions,
// case-insensitively.
func AcceptExtensions(exts ...string) func(string) bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = true
	}
	return func(path string) bool {
		return set[strings.ToLower(filepath.Ext(path))]
	}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadPatterns builds the matchers. Config patterns only keep files out of
// the sources; .gitignore patterns hide files entirely.
func (s *Scanner) loadPatterns(root string) {
	s.gitignore, s.exclude = nil, nil

	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	if len(patterns) > 0 {
		s.exclude = gitignore.NewMatcher(patterns)
	}

	if !s.config.Exclude.Gitignore {
		return
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		gitRoot = root
	}
	ps, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(ps) == 0 {
		return
	}
	// Patterns are read relative to the repository root; scanned paths are
	// relative to root, so prefix them when root is a subdirectory.
	if rel, err := filepath.Rel(gitRoot, root); err == nil && rel != "." {
		prefix := strings.Split(filepath.ToSlash(rel), "/")
		m := gitignore.NewMatcher(ps)
		s.gitignore = prefixedMatcher{prefix: prefix, m: m}
		return
	}
	s.gitignore = gitignore.NewMatcher(ps)
}

type prefixedMatcher struct {
	prefix []string
	m      gitignore.Matcher
}

func (p prefixedMatcher) Match(path []string, isDir bool) bool {
	return p.m.Match(append(append([]string{}, p.prefix...), path...), isDir)
}

func match(m gitignore.Matcher, rel string, isDir bool) bool {
	return m != nil && m.Match(strings.Split(rel, "/"), isDir)
}

// Scan walks root. Symlinks leaving root are not followed.
func (s *Scanner) Scan(root string) (*Files, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadPatterns(absRoot)

	files := &Files{Sources: make([]string, 0, 1024)}
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == absRoot {
			return nil
		}
		rel, _ := filepath.Rel(absRoot, path)
		rel = filepath.ToSlash(rel)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if d.Name() == ".git" || match(s.gitignore, rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if match(s.gitignore, rel, false) || !s.accept(rel) {
			return nil
		}

		isTest := testability.IsTestFile(rel)
		if isTest {
			files.Tests = append(files.Tests, rel)
		}
		if isTest && s.config.Exclude.SkipTests {
			return nil
		}
		if !match(s.exclude, rel, false) {
			files.Sources = append(files.Sources, rel)
		}
		return nil
	})

	sort.Strings(files.Sources)
	sort.Strings(files.Tests)
	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}
