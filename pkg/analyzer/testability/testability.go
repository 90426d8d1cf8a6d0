// Package testability finds the tests that cover a source file by naming
// convention and scores how easy the file would be to test.
package testability

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	testDirs     = []string{"test", "tests", "__tests__", "spec", "specs", "unittest"}
	testPrefixes = []string{"test_", "Test"}
	testSuffixes = []string{"Test", "_test", "Spec", "_spec", ".test", ".spec"}
)

// IsTestFile reports whether path looks like a test by directory or name.
func IsTestFile(path string) bool {
	slashed := "/" + strings.ToLower(filepath.ToSlash(path))
	for _, dir := range testDirs {
		if strings.Contains(slashed, "/"+dir+"/") {
			return true
		}
	}
	name, _ := splitExt(filepath.Base(path))
	for _, p := range testPrefixes {
		if hasTestPrefix(name, p) {
			return true
		}
	}
	for _, s := range testSuffixes {
		if strings.HasSuffix(name, s) && len(name) > len(s) {
			return true
		}
	}
	return false
}

// Index maps source file names to the test files that cover them.
type Index struct {
	bySource map[string]string
	names    map[string]string
}

// NewIndex indexes every test file in paths. Non-test paths are ignored.
func NewIndex(paths []string) *Index {
	ix := &Index{
		bySource: make(map[string]string),
		names:    make(map[string]string),
	}
	for _, p := range paths {
		if !IsTestFile(p) {
			continue
		}
		base := filepath.Base(p)
		ix.names[strings.ToLower(base)] = p
		if src, ok := sourcePattern(base); ok {
			key := strings.ToLower(src)
			if _, dup := ix.bySource[key]; !dup {
				ix.bySource[key] = p
			}
		}
	}
	return ix
}

// Len returns the number of indexed test files.
func (ix *Index) Len() int {
	return len(ix.names)
}

// Find returns the test file covering source.
func (ix *Index) Find(source string) (string, bool) {
	base := filepath.Base(source)
	if p, ok := ix.bySource[strings.ToLower(base)]; ok {
		return p, true
	}
	name, ext := splitExt(base)
	candidates := []string{
		name + "Test" + ext,
		name + "_test" + ext,
		"Test" + name + ext,
		"test_" + name + ext,
		name + "Spec" + ext,
		name + "_spec" + ext,
		name + ".test" + ext,
		name + ".spec" + ext,
	}
	for _, c := range candidates {
		if p, ok := ix.names[strings.ToLower(c)]; ok {
			return p, true
		}
	}
	return "", false
}

// sourcePattern strips the test affix from a test file name, yielding the
// name of the source file it covers.
func sourcePattern(testName string) (string, bool) {
	name, ext := splitExt(testName)
	for _, s := range testSuffixes {
		if strings.HasSuffix(name, s) && len(name) > len(s) {
			return strings.TrimSuffix(name, s) + ext, true
		}
	}
	for _, p := range testPrefixes {
		if hasTestPrefix(name, p) {
			return strings.TrimPrefix(name, p) + ext, true
		}
	}
	return "", false
}

// hasTestPrefix reports whether name starts with the test prefix p and
// continues past it. A camel-case prefix must start a new word, so
// Testimonial is not a test.
func hasTestPrefix(name, p string) bool {
	if !strings.HasPrefix(name, p) || len(name) <= len(p) {
		return false
	}
	if strings.HasSuffix(p, "_") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(name[len(p):])
	return unicode.IsUpper(r)
}

func splitExt(name string) (string, string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// Options are the untested-hotspot thresholds.
type Options struct {
	HotspotRisk  float64
	HotspotChurn int
}

// DefaultOptions returns the default thresholds.
func DefaultOptions() Options {
	return Options{HotspotRisk: 10, HotspotChurn: 5}
}

// Result is the testability assessment of one file.
type Result struct {
	HasTest         bool   `json:"has_test"`
	TestFile        string `json:"test_file,omitempty"`
	Score           int    `json:"score"`
	UntestedHotspot bool   `json:"untested_hotspot"`
}

// Score rates testability from 0 to 100: 40 for an existing test and up to
// 20 each for low fan-out, high cohesion and low complexity.
func Score(hasTest bool, fanOut int, lcom4, totalCC float64) int {
	score := 0
	if hasTest {
		score += 40
	}
	switch {
	case fanOut < 5:
		score += 20
	case fanOut < 10:
		score += 10
	}
	switch {
	case lcom4 <= 1:
		score += 20
	case lcom4 <= 2:
		score += 10
	}
	switch {
	case totalCC < 10:
		score += 20
	case totalCC < 20:
		score += 10
	}
	return score
}

// IsUntestedHotspot reports a risky, frequently changed file with no test.
func IsUntestedHotspot(hasTest bool, risk float64, churn int, opts Options) bool {
	return !hasTest && risk > opts.HotspotRisk && churn > opts.HotspotChurn
}

// Evaluate assesses one source file.
func (ix *Index) Evaluate(source string, fanOut int, lcom4, totalCC, risk float64, churn int, opts Options) *Result {
	testFile, ok := ix.Find(source)
	return &Result{
		HasTest:         ok,
		TestFile:        testFile,
		Score:           Score(ok, fanOut, lcom4, totalCC),
		UntestedHotspot: IsUntestedHotspot(ok, risk, churn, opts),
	}
}
