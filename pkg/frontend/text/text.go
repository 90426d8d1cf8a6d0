// Package text is the heuristic front end for files no grammar covers. It
// estimates metrics from line patterns and never builds a program model.
package text

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/panbanda/decay/pkg/frontend"
)

// Name is the backend name reported for files this provider analyzes.
const Name = "text"

// Language is reported for every file since the source language is unknown.
const Language = "generic"

// Window is the number of lines over which max complexity is estimated.
const Window = 50

// lookback bounds the search for the function enclosing a complex window.
const lookback = 100

// ExtraDetectedFunctions lists the function names found in the file.
const ExtraDetectedFunctions = "detectedFunctions"

// functionPatterns match declarations of Python, JavaScript, Go, Rust,
// Kotlin, Ruby and the C family, in that order. The first group is the name.
var functionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(`),
	regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(`),
	regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?(?:\([^)]*\)|\w+)\s*=>`),
	regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?(\w+)\s*[\[(]`),
	regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+(\w+)\s*[<(]`),
	regexp.MustCompile(`^\s*(?:(?:suspend|private|public|internal|override)\s+)*fun\s+(\w+)\s*[<(]`),
	regexp.MustCompile(`^\s*def\s+(?:self\.)?(\w+[?!]?)`),
	regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|final|async|override|virtual|inline)\s+)*[\w<>\[\],.*&:]+\s+\*?(\w+)\s*\([^;]*$`),
}

// notNames are words the declaration patterns can capture from ordinary
// statements.
var notNames = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "switch": true,
	"return": true, "new": true, "throw": true, "case": true, "class": true,
	"record": true, "catch": true, "await": true, "yield": true, "delete": true,
}

var branchPattern = regexp.MustCompile(`\b(?:if|elif|elsif|for|foreach|while|switch|case|catch|except|when|match|unless|until)\b|&&|\|\|`)

var importPattern = regexp.MustCompile(`^\s*(?:import|from|require|include|use|using|#include)\b`)

// Provider is the heuristic text front end.
type Provider struct {
	complexity int
}

// Option configures a Provider.
type Option func(*Provider)

// WithComplexityThreshold sets the window complexity above which the
// enclosing function is reported as complex.
func WithComplexityThreshold(n int) Option {
	return func(p *Provider) {
		p.complexity = n
	}
}

// New creates a text provider.
func New(opts ...Option) *Provider {
	p := &Provider{complexity: 15}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return Name }

// Extensions is empty; the provider serves as the registry fallback.
func (p *Provider) Extensions() []string { return nil }

func (p *Provider) Priority() int { return math.MaxInt }

func (p *Provider) Available() bool { return true }

// Analyze estimates the metrics of src. Cohesion cannot be measured from
// text and is reported as fully cohesive.
func (p *Provider) Analyze(ctx context.Context, path string, src []byte) (*frontend.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, frontend.ErrTimeout)
	}
	lines := strings.Split(string(src), "\n")
	functions := DetectFunctions(lines)
	maxCC, at := MaxWindowComplexity(lines)

	m := &frontend.Metrics{
		LOC:              frontend.CountLines(src),
		Functions:        len(functions),
		TotalComplexity:  float64(CountBranches(lines)),
		MaxComplexity:    float64(maxCC),
		Cohesion:         1,
		FanOut:           CountImports(lines),
		ComplexFunctions: []string{},
		Extras:           map[string]any{ExtraDetectedFunctions: functions},
	}
	if maxCC > p.complexity {
		m.ComplexFunctions = []string{EnclosingFunction(lines, at)}
	}
	return &frontend.Output{
		Language: Language,
		Backend:  Name,
		LOC:      m.LOC,
		Metrics:  m,
	}, nil
}

// DetectFunctions returns the names of declarations found line by line.
func DetectFunctions(lines []string) []string {
	functions := []string{}
	for _, line := range lines {
		if name := functionName(line); name != "" {
			functions = append(functions, name)
		}
	}
	return functions
}

func functionName(line string) string {
	words := strings.Fields(line)
	if len(words) == 0 || notNames[words[0]] {
		return ""
	}
	for _, re := range functionPatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if name := m[1]; name != "" && !notNames[name] {
			return name
		}
		return ""
	}
	return ""
}

// CountBranches counts decision keywords and short circuit operators.
func CountBranches(lines []string) int {
	n := 0
	for _, line := range lines {
		n += len(branchPattern.FindAllStringIndex(line, -1))
	}
	return n
}

// MaxWindowComplexity returns the highest branch count of any Window
// consecutive lines and the index of the line closing that window.
func MaxWindowComplexity(lines []string) (int, int) {
	counts := make([]int, len(lines))
	best, at, window := 0, 0, 0
	for i, line := range lines {
		counts[i] = len(branchPattern.FindAllStringIndex(line, -1))
		window += counts[i]
		if i >= Window {
			window -= counts[i-Window]
		}
		if window > best {
			best, at = window, i
		}
	}
	return best, at
}

// EnclosingFunction guesses the function containing line index by scanning
// back for a declaration.
func EnclosingFunction(lines []string, index int) string {
	for i := index; i >= 0 && i >= index-lookback; i-- {
		if name := functionName(lines[i]); name != "" {
			return name + " (approx)"
		}
	}
	return fmt.Sprintf("unknown_method_at_line_%d", index+1)
}

// CountImports counts import-like lines, an estimate of fan-out.
func CountImports(lines []string) int {
	n := 0
	for _, line := range lines {
		if importPattern.MatchString(line) {
			n++
		}
	}
	return n
}

var _ frontend.Provider = (*Provider)(nil)
