// Package frontend turns source files into either program-model units or
// precomputed metrics. Providers are chosen per file extension by a Registry.
package frontend

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"github.com/panbanda/decay/pkg/model"
)

// Per-file failures. None of them abort a run.
var (
	ErrUnsupported = errors.New("unsupported source file")
	ErrTimeout     = errors.New("front end timed out")
	ErrMalformed   = errors.New("malformed front end output")
)

// Metrics is the precomputed record a heuristic or external front end
// returns when it cannot build a program model. The JSON names are the
// contract of external analyzers.
type Metrics struct {
	LOC              int            `json:"loc"`
	Functions        int            `json:"functionCount"`
	TotalComplexity  float64        `json:"totalComplexity"`
	MaxComplexity    float64        `json:"maxComplexity"`
	Cohesion         float64        `json:"cohesion"`
	FanOut           int            `json:"fanOut"`
	ComplexFunctions []string       `json:"complexFunctions"`
	Extras           map[string]any `json:"extras,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// Output is the result of analyzing one file. Exactly one of Units or
// Metrics is set.
type Output struct {
	Language string
	Backend  string
	LOC      int
	Units    []*model.Unit
	Metrics  *Metrics
}

// Provider analyzes source files of some languages.
type Provider interface {
	// Name identifies the backend in reports.
	Name() string
	// Extensions lists handled extensions including the dot.
	Extensions() []string
	// Priority orders providers sharing an extension; lower wins.
	Priority() int
	// Available reports whether the provider can run in this environment.
	Available() bool
	Analyze(ctx context.Context, path string, src []byte) (*Output, error)
}

// Registry maps extensions to providers.
type Registry struct {
	providers []Provider
	byExt     map[string]Provider
	fallback  Provider
}

// NewRegistry builds a registry. For every extension the available provider
// with the lowest priority wins; files with no match go to fallback, which
// may be nil.
func NewRegistry(fallback Provider, providers ...Provider) *Registry {
	sorted := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil && p.Available() {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	r := &Registry{providers: sorted, byExt: make(map[string]Provider), fallback: fallback}
	for _, p := range sorted {
		for _, ext := range p.Extensions() {
			ext = strings.ToLower(ext)
			if _, taken := r.byExt[ext]; !taken {
				r.byExt[ext] = p
			}
		}
	}
	return r
}

// For returns the provider responsible for path.
func (r *Registry) For(path string) (Provider, bool) {
	if p, ok := r.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return p, true
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}

// Analyze dispatches path to its provider.
func (r *Registry) Analyze(ctx context.Context, path string, src []byte) (*Output, error) {
	p, ok := r.For(path)
	if !ok {
		return nil, ErrUnsupported
	}
	out, err := p.Analyze(ctx, path, src)
	if err != nil {
		return nil, err
	}
	if out.Backend == "" {
		out.Backend = p.Name()
	}
	return out, nil
}

// Extensions returns every extension with a dedicated provider, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Providers returns the available providers in priority order.
func (r *Registry) Providers() []Provider {
	return r.providers
}

// CountLines returns the number of non-blank lines in src.
func CountLines(src []byte) int {
	n := 0
	for _, line := range strings.Split(string(src), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
