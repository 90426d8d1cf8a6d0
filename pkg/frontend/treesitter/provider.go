// Package treesitter builds the program model from tree-sitter parse trees
// for every grammar the parser package bundles.
package treesitter

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/panbanda/decay/pkg/frontend"
	"github.com/panbanda/decay/pkg/parser"
)

// Name is the backend name reported for files this provider analyzes.
const Name = "tree-sitter"

// DefaultPriority ranks the tree-sitter provider ahead of the heuristic
// text analyzer.
const DefaultPriority = 50

// Provider is the tree-sitter front end.
type Provider struct {
	priority int
}

// Option configures a Provider.
type Option func(*Provider)

// WithPriority overrides DefaultPriority.
func WithPriority(p int) Option {
	return func(pr *Provider) {
		pr.priority = p
	}
}

// New creates a tree-sitter provider.
func New(opts ...Option) *Provider {
	p := &Provider{priority: DefaultPriority}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Priority() int { return p.priority }

func (p *Provider) Available() bool { return true }

// Extensions returns every extension with a bundled grammar.
func (p *Provider) Extensions() []string {
	exts := make([]string, 0, len(parser.Extensions))
	for ext := range parser.Extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Analyze parses src and builds its units. A parser is created per call
// since tree-sitter parsers are not safe for concurrent use.
func (p *Provider) Analyze(ctx context.Context, path string, src []byte) (*frontend.Output, error) {
	lang := parser.DetectLanguage(path)
	if lang == parser.LangUnknown {
		return nil, fmt.Errorf("%s: %w", path, frontend.ErrUnsupported)
	}

	ps := parser.New()
	defer ps.Close()

	res, err := ps.Parse(ctx, src, lang, path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", path, frontend.ErrTimeout)
		}
		return nil, err
	}
	defer res.Close()

	return &frontend.Output{
		Language: string(lang),
		Backend:  Name,
		LOC:      frontend.CountLines(src),
		Units:    Build(res),
	}, nil
}

var _ frontend.Provider = (*Provider)(nil)
