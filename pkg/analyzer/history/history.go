// Package history mines a repository's commit log for churn and temporal
// coupling.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/panbanda/decay/internal/vcs"
	"github.com/panbanda/decay/pkg/analyzer"
)

// ErrHistoryUnavailable is returned when the commit log cannot be read at all.
// It aborts the whole run.
var ErrHistoryUnavailable = errors.New("commit history unavailable")

const secondsPerDay = 24 * 60 * 60

// Options configures the miner.
type Options struct {
	RecentDays         int
	MinSharedCommits   int
	MinCouplingPercent float64
	// Extensions restricts transactions to source files.
	Extensions []string
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		RecentDays:         90,
		MinSharedCommits:   5,
		MinCouplingPercent: 30,
		Extensions:         DefaultSourceExtensions,
	}
}

// Result holds everything derived from one pass over the log.
type Result struct {
	Root        string           `json:"root"`
	GeneratedAt time.Time        `json:"generated_at"`
	Stats       ParseStats       `json:"stats"`
	Churn       ChurnMap         `json:"churn"`
	RecentChurn ChurnMap         `json:"recent_churn"`
	Coupling    CouplingMap      `json:"coupling"`
	LastCommit  map[string]int64 `json:"last_commit"`
	Options     Options          `json:"-"`
}

// ChurnOf returns the all-time churn of path.
func (r *Result) ChurnOf(path string) int {
	return r.Churn[path]
}

// RecentChurnOf returns the recent-window churn of path.
func (r *Result) RecentChurnOf(path string) int {
	return r.RecentChurn[path]
}

// Peers returns the files path is coupled to.
func (r *Result) Peers(path string) []string {
	return r.Coupling.Peers(path)
}

// PeerCount returns the number of files path is coupled to.
func (r *Result) PeerCount(path string) int {
	return len(r.Coupling[path])
}

// DaysSinceLastCommit returns whole days between the file's last commit and
// now, or -1 when the file never appeared in history.
func (r *Result) DaysSinceLastCommit(path string, now time.Time) int {
	ts, ok := r.LastCommit[path]
	if !ok {
		return -1
	}
	return int((now.Unix() - ts) / secondsPerDay)
}

// Miner reads the log once and derives churn and coupling.
type Miner struct {
	opts   Options
	source vcs.LogSource
	logger *slog.Logger
	now    func() time.Time
}

var _ analyzer.RepoAnalyzer[*Result] = (*Miner)(nil)

// Option is a functional option for configuring Miner.
type Option func(*Miner)

// WithOptions replaces the thresholds.
func WithOptions(opts Options) Option {
	return func(m *Miner) {
		m.opts = opts
	}
}

// WithSource sets the log source.
func WithSource(src vcs.LogSource) Option {
	return func(m *Miner) {
		m.source = src
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Miner) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock sets the time source used for the recent window.
func WithClock(now func() time.Time) Option {
	return func(m *Miner) {
		m.now = now
	}
}

// New creates a miner. Without WithSource it uses native git when available.
func New(opts ...Option) *Miner {
	m := &Miner{
		opts:   DefaultOptions(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.source == nil {
		m.source = vcs.DefaultLogSource(true, vcs.DefaultGitTimeout)
	}
	return m
}

// Analyze implements analyzer.RepoAnalyzer.
func (m *Miner) Analyze(ctx context.Context, repoPath string) (*Result, error) {
	return m.Mine(ctx, repoPath)
}

// Mine streams the log of the repository at root, parses it in a single
// sequential pass, then computes churn, recent churn, coupling and last
// commit times.
func (m *Miner) Mine(ctx context.Context, root string) (*Result, error) {
	start := m.now()

	pr, pw := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(m.source.Stream(ctx, root, pw))
	}()

	txs, stats, err := ParseLog(pr, SourceFilter(m.opts.Extensions))
	pr.Close()
	<-done
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHistoryUnavailable, err)
	}

	cutoff := start.Unix() - int64(m.opts.RecentDays)*secondsPerDay
	churn, recent := ComputeChurn(txs, cutoff)
	coupling := ComputeCoupling(txs, churn, CouplingOptions{
		MinSharedCommits:   m.opts.MinSharedCommits,
		MinCouplingPercent: m.opts.MinCouplingPercent,
	})

	m.logger.Debug("history mined",
		"root", root,
		"commits", stats.Commits,
		"transactions", len(txs),
		"merges", stats.Merges,
		"malformed", stats.Malformed,
		"files", len(churn),
		"coupled", len(coupling),
	)

	return &Result{
		Root:        root,
		GeneratedAt: start.UTC(),
		Stats:       stats,
		Churn:       churn,
		RecentChurn: recent,
		Coupling:    coupling,
		LastCommit:  LastCommits(txs),
		Options:     m.opts,
	}, nil
}
