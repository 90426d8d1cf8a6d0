// Package social derives ownership signals for a file from git blame: who
// wrote it, how concentrated that knowledge is, and whether the people
// holding it are still around.
package social

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/panbanda/decay/internal/vcs"
)

// UnknownDays is reported when an author's last activity cannot be dated.
const UnknownDays = 999

// MaxTopContributors bounds Signals.TopContributors.
const MaxTopContributors = 5

// Multiplier factors.
const (
	islandMultiplier      = 1.5
	singleOwnerMultiplier = 1.2
	bottleneckMultiplier  = 1.15
	singleOwnerIdleDays   = 60
)

// Contributor is one author's share of the current lines of a file.
type Contributor struct {
	Author          string  `json:"author"`
	Lines           int     `json:"lines"`
	Percentage      float64 `json:"percentage"`
	DaysSinceActive int     `json:"days_since_active"`
}

// Signals summarises the ownership of one file.
type Signals struct {
	Authors             int           `json:"authors"`
	PrimaryAuthor       string        `json:"primary_author"`
	PrimaryPercentage   float64       `json:"primary_percentage"`
	DaysSincePrimary    int           `json:"days_since_primary"`
	DaysSinceLastCommit int           `json:"days_since_last_commit"`
	BusFactor           int           `json:"bus_factor"`
	KnowledgeIsland     bool          `json:"knowledge_island"`
	Bottleneck          bool          `json:"coordination_bottleneck"`
	TopContributors     []Contributor `json:"top_contributors,omitempty"`
}

// Multiplier returns the risk multiplier implied by the signals. A nil
// receiver means no social risk.
func (s *Signals) Multiplier() float64 {
	if s == nil {
		return 1
	}
	m := 1.0
	if s.KnowledgeIsland {
		m *= islandMultiplier
	} else if s.BusFactor == 1 && s.DaysSincePrimary > singleOwnerIdleDays {
		m *= singleOwnerMultiplier
	}
	if s.Bottleneck {
		m *= bottleneckMultiplier
	}
	return m
}

// Options are the detection thresholds.
type Options struct {
	// IslandShare is the fraction of lines (0-1) the primary author must
	// exceed for a knowledge island.
	IslandShare          float64
	IslandInactiveDays   int
	BottleneckAuthors    int
	BottleneckActiveDays int
	// BottleneckRecentChurn is the recent churn a file must exceed.
	BottleneckRecentChurn int
	Timeout               time.Duration
}

// DefaultOptions returns the default thresholds.
func DefaultOptions() Options {
	return Options{
		IslandShare:           0.8,
		IslandInactiveDays:    90,
		BottleneckAuthors:     3,
		BottleneckActiveDays:  30,
		BottleneckRecentChurn: 10,
		Timeout:               30 * time.Second,
	}
}

// Analyzer runs blame for single files.
type Analyzer struct {
	blamer vcs.Blamer
	opts   Options
	now    func() time.Time
	logger *slog.Logger
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithOptions sets the detection thresholds.
func WithOptions(opts Options) Option {
	return func(a *Analyzer) {
		a.opts = opts
	}
}

// WithClock sets the time source used to age authors.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// New creates an analyzer reading blame data from blamer.
func New(blamer vcs.Blamer, opts ...Option) *Analyzer {
	a := &Analyzer{
		blamer: blamer,
		opts:   DefaultOptions(),
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze blames relPath at HEAD and derives its signals. A file without
// blamed lines yields nil signals and no error.
func (a *Analyzer) Analyze(ctx context.Context, root, relPath string, recentChurn int) (*Signals, error) {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}
	var buf bytes.Buffer
	if err := a.blamer.Blame(ctx, root, relPath, &buf); err != nil {
		return nil, fmt.Errorf("blame %s: %w", relPath, err)
	}
	lines := ParseBlame(&buf)
	if len(lines) == 0 {
		a.logger.Debug("no blame data", "path", relPath)
		return nil, nil
	}
	return Compute(lines, a.now(), recentChurn, a.opts), nil
}

// BlameLine is one attributed line of a file.
type BlameLine struct {
	Author string
	Time   int64
}

// ParseBlame reads `git blame --line-porcelain` output. Every content line
// (tab-prefixed) is attributed to the author-mail seen in its header.
func ParseBlame(r io.Reader) []BlameLine {
	var (
		lines   []BlameLine
		current BlameLine
		seen    bool
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "author-mail "):
			email := strings.TrimSpace(strings.TrimPrefix(line, "author-mail "))
			email = strings.TrimPrefix(email, "<")
			email = strings.TrimSuffix(email, ">")
			current.Author = email
			seen = true
		case strings.HasPrefix(line, "author-time "):
			ts, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "author-time ")), 10, 64)
			if err == nil {
				current.Time = ts
			}
		case strings.HasPrefix(line, "\t"):
			if seen {
				lines = append(lines, current)
			}
			current = BlameLine{}
			seen = false
		}
	}
	return lines
}

// Compute derives signals from attributed lines.
func Compute(lines []BlameLine, now time.Time, recentChurn int, opts Options) *Signals {
	if len(lines) == 0 {
		return nil
	}
	counts := make(map[string]int)
	latest := make(map[string]int64)
	for _, l := range lines {
		counts[l.Author]++
		if l.Time > latest[l.Author] {
			latest[l.Author] = l.Time
		}
	}

	contributors := make([]Contributor, 0, len(counts))
	for author, n := range counts {
		days := UnknownDays
		if ts := latest[author]; ts > 0 {
			days = int(now.Sub(time.Unix(ts, 0)).Hours() / 24)
			if days < 0 {
				days = 0
			}
		}
		contributors = append(contributors, Contributor{
			Author:          author,
			Lines:           n,
			Percentage:      float64(n) / float64(len(lines)) * 100,
			DaysSinceActive: days,
		})
	}
	sort.Slice(contributors, func(i, j int) bool {
		if contributors[i].Lines != contributors[j].Lines {
			return contributors[i].Lines > contributors[j].Lines
		}
		return contributors[i].Author < contributors[j].Author
	})

	s := &Signals{
		Authors:             len(contributors),
		PrimaryAuthor:       contributors[0].Author,
		PrimaryPercentage:   contributors[0].Percentage,
		DaysSincePrimary:    contributors[0].DaysSinceActive,
		DaysSinceLastCommit: UnknownDays,
	}

	coverage := 0.0
	recentAuthors := 0
	for _, c := range contributors {
		if coverage < 50 {
			s.BusFactor++
			coverage += c.Percentage
		}
		if c.DaysSinceActive < s.DaysSinceLastCommit {
			s.DaysSinceLastCommit = c.DaysSinceActive
		}
		if c.DaysSinceActive < opts.BottleneckActiveDays {
			recentAuthors++
		}
	}

	s.KnowledgeIsland = s.PrimaryPercentage > opts.IslandShare*100 &&
		s.DaysSincePrimary > opts.IslandInactiveDays &&
		isKnownAuthor(s.PrimaryAuthor)
	s.Bottleneck = recentAuthors >= opts.BottleneckAuthors &&
		recentChurn > opts.BottleneckRecentChurn

	top := contributors
	if len(top) > MaxTopContributors {
		top = top[:MaxTopContributors]
	}
	s.TopContributors = top
	return s
}

func isKnownAuthor(author string) bool {
	switch strings.ToLower(strings.TrimSpace(author)) {
	case "", "unknown", "null", "undefined", "not.committed.yet":
		return false
	}
	return true
}
