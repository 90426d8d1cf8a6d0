// Package forensics runs a complete decay analysis of a repository: one pass
// over the commit log, one parse of every source file, then per-file
// metrics, ownership and test signals, a verdict and a risk score.
package forensics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/panbanda/decay/internal/fileproc"
	"github.com/panbanda/decay/internal/scanner"
	"github.com/panbanda/decay/internal/vcs"
	"github.com/panbanda/decay/pkg/analyzer"
	"github.com/panbanda/decay/pkg/analyzer/history"
	"github.com/panbanda/decay/pkg/analyzer/risk"
	"github.com/panbanda/decay/pkg/analyzer/rules"
	"github.com/panbanda/decay/pkg/analyzer/social"
	"github.com/panbanda/decay/pkg/analyzer/structural"
	"github.com/panbanda/decay/pkg/analyzer/testability"
	"github.com/panbanda/decay/pkg/config"
	"github.com/panbanda/decay/pkg/frontend"
	"github.com/panbanda/decay/pkg/frontend/external"
	"github.com/panbanda/decay/pkg/frontend/text"
	"github.com/panbanda/decay/pkg/frontend/treesitter"
	"github.com/panbanda/decay/pkg/metrics"
	"github.com/panbanda/decay/pkg/model"
)

// ErrUnitNotFound is recorded for a parsed file that declares no unit.
var ErrUnitNotFound = errors.New("no unit declared in file")

// Analyzer runs decay analyses. It is safe to reuse across runs.
type Analyzer struct {
	cfg      *config.Config
	source   vcs.LogSource
	blamer   vcs.Blamer
	registry *frontend.Registry
	// ownRegistry marks a registry built from the config, rebuilt per run so
	// external analyzers run in the analyzed root.
	ownRegistry bool
	engine      *rules.Engine
	logger      *slog.Logger
	now         func() time.Time
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *Analyzer) {
		if cfg != nil {
			a.cfg = cfg
		}
	}
}

// WithLogSource sets where the commit log is read from.
func WithLogSource(src vcs.LogSource) Option {
	return func(a *Analyzer) {
		a.source = src
	}
}

// WithBlamer sets the blame source for ownership signals.
func WithBlamer(b vcs.Blamer) Option {
	return func(a *Analyzer) {
		a.blamer = b
	}
}

// WithRegistry replaces the front-end registry built from the config.
func WithRegistry(r *frontend.Registry) Option {
	return func(a *Analyzer) {
		a.registry = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock sets the time source for recent churn and author ages.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// New creates an analyzer. Unset collaborators are derived from the config:
// native git when available, the configured front ends, and the default rule
// table merged with the configured rules.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		cfg:    config.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.source == nil {
		a.source = vcs.DefaultLogSource(a.cfg.History.NativeGit, a.cfg.HistoryTimeout())
	}
	if a.blamer == nil && a.cfg.Social.Enabled && vcs.CheckGitAvailable() == nil {
		a.blamer = vcs.NewNativeGit(a.cfg.SocialTimeout())
	}
	if a.registry == nil {
		r, err := NewRegistry(a.cfg, "")
		if err != nil {
			return nil, err
		}
		a.registry = r
		a.ownRegistry = true
	}
	engine, err := rules.Build(a.cfg)
	if err != nil {
		return nil, err
	}
	a.engine = engine
	return a, nil
}

// Config returns the configuration in use.
func (a *Analyzer) Config() *config.Config {
	return a.cfg
}

// Engine returns the rule engine in use.
func (a *Analyzer) Engine() *rules.Engine {
	return a.engine
}

// NewRegistry builds the front-end registry: configured external analyzers
// first, tree-sitter for bundled grammars, the text heuristics for the rest.
// External commands run in dir.
func NewRegistry(cfg *config.Config, dir string) (*frontend.Registry, error) {
	providers := []frontend.Provider{treesitter.New()}
	for _, ec := range cfg.Frontend.External {
		p, err := external.New(ec.Extension, ec.Command,
			external.WithDir(dir),
			external.WithTimeout(cfg.FrontendTimeout()),
			external.WithLanguage(ec.Language),
		)
		if err != nil {
			return nil, fmt.Errorf("frontend.external: %w", err)
		}
		providers = append(providers, p)
	}
	fallback := text.New(text.WithComplexityThreshold(cfg.Thresholds.BrainMethodComplexity))
	return frontend.NewRegistry(fallback, providers...), nil
}

func (a *Analyzer) historyOptions() history.Options {
	opts := history.DefaultOptions()
	h := a.cfg.History
	if h.RecentDays > 0 {
		opts.RecentDays = h.RecentDays
	}
	if h.MinSharedCommits > 0 {
		opts.MinSharedCommits = h.MinSharedCommits
	}
	if h.MinCouplingPercent > 0 {
		opts.MinCouplingPercent = float64(h.MinCouplingPercent)
	}
	if len(h.SourceExtensions) > 0 {
		opts.Extensions = h.SourceExtensions
	}
	return opts
}

// Mine runs the history pass alone.
func (a *Analyzer) Mine(ctx context.Context, root string) (*history.Result, error) {
	return history.New(
		history.WithSource(a.source),
		history.WithOptions(a.historyOptions()),
		history.WithLogger(a.logger),
		history.WithClock(a.now),
	).Mine(ctx, root)
}

// accept selects the files the scanner hands to the front ends: every
// extension with a dedicated provider plus the configured source extensions,
// which the text heuristics cover.
func (a *Analyzer) accept(reg *frontend.Registry) func(string) bool {
	exts := append([]string{}, reg.Extensions()...)
	exts = append(exts, a.cfg.History.SourceExtensions...)
	return scanner.AcceptExtensions(exts...)
}

// run holds the read-only state shared by the per-file workers of one run.
type run struct {
	root       string
	prefix     string
	history    *history.Result
	outputs    map[string]*frontend.Output
	structural *structural.Analyzer
	social     *social.Analyzer
	tests      *testability.Index
	now        time.Time
}

// historyPath maps a path relative to the analyzed root onto the repository
// relative path the log reports.
func (r *run) historyPath(path string) string {
	if r.prefix == "" {
		return path
	}
	return r.prefix + "/" + path
}

// localPath is the inverse of historyPath for paths under the root; others
// are returned unchanged.
func (r *run) localPath(path string) string {
	if r.prefix == "" {
		return path
	}
	if rest, ok := strings.CutPrefix(path, r.prefix+"/"); ok {
		return rest
	}
	return path
}

// repoPrefix returns root relative to its repository's working tree, or ""
// when root is the tree itself or not inside one.
func repoPrefix(root string) string {
	top, err := vcs.FindRoot(root)
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(top); err == nil {
		top = resolved
	}
	rel, err := filepath.Rel(top, root)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

// Run analyzes the repository at root. A log that cannot be read fails the
// run with history.ErrHistoryUnavailable; every other failure is confined to
// its file and recorded in Report.Skipped. Progress is reported through the
// analyzer.Tracker carried by ctx, if any.
func (a *Analyzer) Run(ctx context.Context, root string) (*Report, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}
	start := a.now()

	hist, err := a.Mine(ctx, absRoot)
	if err != nil {
		return nil, err
	}
	reg, err := a.registryFor(absRoot)
	if err != nil {
		return nil, err
	}

	files, err := scanner.NewScanner(a.cfg, a.accept(reg)).Scan(absRoot)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", absRoot, err)
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker == nil {
		tracker = analyzer.NewTracker(nil)
	}
	tracker.SetTotal(len(files.Sources))

	rep := &Report{
		Root:        absRoot,
		GeneratedAt: start.UTC(),
		Commits:     hist.Stats.Commits,
		Scanned:     len(files.Sources),
	}
	workers := fileproc.Options{Workers: a.cfg.Frontend.Workers}

	parsed, errs := fileproc.Map(ctx, files.Sources, workers, func(ctx context.Context, path string) (parsedFile, error) {
		out, err := parse(ctx, reg, absRoot, path)
		if err != nil {
			tracker.Skip(path)
			return parsedFile{}, err
		}
		return parsedFile{path: path, out: out}, nil
	})
	rep.skip(errs, a.logger)

	r := &run{
		root:    absRoot,
		prefix:  repoPrefix(absRoot),
		history: hist,
		outputs: make(map[string]*frontend.Output, len(parsed)),
		now:     start,
	}
	var units []*model.Unit
	paths := make([]string, 0, len(parsed))
	for _, pf := range parsed {
		r.outputs[pf.path] = pf.out
		units = append(units, pf.out.Units...)
		paths = append(paths, pf.path)
	}
	th := a.cfg.Thresholds
	r.structural = structural.New(model.NewProgram(units...),
		structural.WithBrainMethodThresholds(th.BrainMethodComplexity, th.BrainMethodStatements))
	if a.blamer != nil && a.cfg.Social.Enabled {
		r.social = social.New(a.blamer,
			social.WithOptions(a.socialOptions()),
			social.WithClock(a.now),
			social.WithLogger(a.logger),
		)
	}
	if a.cfg.Testability.Enabled {
		r.tests = testability.NewIndex(files.Tests)
	}

	reports, errs := fileproc.Map(ctx, paths, workers, func(ctx context.Context, path string) (FileReport, error) {
		fr, err := a.evaluate(ctx, r, path)
		if err != nil {
			tracker.Skip(path)
			return FileReport{}, err
		}
		tracker.Tick(path)
		return fr, nil
	})
	rep.skip(errs, a.logger)
	rep.Files = reports
	rep.finish()

	a.logger.Info("analysis complete",
		"root", absRoot,
		"files", rep.Summary.Analyzed,
		"skipped", rep.Summary.Skipped,
		"commits", rep.Commits,
		"elapsed", a.now().Sub(start),
	)
	return rep, nil
}

type parsedFile struct {
	path string
	out  *frontend.Output
}

func (a *Analyzer) registryFor(root string) (*frontend.Registry, error) {
	if !a.ownRegistry {
		return a.registry, nil
	}
	return NewRegistry(a.cfg, root)
}

func parse(ctx context.Context, reg *frontend.Registry, root, path string) (*frontend.Output, error) {
	src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	if err != nil {
		return nil, err
	}
	return reg.Analyze(ctx, path, src)
}

func (a *Analyzer) socialOptions() social.Options {
	s := a.cfg.Social
	return social.Options{
		IslandShare:           s.IslandShare,
		IslandInactiveDays:    s.IslandInactiveDays,
		BottleneckAuthors:     s.BottleneckAuthors,
		BottleneckActiveDays:  s.BottleneckActiveDays,
		BottleneckRecentChurn: s.BottleneckRecentChurn,
		Timeout:               a.cfg.SocialTimeout(),
	}
}

// structuralResult analyzes the units declared in path as one file.
// Outputs carrying precomputed metrics yield nil.
func (r *run) structuralResult(path string, out *frontend.Output) (*structural.Result, error) {
	if out.Metrics != nil {
		return nil, nil
	}
	res, ok := r.structural.AnalyzeFile(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnitNotFound)
	}
	return res, nil
}

func (a *Analyzer) evaluate(ctx context.Context, r *run, path string) (FileReport, error) {
	out := r.outputs[path]
	sr, err := r.structuralResult(path, out)
	if err != nil {
		return FileReport{}, err
	}
	m, err := metrics.Normalize(path, out, sr)
	if err != nil {
		return FileReport{}, err
	}

	hp := r.historyPath(path)
	churn := r.history.ChurnOf(hp)
	recent := r.history.RecentChurnOf(hp)
	peers := r.history.Peers(hp)
	for i, p := range peers {
		peers[i] = r.localPath(p)
	}

	var signals *social.Signals
	if r.social != nil {
		signals, err = r.social.Analyze(ctx, r.root, path, recent)
		if err != nil {
			a.logger.Debug("social signals unavailable", "path", path, "err", err)
			signals = nil
		}
	}

	score := risk.Adjusted(risk.Score(churn, m.TotalComplexity, m.Cohesion), signals.Multiplier())
	c := rules.Context{
		Metrics:      m,
		Churn:        churn,
		RecentChurn:  recent,
		CoupledPeers: len(peers),
		Thresholds:   a.cfg.Thresholds,
		Shape:        structural.Shape(metrics.Extra(m, metrics.ExtraShape, "")),
		Social:       signals,
		Risk:         score,
	}

	var tr *testability.Result
	if r.tests != nil {
		opts := testability.Options{
			HotspotRisk:  a.cfg.Testability.HotspotRisk,
			HotspotChurn: a.cfg.Testability.HotspotChurn,
		}
		tr = r.tests.Evaluate(path, m.FanOut, c.LCOM4(), m.TotalComplexity, score, churn, opts)
		c.UntestedHotspot = tr.UntestedHotspot
	}

	v := a.engine.Evaluate(c)
	if len(v.Skipped) > 0 {
		a.logger.Warn("rules skipped", "path", path, "rules", v.Skipped)
	}

	return FileReport{
		Path:             path,
		Language:         m.Language,
		Churn:            churn,
		RecentChurn:      recent,
		DaysSinceCommit:  r.history.DaysSinceLastCommit(hp, r.now),
		CoupledPeerCount: len(peers),
		CoupledPeers:     peers,
		Metrics:          m,
		Shape:            c.Shape,
		Social:           signals,
		Testability:      tr,
		Risk:             score,
		RiskLevel:        risk.LevelOf(score),
		Verdict:          v.Name,
		Priority:         v.Priority,
		Description:      v.Description,
		SkippedRules:     v.Skipped,
	}, nil
}

// Cohesion parses the single file at path, relative to root, and returns the
// structural result of every unit it declares, sorted by unit name. Afferent
// coupling is not computed since no other file is parsed.
func (a *Analyzer) Cohesion(ctx context.Context, root, path string) ([]*structural.Result, error) {
	path = filepath.ToSlash(filepath.Clean(path))
	reg, err := a.registryFor(root)
	if err != nil {
		return nil, err
	}
	out, err := parse(ctx, reg, root, path)
	if err != nil {
		return nil, err
	}
	if out.Metrics != nil {
		return nil, fmt.Errorf("%s: %s backend builds no program model: %w", path, out.Backend, frontend.ErrUnsupported)
	}
	th := a.cfg.Thresholds
	sa := structural.New(model.NewProgram(out.Units...),
		structural.WithBrainMethodThresholds(th.BrainMethodComplexity, th.BrainMethodStatements))
	units := sa.Program().UnitsAt(path)
	if len(units) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrUnitNotFound)
	}
	results := make([]*structural.Result, len(units))
	for i, u := range units {
		results[i] = sa.AnalyzeUnit(u)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Unit < results[j].Unit })
	return results, nil
}
