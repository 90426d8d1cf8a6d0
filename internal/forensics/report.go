package forensics

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/panbanda/decay/internal/fileproc"
	"github.com/panbanda/decay/pkg/analyzer/risk"
	"github.com/panbanda/decay/pkg/analyzer/rules"
	"github.com/panbanda/decay/pkg/analyzer/social"
	"github.com/panbanda/decay/pkg/analyzer/structural"
	"github.com/panbanda/decay/pkg/analyzer/testability"
	"github.com/panbanda/decay/pkg/frontend"
	"github.com/panbanda/decay/pkg/metrics"
	"github.com/zeebo/blake3"
	"gonum.org/v1/gonum/stat"
)

// FileReport is the outcome of analyzing one file.
type FileReport struct {
	Path             string              `json:"path"`
	Language         string              `json:"language"`
	Churn            int                 `json:"churn"`
	RecentChurn      int                 `json:"recent_churn"`
	DaysSinceCommit  int                 `json:"days_since_commit"`
	CoupledPeerCount int                 `json:"coupled_peer_count"`
	CoupledPeers     []string            `json:"coupled_peers,omitempty"`
	Metrics          metrics.Unified     `json:"metrics"`
	Shape            structural.Shape    `json:"shape,omitempty"`
	Social           *social.Signals     `json:"social,omitempty"`
	Testability      *testability.Result `json:"testability,omitempty"`
	Risk             float64             `json:"risk"`
	RiskLevel        risk.Level          `json:"risk_level"`
	Verdict          string              `json:"verdict"`
	Priority         int                 `json:"-"`
	Description      string              `json:"description"`
	SkippedRules     []string            `json:"skipped_rules,omitempty"`
}

// IsHotspot reports a file that changes and carries a decay verdict.
func (f FileReport) IsHotspot() bool {
	return f.Churn > 0 && f.Verdict != rules.OK
}

// Skip records a file that produced no report.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// Skip reasons.
const (
	ReasonUnsupported  = "unsupported"
	ReasonTimeout      = "timeout"
	ReasonMalformed    = "malformed"
	ReasonUnitNotFound = "unit not found"
	ReasonCancelled    = "cancelled"
	ReasonError        = "error"
)

func reasonOf(err error) string {
	switch {
	case errors.Is(err, frontend.ErrUnsupported):
		return ReasonUnsupported
	case errors.Is(err, frontend.ErrTimeout):
		return ReasonTimeout
	case errors.Is(err, frontend.ErrMalformed):
		return ReasonMalformed
	case errors.Is(err, ErrUnitNotFound):
		return ReasonUnitNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCancelled
	default:
		return ReasonError
	}
}

// Summary aggregates a run.
type Summary struct {
	Scanned          int                `json:"scanned"`
	Analyzed         int                `json:"analyzed"`
	Skipped          int                `json:"skipped"`
	Hotspots         int                `json:"hotspots"`
	UntestedHotspots int                `json:"untested_hotspots"`
	KnowledgeIslands int                `json:"knowledge_islands"`
	Verdicts         map[string]int     `json:"verdicts"`
	Levels           map[risk.Level]int `json:"levels"`
	MeanRisk         float64            `json:"mean_risk"`
	MedianRisk       float64            `json:"median_risk"`
	P90Risk          float64            `json:"p90_risk"`
	MaxRisk          float64            `json:"max_risk"`
}

// Report is the outcome of one run. Files are ordered by descending risk,
// then path; Skipped by path.
type Report struct {
	Root        string       `json:"root"`
	GeneratedAt time.Time    `json:"generated_at"`
	Commits     int          `json:"commits"`
	Scanned     int          `json:"-"`
	Files       []FileReport `json:"files"`
	Skipped     []Skip       `json:"skipped"`
	Summary     Summary      `json:"summary"`
	// Digest fingerprints Files and Skipped. Two runs over the same tree and
	// history produce the same digest.
	Digest string `json:"digest"`
}

func (r *Report) skip(errs *fileproc.ProcessingErrors, logger *slog.Logger) {
	if !errs.HasErrors() {
		return
	}
	for _, pe := range errs.Errors {
		s := Skip{Path: pe.Path, Reason: reasonOf(pe.Err), Error: pe.Err.Error()}
		logger.Debug("file skipped", "path", s.Path, "reason", s.Reason, "err", pe.Err)
		r.Skipped = append(r.Skipped, s)
	}
}

// finish orders the results and derives the summary and digest.
func (r *Report) finish() {
	sort.SliceStable(r.Files, func(i, j int) bool {
		if r.Files[i].Risk != r.Files[j].Risk {
			return r.Files[i].Risk > r.Files[j].Risk
		}
		return r.Files[i].Path < r.Files[j].Path
	})
	sort.Slice(r.Skipped, func(i, j int) bool {
		return r.Skipped[i].Path < r.Skipped[j].Path
	})
	if r.Files == nil {
		r.Files = []FileReport{}
	}
	if r.Skipped == nil {
		r.Skipped = []Skip{}
	}
	r.Summary = Summarize(r.Files)
	r.Summary.Scanned = r.Scanned
	r.Summary.Skipped = len(r.Skipped)
	r.Digest = digest(r.Files, r.Skipped)
}

// Summarize computes the verdict distribution and risk statistics of files.
// Quantiles use the empirical distribution, so the median of an even count
// is its lower middle value.
func Summarize(files []FileReport) Summary {
	s := Summary{
		Analyzed: len(files),
		Verdicts: make(map[string]int),
		Levels:   make(map[risk.Level]int),
	}
	if len(files) == 0 {
		return s
	}
	scores := make([]float64, len(files))
	for i, f := range files {
		scores[i] = f.Risk
		s.Verdicts[f.Verdict]++
		s.Levels[f.RiskLevel]++
		if f.IsHotspot() {
			s.Hotspots++
		}
		if f.Testability != nil && f.Testability.UntestedHotspot {
			s.UntestedHotspots++
		}
		if f.Social != nil && f.Social.KnowledgeIsland {
			s.KnowledgeIslands++
		}
	}
	sort.Float64s(scores)
	s.MeanRisk = stat.Mean(scores, nil)
	s.MedianRisk = stat.Quantile(0.5, stat.Empirical, scores, nil)
	s.P90Risk = stat.Quantile(0.9, stat.Empirical, scores, nil)
	s.MaxRisk = scores[len(scores)-1]
	return s
}

func digest(files []FileReport, skipped []Skip) string {
	data, err := json.Marshal(struct {
		Files   []FileReport `json:"files"`
		Skipped []Skip       `json:"skipped"`
	}{files, skipped})
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SelectOptions filter the files of a report for display.
type SelectOptions struct {
	// HotspotsOnly keeps files that change and carry a decay verdict.
	HotspotsOnly bool
	MinChurn     int
	// Top bounds the result; 0 keeps every file.
	Top int
}

// Select returns the files passing opts, in report order.
func (r *Report) Select(opts SelectOptions) []FileReport {
	out := make([]FileReport, 0, len(r.Files))
	for _, f := range r.Files {
		if opts.HotspotsOnly && !f.IsHotspot() {
			continue
		}
		if f.Churn < opts.MinChurn {
			continue
		}
		out = append(out, f)
		if opts.Top > 0 && len(out) == opts.Top {
			break
		}
	}
	return out
}
