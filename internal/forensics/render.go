package forensics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/panbanda/decay/internal/output"
)

// View is the serialized form of a report restricted to the selected files.
type View struct {
	Root        string       `json:"root"`
	GeneratedAt time.Time    `json:"generated_at"`
	Commits     int          `json:"commits"`
	Summary     Summary      `json:"summary"`
	Files       []FileReport `json:"files"`
	Skipped     []Skip       `json:"skipped"`
	Digest      string       `json:"digest"`
}

// Render builds the displayable report for the files passing opts. The
// summary always covers every analyzed file.
func (r *Report) Render(opts SelectOptions, colored bool) output.Renderable {
	files := r.Select(opts)
	return &output.Report{
		Title: "Architectural decay report",
		Sections: []output.Renderable{
			&output.Section{Title: "Summary", Content: r.summaryText()},
			verdictTable(r.Summary.Verdicts),
			fileTable(files, colored),
			skipTable(r.Skipped),
		},
		Data: View{
			Root:        r.Root,
			GeneratedAt: r.GeneratedAt,
			Commits:     r.Commits,
			Summary:     r.Summary,
			Files:       files,
			Skipped:     r.Skipped,
			Digest:      r.Digest,
		},
	}
}

func (r *Report) summaryText() string {
	s := r.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Root:      %s\n", r.Root)
	fmt.Fprintf(&b, "Commits:   %d\n", r.Commits)
	fmt.Fprintf(&b, "Files:     %d analyzed, %d skipped of %d scanned\n", s.Analyzed, s.Skipped, s.Scanned)
	fmt.Fprintf(&b, "Risk:      mean %.1f, median %.1f, p90 %.1f, max %.1f\n", s.MeanRisk, s.MedianRisk, s.P90Risk, s.MaxRisk)
	fmt.Fprintf(&b, "Hotspots:  %d (%d untested)\n", s.Hotspots, s.UntestedHotspots)
	fmt.Fprintf(&b, "Islands:   %d\n", s.KnowledgeIslands)
	fmt.Fprintf(&b, "Digest:    %s", r.Digest)
	return b.String()
}

func verdictTable(verdicts map[string]int) *output.Table {
	names := make([]string, 0, len(verdicts))
	for name := range verdicts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if verdicts[names[i]] != verdicts[names[j]] {
			return verdicts[names[i]] > verdicts[names[j]]
		}
		return names[i] < names[j]
	})
	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name, strconv.Itoa(verdicts[name])}
	}
	return output.NewTable("Verdicts", []string{"Verdict", "Files"}, rows, nil, nil)
}

func fileTable(files []FileReport, colored bool) *output.Table {
	rows := make([][]string, len(files))
	for i, f := range files {
		level := string(f.RiskLevel)
		if colored {
			level = output.LevelColor(level, level)
		}
		rows[i] = []string{
			f.Path,
			f.Verdict,
			fmt.Sprintf("%.1f", f.Risk),
			level,
			strconv.Itoa(f.Churn),
			strconv.Itoa(f.RecentChurn),
			fmt.Sprintf("%.0f", f.Metrics.TotalComplexity),
			strconv.Itoa(f.Metrics.LCOM4()),
			strconv.Itoa(f.Metrics.FanOut),
			strconv.Itoa(f.CoupledPeerCount),
		}
	}
	return output.NewTable("Files",
		[]string{"File", "Verdict", "Risk", "Level", "Churn", "Recent", "CC", "LCOM4", "Fan-out", "Peers"},
		rows, nil, nil)
}

func skipTable(skipped []Skip) *output.Table {
	rows := make([][]string, len(skipped))
	for i, s := range skipped {
		rows[i] = []string{s.Path, s.Reason, s.Error}
	}
	return output.NewTable("Skipped", []string{"File", "Reason", "Error"}, rows, nil, nil)
}
