package forensics

import (
	"sort"
	"time"

	"github.com/panbanda/decay/pkg/analyzer/history"
)

// ChurnReport ranks the files of one history by change count.
type ChurnReport struct {
	Root       string  `json:"root"`
	Commits    int     `json:"commits"`
	Files      int     `json:"files"`
	TotalChurn int     `json:"total_churn"`
	Top        []Churn `json:"top"`
}

// Churn is one file's change counts.
type Churn struct {
	Path            string `json:"path"`
	Commits         int    `json:"commits"`
	Recent          int    `json:"recent"`
	Peers           int    `json:"peers"`
	DaysSinceCommit int    `json:"days_since_commit"`
}

// NewChurnReport keeps the n most changed files of res; n <= 0 keeps all.
func NewChurnReport(res *history.Result, n int, now time.Time) ChurnReport {
	entries := res.Churn.Sorted()
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	rows := make([]Churn, len(entries))
	for i, e := range entries {
		rows[i] = Churn{
			Path:            e.Path,
			Commits:         e.Commits,
			Recent:          res.RecentChurnOf(e.Path),
			Peers:           res.PeerCount(e.Path),
			DaysSinceCommit: res.DaysSinceLastCommit(e.Path, now),
		}
	}
	return ChurnReport{
		Root:       res.Root,
		Commits:    res.Stats.Commits,
		Files:      len(res.Churn),
		TotalChurn: res.Churn.Total(),
		Top:        rows,
	}
}

// CouplingReport lists temporally coupled files of one history.
type CouplingReport struct {
	Root    string     `json:"root"`
	Commits int        `json:"commits"`
	Files   []Coupling `json:"files"`
}

// Coupling lists the peers of one file, strongest first.
type Coupling struct {
	Path  string                 `json:"path"`
	Churn int                    `json:"churn"`
	Peers []history.CouplingEdge `json:"peers"`
}

// NewCouplingReport orders coupled files by peer count, then churn, and
// keeps n of them; n <= 0 keeps all. A non-empty file restricts the report
// to that file, coupled or not.
func NewCouplingReport(res *history.Result, file string, n int) CouplingReport {
	rep := CouplingReport{Root: res.Root, Commits: res.Stats.Commits, Files: []Coupling{}}
	if file != "" {
		rep.Files = append(rep.Files, Coupling{
			Path:  file,
			Churn: res.ChurnOf(file),
			Peers: edgesOf(res, file),
		})
		return rep
	}
	for _, e := range res.Churn.Sorted() {
		if len(res.Coupling[e.Path]) == 0 {
			continue
		}
		rep.Files = append(rep.Files, Coupling{Path: e.Path, Churn: e.Commits, Peers: edgesOf(res, e.Path)})
	}
	sort.SliceStable(rep.Files, func(i, j int) bool {
		return len(rep.Files[i].Peers) > len(rep.Files[j].Peers)
	})
	if n > 0 && len(rep.Files) > n {
		rep.Files = rep.Files[:n]
	}
	return rep
}

func edgesOf(res *history.Result, path string) []history.CouplingEdge {
	edges := res.Coupling[path]
	if edges == nil {
		return []history.CouplingEdge{}
	}
	return edges
}
