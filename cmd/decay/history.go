package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/panbanda/decay/internal/forensics"
	"github.com/panbanda/decay/internal/output"
	"github.com/panbanda/decay/internal/progress"
	"github.com/panbanda/decay/pkg/analyzer/history"
	"github.com/urfave/cli/v2"
)

func churnCmd() *cli.Command {
	return &cli.Command{
		Name:      "churn",
		Usage:     "List the files changed by the most commits",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "top",
				Aliases: []string{"n"},
				Value:   20,
				Usage:   "Show top N files by churn, 0 for all",
			},
		},
		Action: runChurnCmd,
	}
}

func couplingCmd() *cli.Command {
	return &cli.Command{
		Name:      "coupling",
		Aliases:   []string{"temporal"},
		Usage:     "List files that change together",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "top",
				Aliases: []string{"n"},
				Value:   20,
				Usage:   "Show top N files by peer count, 0 for all",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Only show the peers of this file, relative to the repository root",
			},
		},
		Action: runCouplingCmd,
	}
}

// mine reads the history of every path behind a spinner.
func mine(c *cli.Context, each func(*history.Result) output.Renderable) error {
	a, cfg, err := newAnalyzer(c)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	for _, path := range getPaths(c) {
		spinner := progress.NewSpinner(progressWriter(c), "Mining history...")
		res, err := a.Mine(c.Context, path)
		spinner.FinishSuccess()
		if err != nil {
			return fmt.Errorf("history of %s: %w", path, err)
		}
		if err := formatter.Output(each(res)); err != nil {
			return err
		}
	}
	return nil
}

func runChurnCmd(c *cli.Context) error {
	now := time.Now()
	return mine(c, func(res *history.Result) output.Renderable {
		rep := forensics.NewChurnReport(res, c.Int("top"), now)
		rows := make([][]string, len(rep.Top))
		for i, f := range rep.Top {
			last := "-"
			if f.DaysSinceCommit >= 0 {
				last = strconv.Itoa(f.DaysSinceCommit)
			}
			rows[i] = []string{
				f.Path,
				strconv.Itoa(f.Commits),
				strconv.Itoa(f.Recent),
				strconv.Itoa(f.Peers),
				last,
			}
		}
		return output.NewTable(
			"File Churn",
			[]string{"File", "Commits", "Recent", "Peers", "Days Since Commit"},
			rows,
			[]string{
				fmt.Sprintf("Files: %d", rep.Files),
				fmt.Sprintf("Commits: %d", rep.Commits),
				fmt.Sprintf("Changes: %d", rep.TotalChurn),
				"",
				"",
			},
			rep,
		)
	})
}

func runCouplingCmd(c *cli.Context) error {
	file := filepath.ToSlash(c.String("file"))
	return mine(c, func(res *history.Result) output.Renderable {
		rep := forensics.NewCouplingReport(res, file, c.Int("top"))
		var rows [][]string
		for _, f := range rep.Files {
			for _, e := range f.Peers {
				rows = append(rows, []string{
					f.Path,
					strconv.Itoa(f.Churn),
					e.Peer,
					strconv.Itoa(e.Shared),
					fmt.Sprintf("%.0f%%", e.Ratio*100),
				})
			}
		}
		return output.NewTable(
			"Temporal Coupling",
			[]string{"File", "Churn", "Peer", "Shared", "Ratio"},
			rows,
			nil,
			rep,
		)
	})
}
