package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/panbanda/decay/internal/forensics"
	"github.com/panbanda/decay/internal/progress"
	"github.com/panbanda/decay/pkg/analyzer"
	"github.com/panbanda/decay/pkg/config"
	"github.com/urfave/cli/v2"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Classify every file of a repository and rank them by risk",
		ArgsUsage: "[path...]",
		Description: `Mines the git history, parses every source file, and evaluates the rule
table against the combined signals. Files are listed by descending risk.

Examples:
  decay analyze                        # current repository
  decay analyze --hotspots-only        # files that change and carry a verdict
  decay analyze --min-churn 10 -f json # machine-readable, busy files only`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "top",
				Aliases: []string{"n"},
				Usage:   "Show top N files by risk, 0 for all (default from config)",
			},
			&cli.BoolFlag{
				Name:  "hotspots-only",
				Usage: "Show only files that change and carry a decay verdict",
			},
			&cli.IntFlag{
				Name:  "min-churn",
				Usage: "Show only files with at least this many commits",
			},
			&cli.BoolFlag{
				Name:  "no-social",
				Usage: "Skip git blame ownership signals",
			},
		},
		Action: runAnalyzeCmd,
	}
}

// selectOptions layers the command flags over the [output] config section.
func selectOptions(c *cli.Context, cfg *config.Config) forensics.SelectOptions {
	opts := forensics.SelectOptions{
		HotspotsOnly: cfg.Output.HotspotsOnly,
		MinChurn:     cfg.Output.MinChurn,
		Top:          cfg.Output.Top,
	}
	if c.IsSet("top") {
		opts.Top = c.Int("top")
	}
	if c.IsSet("hotspots-only") {
		opts.HotspotsOnly = c.Bool("hotspots-only")
	}
	if c.IsSet("min-churn") {
		opts.MinChurn = c.Int("min-churn")
	}
	return opts
}

func runAnalyzeCmd(c *cli.Context) error {
	a, cfg, err := newAnalyzer(c)
	if err != nil {
		return err
	}
	opts := selectOptions(c, cfg)

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	for _, path := range getPaths(c) {
		p := newRunProgress(progressWriter(c))
		ctx := analyzer.WithTracker(c.Context, analyzer.NewTracker(p.tick))
		rep, err := a.Run(ctx, path)
		skipped := 0
		if rep != nil {
			skipped = len(rep.Skipped)
		}
		p.finish(skipped)
		if err != nil {
			return fmt.Errorf("analysis of %s failed: %w", path, err)
		}

		if err := formatter.Output(rep.Render(opts, formatter.Colored())); err != nil {
			return err
		}
		if n := len(rep.Skipped); n > 0 {
			fmt.Fprintln(c.App.ErrWriter, color.YellowString("%d of %d files skipped; rerun with --verbose for details", n, rep.Summary.Scanned))
		}
	}
	return nil
}

// runProgress shows a spinner while the history is mined and switches to a
// bar once the first file is done, when the total is known.
type runProgress struct {
	w       io.Writer
	spinner *progress.Tracker
	once    sync.Once
	bar     *progress.Tracker
}

func newRunProgress(w io.Writer) *runProgress {
	return &runProgress{w: w, spinner: progress.NewSpinner(w, "Mining history...")}
}

func (p *runProgress) tick(done, total int, path string) {
	p.once.Do(func() {
		p.spinner.FinishSuccess()
		p.bar = progress.NewTracker(p.w, "Analyzing files...", total)
	})
	p.bar.Tick()
}

func (p *runProgress) finish(skipped int) {
	p.once.Do(p.spinner.FinishSuccess)
	p.bar.FinishSkipped(skipped)
}
