package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/decay/internal/forensics"
	"github.com/panbanda/decay/internal/output"
	"github.com/panbanda/decay/pkg/config"
	"github.com/urfave/cli/v2"
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// newLogger builds the process logger on w. Info is the default level;
// verbose lowers it to debug.
func newLogger(w io.Writer, verbose bool, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

// logger returns the logger set up by the app's Before hook.
func logger(c *cli.Context) *slog.Logger {
	if l, ok := c.App.Metadata["logger"].(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadConfig reads --config when given, the config file found in the
// working directory otherwise.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	cfg, path, err := config.LoadOrDefault()
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger(c).Debug("config loaded", "path", path)
	}
	return cfg, nil
}

// newAnalyzer loads the config and builds an analyzer from it.
func newAnalyzer(c *cli.Context) (*forensics.Analyzer, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	if c.Bool("no-social") {
		cfg.Social.Enabled = false
	}
	a, err := forensics.New(forensics.WithConfig(cfg), forensics.WithLogger(logger(c)))
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

// newFormatter resolves --format against the configured default and opens
// --output. Color is used only for text on a terminal.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	name := c.String("format")
	if name == "" && cfg != nil {
		name = cfg.Output.Format
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	colored := format == output.FormatText && !color.NoColor
	if path := c.String("output"); path != "" {
		return output.CreateFormatter(format, path, false)
	}
	return output.NewFormatter(format, c.App.Writer, colored), nil
}

// progressWriter is where progress bars go, or nil when they are disabled.
func progressWriter(c *cli.Context) io.Writer {
	if c.Bool("quiet") {
		return nil
	}
	return c.App.ErrWriter
}

// relTo returns path relative to root in slash form, or path unchanged when
// it is outside root.
func relTo(root, path string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return filepath.ToSlash(path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
