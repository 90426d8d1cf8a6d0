package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/decay/internal/forensics"
	"github.com/panbanda/decay/internal/output"
	"github.com/panbanda/decay/pkg/analyzer/structural"
	toon "github.com/toon-format/toon-go"
)

// Common input structures for tools

// AnalyzeInput is the base input for all analyze tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Repository roots or subdirectories to analyze. Defaults to current directory if empty."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// DecayInput adds report filters.
type DecayInput struct {
	AnalyzeInput
	Top          int  `json:"top,omitempty" jsonschema:"Show top N files by risk. Default 20, negative for all."`
	HotspotsOnly bool `json:"hotspots_only,omitempty" jsonschema:"Show only files that change and carry a decay verdict."`
	MinChurn     int  `json:"min_churn,omitempty" jsonschema:"Show only files with at least this many commits."`
}

// ChurnInput adds churn-specific options.
type ChurnInput struct {
	AnalyzeInput
	Top int `json:"top,omitempty" jsonschema:"Show top N files by churn. Default 20."`
}

// CouplingInput adds coupling-specific options.
type CouplingInput struct {
	AnalyzeInput
	File string `json:"file,omitempty" jsonschema:"Only show the peers of this file, relative to the repository root."`
	Top  int    `json:"top,omitempty" jsonschema:"Show top N files by peer count. Default 20."`
}

// CohesionInput selects single files to inspect.
type CohesionInput struct {
	Root   string   `json:"root,omitempty" jsonschema:"Directory the files are relative to. Defaults to current directory."`
	Files  []string `json:"files" jsonschema:"Source files to inspect, relative to root."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// RulesInput only selects the output format.
type RulesInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

const defaultTop = 20

// Helper functions

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(format string) output.Format {
	switch format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func top(n int) int {
	if n < 0 {
		return 0
	}
	if n == 0 {
		return defaultTop
	}
	return n
}

func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "\n```", nil
	default:
		return output.MarshalTOON(data)
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// single unwraps one-element result lists.
func single[T any](items []T) any {
	if len(items) == 1 {
		return items[0]
	}
	return items
}

// Tool handlers

func (s *Server) handleAnalyzeDecay(ctx context.Context, req *mcp.CallToolRequest, input DecayInput) (*mcp.CallToolResult, any, error) {
	a, err := s.analyzer()
	if err != nil {
		return toolError(err.Error())
	}
	opts := forensics.SelectOptions{
		HotspotsOnly: input.HotspotsOnly,
		MinChurn:     input.MinChurn,
		Top:          top(input.Top),
	}

	var views []forensics.View
	for _, path := range getPaths(input.AnalyzeInput) {
		rep, err := a.Run(ctx, path)
		if err != nil {
			return toolError(err.Error())
		}
		views = append(views, forensics.View{
			Root:        rep.Root,
			GeneratedAt: rep.GeneratedAt,
			Commits:     rep.Commits,
			Summary:     rep.Summary,
			Files:       rep.Select(opts),
			Skipped:     rep.Skipped,
			Digest:      rep.Digest,
		})
	}
	return toolResult(single(views), getFormat(input.Format))
}

func (s *Server) handleAnalyzeChurn(ctx context.Context, req *mcp.CallToolRequest, input ChurnInput) (*mcp.CallToolResult, any, error) {
	a, err := s.analyzer()
	if err != nil {
		return toolError(err.Error())
	}

	var reports []forensics.ChurnReport
	for _, path := range getPaths(input.AnalyzeInput) {
		res, err := a.Mine(ctx, path)
		if err != nil {
			return toolError(err.Error())
		}
		reports = append(reports, forensics.NewChurnReport(res, top(input.Top), time.Now()))
	}
	return toolResult(single(reports), getFormat(input.Format))
}

func (s *Server) handleAnalyzeCoupling(ctx context.Context, req *mcp.CallToolRequest, input CouplingInput) (*mcp.CallToolResult, any, error) {
	a, err := s.analyzer()
	if err != nil {
		return toolError(err.Error())
	}

	var reports []forensics.CouplingReport
	for _, path := range getPaths(input.AnalyzeInput) {
		res, err := a.Mine(ctx, path)
		if err != nil {
			return toolError(err.Error())
		}
		reports = append(reports, forensics.NewCouplingReport(res, filepath.ToSlash(input.File), top(input.Top)))
	}
	return toolResult(single(reports), getFormat(input.Format))
}

// CohesionReport is the analyze_cohesion result for one file.
type CohesionReport struct {
	Path  string               `json:"path"`
	Units []*structural.Result `json:"units,omitempty"`
	Error string               `json:"error,omitempty"`
}

func (s *Server) handleAnalyzeCohesion(ctx context.Context, req *mcp.CallToolRequest, input CohesionInput) (*mcp.CallToolResult, any, error) {
	if len(input.Files) == 0 {
		return toolError("no files given")
	}
	root := input.Root
	if root == "" {
		root = "."
	}
	a, err := s.analyzer()
	if err != nil {
		return toolError(err.Error())
	}

	reports := make([]CohesionReport, 0, len(input.Files))
	for _, file := range input.Files {
		units, err := a.Cohesion(ctx, root, file)
		r := CohesionReport{Path: filepath.ToSlash(file), Units: units}
		if err != nil {
			r.Error = err.Error()
		}
		reports = append(reports, r)
	}
	return toolResult(single(reports), getFormat(input.Format))
}

// RuleInfo describes one row of the decision table.
type RuleInfo struct {
	Priority    int    `json:"priority"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleListRules(ctx context.Context, req *mcp.CallToolRequest, input RulesInput) (*mcp.CallToolResult, any, error) {
	a, err := s.analyzer()
	if err != nil {
		return toolError(err.Error())
	}
	table := a.Engine().Rules()
	infos := make([]RuleInfo, len(table))
	for i, r := range table {
		infos[i] = RuleInfo{Priority: r.Priority, Name: r.Name, Description: r.Description}
	}
	return toolResult(infos, getFormat(input.Format))
}
