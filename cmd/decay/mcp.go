package main

import (
	"fmt"

	"github.com/panbanda/decay/internal/forensics"
	"github.com/panbanda/decay/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes decay's analyses
as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "decay": {
        "command": "decay",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_decay      Verdict and risk per file
  - analyze_churn      Git file change frequency
  - analyze_coupling   Files that change together
  - analyze_cohesion   LCOM4 method graph of single files
  - list_rules         The verdict rules in evaluation order`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the server.json manifest for MCP registries",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	server := mcpserver.NewServer(version, forensics.WithLogger(logger(c))).
		UseConfig(c.String("config"))
	return server.Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
