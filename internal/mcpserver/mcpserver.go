package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/decay/internal/forensics"
	"github.com/panbanda/decay/pkg/config"
)

// Server wraps the MCP server and registers the decay analysis tools.
type Server struct {
	server     *mcp.Server
	opts       []forensics.Option
	configPath string
}

// NewServer creates a new MCP server with every decay tool registered. opts
// are applied after the configuration found in the working directory.
func NewServer(version string, opts ...forensics.Option) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "decay",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, opts: opts}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// UseConfig makes every call load the config file at path instead of
// searching the working directory. An empty path restores the search.
func (s *Server) UseConfig(path string) *Server {
	s.configPath = path
	return s
}

// analyzer builds a fresh analyzer per call so edits to the config file are
// picked up without restarting the server.
func (s *Server) analyzer() (*forensics.Analyzer, error) {
	var cfg *config.Config
	var err error
	if s.configPath != "" {
		cfg, err = config.Load(s.configPath)
	} else {
		cfg, _, err = config.LoadOrDefault()
	}
	if err != nil {
		return nil, err
	}
	opts := append([]forensics.Option{forensics.WithConfig(cfg)}, s.opts...)
	return forensics.New(opts...)
}

func (s *Server) registerTools() {
	// Full forensics run
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_decay",
		Description: describeDecay(),
	}, s.handleAnalyzeDecay)

	// Change frequency (git)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_churn",
		Description: describeChurn(),
	}, s.handleAnalyzeChurn)

	// Temporal coupling (git)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_coupling",
		Description: describeCoupling(),
	}, s.handleAnalyzeCoupling)

	// LCOM4 method graph of single files
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_cohesion",
		Description: describeCohesion(),
	}, s.handleAnalyzeCohesion)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: describeRules(),
	}, s.handleListRules)
}
