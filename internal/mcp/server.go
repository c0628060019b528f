// Package mcp exposes the Fermi catalog and example generation as MCP tools.
package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"fermi/internal/builder"
	"fermi/internal/catalog"
	"fermi/internal/logging"
)

var (
	DefaultLimit = 20
	MaxLimit     = 500
)

// Server wraps the MCP SDK server. Split files are resolved through Resolver.
type Server struct {
	MCPServer *sdkmcp.Server
	Resolver  builder.Resolver
}

// NewServer creates an MCP server with the catalog and generation tools.
func NewServer(r builder.Resolver, version string) *Server {
	s := &Server{Resolver: r}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "fermi", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_configs",
		Description: "List the Fermi Problems configurations with their versions, descriptions and record fields.",
	}, s.handleListConfigs)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "describe_config",
		Description: "Describe one configuration: full description, feature schema, homepage, license and citation.",
	}, s.handleDescribeConfig)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "generate_examples",
		Description: "Download a split if needed and return a window of its (key, record) examples.",
	}, s.handleGenerateExamples)
}

// --- Tool input/output types ---

type listConfigsInput struct{}

type configSummary struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Fields      []string `json:"fields"`
	Default     bool     `json:"default"`
}

type listConfigsOutput struct {
	Configs []configSummary `json:"configs"`
}

type describeConfigInput struct {
	Config string `json:"config,omitempty" jsonschema:"configuration name (default realFP)"`
}

type generateExamplesInput struct {
	Config string `json:"config,omitempty" jsonschema:"configuration name (default realFP)"`
	Split  string `json:"split" jsonschema:"split name (train, validation, test)"`
	Offset int    `json:"offset,omitempty" jsonschema:"key of the first example to return"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of examples to return (default 20)"`
}

type exampleOutput struct {
	Key    int            `json:"key"`
	Record map[string]any `json:"record"`
}

type generateExamplesOutput struct {
	Config     string          `json:"config"`
	Split      string          `json:"split"`
	Examples   []exampleOutput `json:"examples"`
	NextOffset int             `json:"next_offset,omitempty"`
	Done       bool            `json:"done"`
}

// --- Tool handlers ---

func (s *Server) handleListConfigs(_ context.Context, _ *sdkmcp.CallToolRequest, _ listConfigsInput) (*sdkmcp.CallToolResult, listConfigsOutput, error) {
	var out listConfigsOutput
	for _, c := range catalog.Configs() {
		out.Configs = append(out.Configs, configSummary{
			Name:        c.Name,
			Version:     c.Version,
			Description: c.Description,
			Fields:      c.Schema.Names(),
			Default:     c.Name == catalog.DefaultConfigName(),
		})
	}
	return nil, out, nil
}

func (s *Server) handleDescribeConfig(_ context.Context, _ *sdkmcp.CallToolRequest, input describeConfigInput) (*sdkmcp.CallToolResult, catalog.Info, error) {
	b, err := builder.New(input.Config)
	if err != nil {
		return nil, catalog.Info{}, err
	}
	return nil, b.Info(), nil
}

func (s *Server) handleGenerateExamples(ctx context.Context, _ *sdkmcp.CallToolRequest, input generateExamplesInput) (*sdkmcp.CallToolResult, generateExamplesOutput, error) {
	logger := logging.New("mcp")
	b, err := builder.New(input.Config)
	if err != nil {
		return nil, generateExamplesOutput{}, err
	}
	split, err := catalog.ParseSplit(input.Split)
	if err != nil {
		return nil, generateExamplesOutput{}, err
	}
	if input.Offset < 0 {
		return nil, generateExamplesOutput{}, fmt.Errorf("offset must be non-negative, got %d", input.Offset)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	seq, err := b.Examples(ctx, s.Resolver, split)
	if err != nil {
		return nil, generateExamplesOutput{}, err
	}

	out := generateExamplesOutput{Config: b.Config.Name, Split: string(split), Examples: []exampleOutput{}, Done: true}
	for ex, err := range seq {
		if err != nil {
			return nil, generateExamplesOutput{}, err
		}
		if ex.Key < input.Offset {
			continue
		}
		if len(out.Examples) == limit {
			out.Done = false
			out.NextOffset = ex.Key
			break
		}
		out.Examples = append(out.Examples, exampleOutput{Key: ex.Key, Record: ex.Record.Map()})
	}
	logger.Debug("generate_examples", "config", out.Config, "split", out.Split, "returned", len(out.Examples), "done", out.Done)
	return nil, out, nil
}
