package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"alumni-engine/internal/batch"
	"alumni-engine/internal/domain"
	"alumni-engine/internal/logging"
)

// MCPServer exposes batch control and single-profile resolution as MCP tools.
type MCPServer struct {
	server *mcp.Server
	batch  BatchRunner
	single batch.Processor
	log    *slog.Logger
}

type mcpItem struct {
	Name       string `json:"name" jsonschema:"Full name of the alumnus"`
	CohortHint string `json:"cohortHint,omitempty" jsonschema:"Cohort such as 2019-2023"`
	KnownURL   string `json:"knownUrl,omitempty" jsonschema:"Profile URL when already known"`
}

type startBatchInput struct {
	Items       []mcpItem `json:"items" jsonschema:"People to resolve, fetch and store"`
	Concurrency int       `json:"concurrency,omitempty" jsonschema:"Parallel workers, 1 to 10 (default 3)"`
	Strategy    string    `json:"strategy,omitempty" jsonschema:"primary, fallback or auto"`
}

type resolveProfileInput struct {
	Name       string `json:"name" jsonschema:"Full name of the alumnus"`
	CohortHint string `json:"cohortHint,omitempty" jsonschema:"Cohort such as 2019-2023"`
	KnownURL   string `json:"knownUrl,omitempty" jsonschema:"Profile URL when already known"`
	Strategy   string `json:"strategy,omitempty" jsonschema:"primary (default), fallback or auto"`
}

type emptyInput struct{}

func NewMCPServer(b BatchRunner, single batch.Processor, version string, log *slog.Logger) *MCPServer {
	s := &MCPServer{
		server: mcp.NewServer(&mcp.Implementation{Name: "alumni-engine", Version: version}, nil),
		batch:  b,
		single: single,
		log:    logging.OrDefault(log),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "start_batch",
		Description: "Start a background batch that resolves, fetches and stores alumni profiles. Fails if a batch is already running.",
	}, s.startBatch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "batch_status",
		Description: "Progress of the current or last batch: counters, failures and recent log lines.",
	}, s.batchStatus)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stop_batch",
		Description: "Ask the running batch to stop after in-flight items finish.",
	}, s.stopBatch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_profile",
		Description: "Resolve one person to a profile URL, fetch it and store the canonical profile.",
	}, s.resolveProfile)

	return s
}

func (s *MCPServer) Server() *mcp.Server { return s.server }

// RunStdio serves MCP over stdin/stdout until ctx ends or the client disconnects.
func (s *MCPServer) RunStdio(ctx context.Context) error {
	s.log.Info("starting MCP server", "transport", "stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves MCP over streamable HTTP.
func (s *MCPServer) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
}

func (s *MCPServer) startBatch(_ context.Context, _ *mcp.CallToolRequest, in startBatchInput) (*mcp.CallToolResult, any, error) {
	items := make([]domain.WorkItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, domain.WorkItem{Name: it.Name, CohortHint: it.CohortHint, KnownURL: it.KnownURL})
	}
	jobID, err := s.batch.Submit(items, in.Concurrency, in.Strategy)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(map[string]any{"jobId": jobID, "total": len(items)}), nil, nil
}

func (s *MCPServer) batchStatus(context.Context, *mcp.CallToolRequest, emptyInput) (*mcp.CallToolResult, any, error) {
	return jsonResult(s.batch.Status()), nil, nil
}

func (s *MCPServer) stopBatch(context.Context, *mcp.CallToolRequest, emptyInput) (*mcp.CallToolResult, any, error) {
	s.batch.Stop()
	return jsonResult(map[string]any{"success": true}), nil, nil
}

func (s *MCPServer) resolveProfile(ctx context.Context, _ *mcp.CallToolRequest, in resolveProfileInput) (*mcp.CallToolResult, any, error) {
	item := domain.WorkItem{
		Name:       strings.TrimSpace(in.Name),
		CohortHint: strings.TrimSpace(in.CohortHint),
		KnownURL:   strings.TrimSpace(in.KnownURL),
	}
	if err := batch.ValidateItems([]domain.WorkItem{item}); err != nil {
		return errorResult(err), nil, nil
	}
	strategy := domain.StrategyPrimary
	if in.Strategy != "" {
		parsed, ok := domain.ParseStrategy(in.Strategy)
		if !ok {
			return errorResult(errors.New("unknown strategy " + in.Strategy)), nil, nil
		}
		strategy = parsed
	}

	res, err := s.single.Process(ctx, item, strategy)
	if err != nil {
		s.log.Warn("mcp resolve_profile failed", "name", item.Name, "error", err)
		return errorResult(err), nil, nil
	}
	return jsonResult(map[string]any{
		"profile":   res.Profile.Summary(),
		"candidate": res.Candidate,
	}), nil, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(b)}}}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
