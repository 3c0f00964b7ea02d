package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"alumni-engine/internal/batch"
	"alumni-engine/internal/config"
	"alumni-engine/internal/domain"
	"alumni-engine/internal/events"
)

// BatchRunner is the part of batch.Orchestrator the API drives.
type BatchRunner interface {
	Submit(items []domain.WorkItem, concurrency int, strategy string) (string, error)
	Stop()
	Status() batch.JobState
}

type SkippedWriter interface {
	WriteSkipped(batchName string, items []json.RawMessage) (string, error)
}

type ProfileCounter interface {
	Count(ctx context.Context) (int, error)
}

type Deps struct {
	Batch    BatchRunner
	Single   batch.Processor
	Skipped  SkippedWriter
	Profiles ProfileCounter

	Hub *events.Hub

	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Optional; mounted at /mcp when set.
	MCP *MCPServer

	Version string
	Log     *slog.Logger
}
