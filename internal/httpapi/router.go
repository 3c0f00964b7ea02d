package httpapi

import (
	"net/http"

	"alumni-engine/internal/logging"
	"alumni-engine/internal/secrets"
)

// NewMux returns the raw mux so the caller can still attach /shutdown.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{Batch: d.Batch, Profiles: d.Profiles, Version: d.Version}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Batch
	bh := BatchHandler{Batch: d.Batch, Skipped: d.Skipped}
	mux.HandleFunc("/batch/start", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: bh.Start,
	}))
	mux.HandleFunc("/batch/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: bh.Status,
	}))
	mux.HandleFunc("/batch/stop", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: bh.Stop,
	}))
	mux.HandleFunc("/batch/report-skipped", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: bh.ReportSkipped,
	}))

	// Single profile
	ph := ProfileHandler{Single: d.Single}
	mux.HandleFunc("/profile/resolve-and-fetch", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ph.ResolveAndFetch,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets
	sh := SecretsHandler{}
	mux.HandleFunc("/api/secrets/collector", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Store(secrets.AccountCollector),
	}))
	mux.HandleFunc("/api/secrets/llm", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Store(secrets.AccountLLM),
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub, Batch: d.Batch}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	if d.MCP != nil {
		mux.Handle("/mcp", d.MCP.Handler())
	}

	return mux
}

// NewHandler wraps h in the standard middleware chain.
func NewHandler(d Deps, h http.Handler) http.Handler {
	return Chain(h, WithLogger(logging.OrDefault(d.Log)), RequestID, Recover, AccessLog, Cors)
}
