package httpapi

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	Batch    BatchRunner
	Profiles ProfileCounter
	Version  string
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"ok":      true,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": h.Version,
	}
	if h.Batch != nil {
		out["batchPhase"] = h.Batch.Status().Phase
	}
	if h.Profiles != nil {
		if n, err := h.Profiles.Count(r.Context()); err == nil {
			out["profiles"] = n
		} else {
			out["ok"] = false
			out["storeError"] = err.Error()
		}
	}
	WriteJSON(w, http.StatusOK, out)
}
