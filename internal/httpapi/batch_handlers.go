package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"alumni-engine/internal/domain"
)

type BatchHandler struct {
	Batch   BatchRunner
	Skipped SkippedWriter
}

type startBatchReq struct {
	Items       []domain.WorkItem `json:"items"`
	Concurrency int               `json:"concurrency"`
	Strategy    string            `json:"strategy"`
}

func (h BatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startBatchReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}

	jobID, err := h.Batch.Submit(req.Items, req.Concurrency, req.Strategy)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"message": fmt.Sprintf("batch started with %d items", len(req.Items)),
		"jobId":   jobID,
	})
}

func (h BatchHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Batch.Status())
}

func (h BatchHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.Batch.Stop()
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

type reportSkippedReq struct {
	SkippedProfiles []json.RawMessage `json:"skippedProfiles"`
	Batch           string            `json:"batch"`
}

func (h BatchHandler) ReportSkipped(w http.ResponseWriter, r *http.Request) {
	var req reportSkippedReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if len(req.SkippedProfiles) == 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_request", "skippedProfiles must not be empty")
		return
	}

	path, err := h.Skipped.WriteSkipped(req.Batch, req.SkippedProfiles)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"filename": filepath.Base(path),
	})
}
