package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"alumni-engine/internal/batch"
	"alumni-engine/internal/collect"
	"alumni-engine/internal/domain"
	"alumni-engine/internal/resolve"
)

type APIError struct {
	Error struct {
		Code           string `json:"code"`
		Message        string `json:"message"`
		RequestID      string `json:"request_id,omitempty"`
		Retryable      *bool  `json:"retryable,omitempty"`
		UpstreamStatus int    `json:"upstream_status,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeDomainError maps the engine's error taxonomy onto HTTP responses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var e APIError
	e.Error.RequestID = RequestIDFrom(r.Context())
	e.Error.Message = err.Error()
	status := http.StatusInternalServerError

	var (
		ve *batch.ValidationError
		rf *resolve.ResolutionFailed
		ff *collect.FetchFailed
	)
	switch {
	case errors.As(err, &ve), errors.Is(err, resolve.ErrEmptyName):
		status, e.Error.Code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, batch.ErrConflict):
		status, e.Error.Code = http.StatusConflict, "conflict"
	case errors.As(err, &rf):
		retryable := rf.Retryable()
		e.Error.Retryable = &retryable
		status = http.StatusUnprocessableEntity
		if rf.Strategy == domain.StrategyPrimary {
			e.Error.Code = "primary_resolution_failed"
		} else {
			e.Error.Code = "fallback_resolution_failed"
		}
	case errors.As(err, &ff):
		status, e.Error.Code = http.StatusBadGateway, "fetch_failed"
		e.Error.UpstreamStatus = ff.Status
	default:
		e.Error.Code = "internal_error"
		loggerFrom(r).Error("request failed", "request_id", e.Error.RequestID, "path", r.URL.Path, "error", err)
		e.Error.Message = "internal server error"
	}
	WriteJSON(w, status, e)
}
