package httpapi

import (
	"net/http"
	"strings"

	"alumni-engine/internal/batch"
	"alumni-engine/internal/domain"
)

type ProfileHandler struct {
	Single batch.Processor
}

type resolveAndFetchReq struct {
	Name       string `json:"name"`
	CohortHint string `json:"cohortHint"`
	KnownURL   string `json:"knownUrl"`
	Strategy   string `json:"strategy"`
}

// ResolveAndFetch runs one item synchronously. The strategy defaults to
// primary so callers can tell a retryable primary miss from a final one.
func (h ProfileHandler) ResolveAndFetch(w http.ResponseWriter, r *http.Request) {
	var req resolveAndFetchReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}

	item := domain.WorkItem{
		Name:       strings.TrimSpace(req.Name),
		CohortHint: strings.TrimSpace(req.CohortHint),
		KnownURL:   strings.TrimSpace(req.KnownURL),
	}
	if err := batch.ValidateItems([]domain.WorkItem{item}); err != nil {
		writeDomainError(w, r, err)
		return
	}

	strategy := domain.StrategyPrimary
	if s := strings.TrimSpace(req.Strategy); s != "" {
		parsed, ok := domain.ParseStrategy(s)
		if !ok {
			WriteError(w, r, http.StatusBadRequest, "invalid_request", "unknown strategy "+s)
			return
		}
		strategy = parsed
	}

	res, err := h.Single.Process(r.Context(), item, strategy)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"profile":   res.Profile.Summary(),
		"candidate": res.Candidate,
	})
}
