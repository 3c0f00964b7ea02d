package httpapi

import (
	"net/http"

	"alumni-engine/internal/secrets"
)

type SecretsHandler struct {
	// Set defaults to secrets.Set.
	Set func(account, value string) error
}

type setSecretReq struct {
	Value string `json:"value"`
}

// Store returns a handler that saves the posted value under account in the OS keychain.
func (h SecretsHandler) Store(account string) http.HandlerFunc {
	set := h.Set
	if set == nil {
		set = secrets.Set
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req setSecretReq
		if err := decodeJSON(w, r, &req); err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
			return
		}
		if err := set(account, req.Value); err != nil {
			WriteError(w, r, http.StatusBadRequest, "secret_not_stored", "failed to store secret: "+err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
