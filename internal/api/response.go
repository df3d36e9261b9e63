package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// APIVersion is the Salesforce REST API version the sandbox emulates.
const APIVersion = "v59.0"

// BasePath is the URL prefix shared by all data API routes.
const BasePath = "/services/data/" + APIVersion

// WriteJSON marshals v as JSON and writes it to w with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}
