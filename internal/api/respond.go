package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"classhub/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// writeNotFound is the single absence response. Out-of-scope resources and
// genuinely missing ones produce byte-identical bodies so existence never
// leaks across tenants or owners.
func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, domain.ErrorResponse{
		Error:   "not_found",
		Message: "resource not found",
	})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, domain.ErrorResponse{
		Error:   "bad_request",
		Message: msg,
	})
}

func writeServerError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
		Error:   "internal_error",
		Message: "an unexpected error occurred",
	})
}
