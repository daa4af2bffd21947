package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// SuccessResponse wraps a driver result verbatim.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// ErrorResponse reports a failure to the caller. Details carries the
// underlying error text and is omitted in production mode.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string, details string) {
	writeJSON(w, status, ErrorResponse{Success: false, Error: message, Details: details})
}
