package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mongorelay/internal/proxy"
)

// handleProxy runs one proxied operation: decode, validate, resolve the
// database, execute, respond. Connection lifetime is owned by the service.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	var req proxy.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be valid JSON", "")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, proxy.BadRequestMessage(err), "")
		return
	}

	database, err := req.ResolveDatabase()
	if err != nil {
		writeError(w, http.StatusBadRequest, proxy.BadRequestMessage(err), "")
		return
	}

	data, err := s.service.Execute(r.Context(), &req, database)
	if err != nil {
		if errors.Is(err, proxy.ErrBadRequest) {
			writeError(w, http.StatusBadRequest, proxy.BadRequestMessage(err), "")
			return
		}

		slog.Error("Proxied operation failed",
			"operation", req.Operation,
			"collection", req.CollectionName,
			"database", database,
			"error", err,
			"request_id", getRequestID(r.Context()),
		)

		details := ""
		if !s.production {
			details = err.Error()
		}
		writeError(w, http.StatusInternalServerError, "Database operation failed", details)
		return
	}

	writeSuccess(w, data)
}
