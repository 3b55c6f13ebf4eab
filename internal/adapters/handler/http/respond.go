package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var errInvalidBody = errors.New("invalid request body")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps err onto a status code and a JSON body carrying its kind.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.Kind(err)
	status := statusFor(kind)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		kind = "Internal"
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

func statusFor(kind string) int {
	switch kind {
	case "ValidationError":
		return http.StatusBadRequest
	case "Forbidden":
		return http.StatusForbidden
	case "InvalidTransition", "Conflict":
		return http.StatusConflict
	case "AggregateLocked":
		return http.StatusLocked
	case "InvalidReference":
		return http.StatusUnprocessableEntity
	case "NotFound":
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ValidationError", Message: message})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

func storedResult(ctx context.Context, summary ports.SummaryService, id uuid.UUID) (*domain.ResultSnapshot, error) {
	if summary == nil {
		return nil, nil
	}
	return summary.Result(ctx, id)
}
