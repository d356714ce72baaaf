package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"droply/internal/auth"
	"droply/internal/models"
	"droply/internal/storage"
)

func statusFor(err error) int {
	if errors.Is(err, storage.ErrUnsupported) {
		return http.StatusNotImplemented
	}
	switch models.Code(err) {
	case "unauthenticated":
		return http.StatusUnauthorized
	case "not_found":
		return http.StatusNotFound
	case "validation":
		return http.StatusBadRequest
	case "conflict":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status code. Unexpected errors are logged and
// reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()

	switch {
	case status == http.StatusInternalServerError && models.Code(err) == "adapter":
		s.logger.ErrorContext(r.Context(), "object store failure", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "Object store failure"
	case status == http.StatusInternalServerError:
		s.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "Internal server error"
	}

	http.Error(w, message, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.Invalid("invalid request body")
	}
	return nil
}

// checkPayloadUser rejects a request body that names a user other than the caller.
func checkPayloadUser(claims *auth.AppClaims, userID *int64) error {
	if userID != nil && *userID != claims.UserID {
		return models.ErrUnauthenticated
	}
	return nil
}

func checkFormUser(claims *auth.AppClaims, raw string) error {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return models.Invalid("invalid user_id")
	}
	return checkPayloadUser(claims, &id)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
