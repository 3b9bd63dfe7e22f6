package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/logging"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/service"
)

// envelope is the JSON body of every API response: success, message and
// any extra fields.
type envelope map[string]any

func respondJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondWithSuccess(w http.ResponseWriter, status int, message string, extra envelope) {
	body := envelope{"success": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	respondJSON(w, status, body)
}

func respondWithError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, userMsg string, err error) {
	if err != nil {
		logging.LogError(r.Context(), logger, userMsg, err, "method", r.Method, "path", r.URL.Path)
	}
	respondJSON(w, status, envelope{"success": false, "message": userMsg})
}

// statusForCode maps service error codes to HTTP statuses
func statusForCode(code string) int {
	switch code {
	case service.CodeValidation, service.CodeConflict, service.CodeAuth,
		service.CodeInvalidState, service.CodeExpired:
		return http.StatusBadRequest
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeUnauthenticated:
		return http.StatusUnauthorized
	case service.CodeGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError converts a service error into one JSON response.
// Server-side failures are logged; client errors are not.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := service.CodeOf(err)
	status := statusForCode(code)
	body := envelope{
		"success": false,
		"message": service.MessageOf(err, ErrInternalServerError),
	}

	if status >= http.StatusInternalServerError {
		logging.LogError(r.Context(), logger, "request failed", err, "method", r.Method, "path", r.URL.Path)
	}
	if code == service.CodeGateway {
		body["error"] = service.DetailOf(err)
	}

	respondJSON(w, status, body)
}

// decodeJSON reads a size-limited JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
