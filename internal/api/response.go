package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/carid/carid/internal/apperr"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps a coded error onto an HTTP status. The code travels in the
// body so clients can branch on it without parsing messages.
func writeError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)

	var status int
	switch code {
	case apperr.CodeUnauthenticated:
		status = http.StatusUnauthorized
	case apperr.CodeUnauthorized:
		status = http.StatusForbidden
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeInvalidTransition, apperr.CodeTransferFinalized, apperr.CodeDuplicateActiveTransfer:
		status = http.StatusConflict
	case apperr.CodeProfileIncomplete:
		status = http.StatusUnprocessableEntity
	case apperr.CodeValidation:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		jsonResponse(w, status, map[string]string{"error": "internal error", "code": string(apperr.CodeStorage)})
		return
	}
	jsonResponse(w, status, map[string]string{"error": apperr.MessageOf(err), "code": string(code)})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
