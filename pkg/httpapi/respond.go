package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/unowned-ai/daybook/pkg/db"
	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/logging"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, journal.ErrEntryNotFound),
		errors.Is(err, journal.ErrTagNotFound),
		errors.Is(err, journal.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, journal.ErrDuplicateTagName),
		errors.Is(err, journal.ErrDuplicateCategoryName):
		return http.StatusConflict
	case errors.Is(err, journal.ErrInvalidMood),
		errors.Is(err, journal.ErrInvalidTagName),
		errors.Is(err, journal.ErrInvalidCategoryName):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the mapped status. Server errors are logged and
// their details withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, status, "server error")
		return
	}
	writeMessage(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return false
	}
	return true
}
