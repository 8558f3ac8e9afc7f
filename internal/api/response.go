package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/inspecasa/internal/inspection"
)

// maxJSONBody caps request bodies; a category tree submission is small.
const maxJSONBody = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(target)
}

// serviceError maps an inspection error to a status code and writes it.
func serviceError(w http.ResponseWriter, op string, err error) {
	var status int
	switch {
	case errors.Is(err, inspection.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, inspection.ErrIncompleteInspection),
		errors.Is(err, inspection.ErrAlreadyCompleted),
		errors.Is(err, inspection.ErrAlreadySigned):
		status = http.StatusConflict
	case errors.Is(err, inspection.ErrMissingCondition),
		errors.Is(err, inspection.ErrInvalidCondition),
		errors.Is(err, inspection.ErrInvalidImage):
		status = http.StatusBadRequest
	case errors.Is(err, inspection.ErrUploadFailed):
		slog.Error(op+" failed", "error", err)
		jsonError(w, http.StatusBadGateway, "image upload failed, nothing was saved")
		return
	default:
		slog.Error(op+" failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save, please try again")
		return
	}
	jsonError(w, status, err.Error())
}

// parseDateRange reads the "from" and "to" query parameters as
// YYYY-MM-DD dates. "to" is inclusive.
func parseDateRange(r *http.Request) (from, to *time.Time, err error) {
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return nil, nil, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		from = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return nil, nil, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	return from, to, nil
}
