package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/myrjola/fitcoach/internal/adaptive"
	"github.com/myrjola/fitcoach/internal/coaching"
	"github.com/myrjola/fitcoach/internal/errors"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.NewSentinel("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "failed writing response", errors.SlogError(err))
	}
}

// readJSON decodes the request body into dst. Unknown fields and trailing data are rejected.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: body must contain a single JSON object", errBadRequest)
	}
	return nil
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "client error", slog.String("reason", msg))
	app.writeJSON(w, r, status, errorResponse{Error: msg})
}

// handleError maps domain errors to status codes. Unrecognised errors are logged as server errors.
func (app *application) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, adaptive.ErrInvalidFeedback),
		errors.Is(err, adaptive.ErrInvalidTier),
		errors.Is(err, adaptive.ErrInvalidPreference),
		errors.Is(err, coaching.ErrInvalidWorkout):
		app.clientError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, coaching.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound, "profile not found")
	default:
		app.serverError(w, r, err)
	}
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}
