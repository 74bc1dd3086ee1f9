package handler

// RESPONSE HELPERS:
// Reads answer with the value itself (an object, a list, or null). Writes
// answer with an envelope:
//
//	{"success": true, "reviewId": "..."}
//	{"success": false, "error": "Username is already taken."}
//
// The error text is the AppError message from the service layer and is safe
// to show to the user as-is.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/gamerater/internal/apperror"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// Result is the envelope every mutation responds with.
type Result struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	ReviewID string `json:"reviewId,omitempty"`
	GameID   int64  `json:"gameId,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// writeJSON sets the headers, then the status, then writes the body, in
// that order.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; all we can do is log.
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func writeOK(w http.ResponseWriter, res Result) {
	res.Success = true
	writeJSON(w, http.StatusOK, res)
}

// writeError maps a domain error to an HTTP status and a failure envelope.
//
// ERROR MAPPING:
//
//	ErrValidation      -> 400
//	ErrUnauthenticated -> 401
//	ErrForbidden       -> 403
//	ErrNotFound        -> 404
//	ErrConflict        -> 409
//	anything else      -> 500
//
// Errors that are not *AppError never leak their text to the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, Result{Error: "Something went wrong. Please try again."})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
	}
	writeJSON(w, status, Result{Error: appErr.Message})
}

// decodeJSON reads a size-capped JSON body into dst. Errors come back as
// validation failures ready for writeError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "Request body is required.")
		}
		return apperror.ValidationFailed("body", "Invalid JSON body.")
	}
	return nil
}

// gameIDParam parses the {gameID} URL parameter.
func gameIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "gameID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("gameID", fmt.Sprintf("Invalid game id %q.", raw))
	}
	return id, nil
}
