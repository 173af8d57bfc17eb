package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"appointment-booking-api/internal/booking"
	"appointment-booking-api/internal/store"
)

// apiError is the body of every non-2xx response.
type apiError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	errCodeBadRequest  = "bad_request"
	errCodeNotFound    = "not_found"
	errCodeConflict    = "conflict"
	errCodeValidation  = "validation_error"
	errCodeTooLarge    = "request_too_large"
	errCodeInternal    = "internal_error"
	errCodeUnavailable = "unavailable"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Status: status, Code: code, Message: message})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("malformed request body: %w", booking.ErrInvalid)
	}
	return nil
}

// fail maps service and store errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, errCodeTooLarge, "request body too large")
	case errors.Is(err, booking.ErrInvalid):
		writeError(w, http.StatusUnprocessableEntity, errCodeValidation, err.Error())
	case errors.Is(err, store.ErrReferenced):
		writeError(w, http.StatusConflict, errCodeConflict, "user still has appointments")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "Email already registered")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, errCodeNotFound, err.Error())
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, errCodeInternal, "internal server error")
	}
}
