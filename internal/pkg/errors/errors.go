package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

// WriteDomainError maps a service error onto the HTTP error envelope.
// Unknown errors are reported as 500 without leaking their text.
func WriteDomainError(w http.ResponseWriter, err error) {
	if verrs, ok := IsValidationErrors(err); ok {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidInput, verrs.Error(), verrs.Fields())
		return
	}
	if verr, ok := IsValidationError(err); ok {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidInput, verr.Error(), map[string]string{verr.Field: verr.Message})
		return
	}
	if cerr, ok := IsConflictError(err); ok {
		WriteError(w, http.StatusConflict, ErrCodeConflict, cerr.Error(), nil)
		return
	}

	switch {
	case stderrors.Is(err, ErrNotFound):
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
	case stderrors.Is(err, ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error(), nil)
	case stderrors.Is(err, ErrForbidden):
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", nil)
	}
}
