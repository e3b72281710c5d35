package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound     = stderrors.New("resource not found")
	ErrUnauthorized = stderrors.New("unauthorized")
	ErrForbidden    = stderrors.New("forbidden")
)

// NotFound wraps ErrNotFound with the resource name, e.g. "payment not found".
func NotFound(resource string) error {
	return fmt.Errorf("%s not found: %w", resource, ErrNotFound)
}

// ValidationError is a single field-level input failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if stderrors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}

// ValidationErrors collects several field failures so a form can show all of them at once.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Error())
	}
	return strings.Join(parts, "; ")
}

func (e ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(e))
	for _, v := range e {
		if _, exists := fields[v.Field]; !exists {
			fields[v.Field] = v.Message
		}
	}
	return fields
}

// Add appends a failure for field.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, NewValidationError(field, message))
}

// AddErr appends err when it is a *ValidationError; any other non-nil error is filed under field.
func (e *ValidationErrors) AddErr(field string, err error) {
	if err == nil {
		return
	}
	if verr, ok := IsValidationError(err); ok {
		*e = append(*e, NewValidationError(field, verr.Message))
		return
	}
	e.Add(field, err.Error())
}

// Err returns nil when nothing was collected.
func (e ValidationErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	sort.SliceStable(e, func(i, j int) bool { return e[i].Field < e[j].Field })
	return e
}

func IsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if stderrors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

// ConflictError represents a state clash, e.g. deleting a unit that still has an active tenant.
type ConflictError struct {
	Resource string `json:"resource"`
	Message  string `json:"message"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}

func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{Resource: resource, Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var conflictErr *ConflictError
	if stderrors.As(err, &conflictErr) {
		return conflictErr, true
	}
	return nil, false
}
