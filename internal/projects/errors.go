package projects

import (
	"errors"
	"net/http"
)

// Domain errors for project operations.
var (
	ErrNotFound          = errors.New("project not found")
	ErrDuplicate         = errors.New("project already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStaleStatus       = errors.New("project status changed concurrently")
	ErrMissingTitle      = errors.New("project title required")
)

// MapHTTPStatus maps project domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrStaleStatus):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrMissingTitle):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
