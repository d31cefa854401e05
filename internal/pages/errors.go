package pages

import (
	"errors"
	"net/http"
)

// Domain errors for page operations.
var (
	ErrNotFound      = errors.New("page not found")
	ErrDuplicate     = errors.New("page number already exists for project")
	ErrEmptyBatch    = errors.New("page batch must not be empty")
	ErrNoOriginal    = errors.New("page has no original illustration to reset to")
	ErrBadPageNumber = errors.New("page number must be positive")
)

// MapHTTPStatus maps page domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrBadPageNumber):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoOriginal):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
