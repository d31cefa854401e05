package characters

import (
	"errors"
	"net/http"
)

// Domain errors for character operations.
var (
	ErrNotFound      = errors.New("character not found")
	ErrDuplicate     = errors.New("character already exists")
	ErrMissingName   = errors.New("character name required")
	ErrMainImmutable = errors.New("main character cannot be deleted")
	ErrMainExists    = errors.New("project already has a main character")
)

// MapHTTPStatus maps character domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrMainExists):
		return http.StatusConflict
	case errors.Is(err, ErrMissingName):
		return http.StatusBadRequest
	case errors.Is(err, ErrMainImmutable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
