package pipeline

import (
	"errors"
	"net/http"

	"github.com/atelierworks/atelier/internal/characters"
	"github.com/atelierworks/atelier/internal/feedback"
	"github.com/atelierworks/atelier/internal/pages"
	"github.com/atelierworks/atelier/internal/projects"
)

// Domain errors for workflow operations.
var (
	ErrUnknownItemKind = errors.New("unknown item kind")
	ErrWrongPhase      = errors.New("operation does not apply to the project's current phase")
)

// MapHTTPStatus maps workflow errors, including wrapped domain errors
// from the project, character, page, and feedback packages, to HTTP
// status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownItemKind):
		return http.StatusBadRequest
	case errors.Is(err, ErrWrongPhase):
		return http.StatusUnprocessableEntity
	}

	for _, mapper := range []func(error) int{
		projects.MapHTTPStatus,
		characters.MapHTTPStatus,
		pages.MapHTTPStatus,
		feedback.MapHTTPStatus,
	} {
		if status := mapper(err); status != http.StatusInternalServerError {
			return status
		}
	}

	return http.StatusInternalServerError
}
