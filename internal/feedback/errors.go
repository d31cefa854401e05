package feedback

import (
	"errors"
	"net/http"
)

// Domain errors for feedback ledger operations.
var (
	ErrEmptyNote    = errors.New("feedback note must not be empty")
	ErrOpenFeedback = errors.New("item already has open feedback")
	ErrNotOpen      = errors.New("item has no open feedback")
	ErrNoAdminReply = errors.New("no admin reply to follow up on")
)

// MapHTTPStatus maps feedback ledger errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrEmptyNote):
		return http.StatusBadRequest
	case errors.Is(err, ErrOpenFeedback),
		errors.Is(err, ErrNotOpen),
		errors.Is(err, ErrNoAdminReply):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
