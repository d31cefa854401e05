package projects

import (
	"context"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/pkg/pagination"
)

// System defines the public contract for project domain operations.
// Status mutations are expressed as guarded compare-and-set updates so
// concurrent triggers on the same project resolve to exactly one
// winning transition.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Project], error)

	Find(ctx context.Context, id uuid.UUID) (*Project, error)
	FindByToken(ctx context.Context, token string) (*Project, error)
	Create(ctx context.Context, cmd CreateCommand) (*Project, error)

	// UpdateStatus transitions a project from one status to another.
	// Returns ErrStaleStatus when the stored status no longer matches
	// from, which makes re-applied transitions idempotent no-ops at the
	// caller's discretion.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Project, error)

	// IncrementSendCount bumps the given phase's send counter,
	// advancing the revision round derived from it.
	IncrementSendCount(ctx context.Context, id uuid.UUID, phase Phase) (*Project, error)

	// RegenerateToken replaces the customer review capability token.
	RegenerateToken(ctx context.Context, id uuid.UUID) (*Project, error)
}
