package characters

import (
	"context"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/internal/artifact"
	"github.com/atelierworks/atelier/internal/feedback"
)

// System defines the public contract for character domain operations.
// Feedback mutation is a whole-state write: the orchestrator applies
// ledger rules to a loaded feedback.State and persists the result.
type System interface {
	Handler() *Handler

	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Character, error)

	// Pending returns the characters currently in generation scope for
	// the project. Dispatch and retry both derive their work set from
	// this query, never from a caller-supplied batch.
	Pending(ctx context.Context, projectID uuid.UUID) ([]Character, error)

	// HasOpenFeedback reports whether any of the project's characters
	// carries an unresolved revision request.
	HasOpenFeedback(ctx context.Context, projectID uuid.UUID) (bool, error)

	Find(ctx context.Context, id uuid.UUID) (*Character, error)
	Create(ctx context.Context, cmd CreateCommand) (*Character, error)
	UpdateImage(ctx context.Context, id uuid.UUID, ref artifact.Ref) (*Character, error)
	UpdateSketch(ctx context.Context, id uuid.UUID, ref artifact.Ref) (*Character, error)
	UpdateFeedback(ctx context.Context, id uuid.UUID, state feedback.State) (*Character, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
