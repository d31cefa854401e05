package pages

import (
	"context"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/internal/artifact"
	"github.com/atelierworks/atelier/internal/feedback"
)

// System defines the public contract for page domain operations.
type System interface {
	Handler() *Handler

	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Page, error)

	// Pending returns the pages currently in generation scope for the
	// project. Dispatch and retry both derive their work set from this
	// query, never from a caller-supplied batch.
	Pending(ctx context.Context, projectID uuid.UUID) ([]Page, error)

	// HasOpenFeedback reports whether any of the project's pages
	// carries an unresolved revision request.
	HasOpenFeedback(ctx context.Context, projectID uuid.UUID) (bool, error)

	Find(ctx context.Context, id uuid.UUID) (*Page, error)
	CreateBatch(ctx context.Context, cmd CreateBatchCommand) ([]Page, error)

	// UpdateIllustration persists a generation outcome. The first Ready
	// reference also seeds the write-once original illustration.
	UpdateIllustration(ctx context.Context, id uuid.UUID, ref artifact.Ref) (*Page, error)

	UpdateSketch(ctx context.Context, id uuid.UUID, ref artifact.Ref) (*Page, error)
	UpdateFeedback(ctx context.Context, id uuid.UUID, state feedback.State) (*Page, error)

	// ResetIllustration restores the current illustration to the
	// write-once original. Returns ErrNoOriginal when no successful
	// generation has ever been recorded.
	ResetIllustration(ctx context.Context, id uuid.UUID) (*Page, error)
}
