package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/internal/projects"
)

// ItemKind selects which artifact collection a feedback operation targets.
type ItemKind string

// Feedback item kinds.
const (
	ItemCharacter ItemKind = "character"
	ItemPage      ItemKind = "page"
)

// ResolveMode selects how an open feedback item is closed.
type ResolveMode string

// Resolve modes. ModeRegenerate archives the note and returns the item
// to generation scope; ModeManual closes it in place.
const (
	ModeManual     ResolveMode = "manual"
	ModeRegenerate ResolveMode = "regenerate"
)

// Scope narrows a dispatch to one explicit item. The zero value covers
// every pending item of the project.
type Scope struct {
	ItemID *uuid.UUID `json:"item_id,omitempty"`
}

// DispatchReceipt is the synchronous answer to a generation request.
// Accepted means a batch was started; completion is observed through
// subsequent project and item reads, never through this receipt.
type DispatchReceipt struct {
	Accepted      bool            `json:"accepted"`
	Reason        string          `json:"reason,omitempty"`
	PendingItems  int             `json:"pending_items"`
	ProjectStatus projects.Status `json:"project_status"`
}

// System defines the public contract of the workflow orchestrator.
type System interface {
	Handler() *Handler

	// DispatchCharacters starts concurrent portrait generation for the
	// project's pending characters. Retry after partial failure is the
	// same call: the pending set is recomputed from durable state.
	DispatchCharacters(ctx context.Context, projectID uuid.UUID, scope Scope) (*DispatchReceipt, error)

	// DispatchPages starts concurrent illustration generation for the
	// project's pending pages, with the same retry semantics.
	DispatchPages(ctx context.Context, projectID uuid.UUID, scope Scope) (*DispatchReceipt, error)

	// BeginReview moves a draft project into character review.
	BeginReview(ctx context.Context, projectID uuid.UUID) (*projects.Project, error)

	// Send marks the current phase's artifacts as sent to the customer,
	// advancing the revision round.
	Send(ctx context.Context, projectID uuid.UUID, phase projects.Phase) (*projects.Project, error)

	// Approve applies the customer's (or admin override's) approval of
	// the current phase. With open feedback present the project moves
	// to the phase's revision status instead. Re-approving an already
	// approved project short-circuits to success.
	Approve(ctx context.Context, projectID uuid.UUID) (*projects.Project, error)

	// Complete closes an illustration-approved project.
	Complete(ctx context.Context, projectID uuid.UUID) (*projects.Project, error)

	SubmitFeedback(ctx context.Context, kind ItemKind, itemID uuid.UUID, note string) error
	Reply(ctx context.Context, kind ItemKind, itemID uuid.UUID, text string) error
	FollowUp(ctx context.Context, kind ItemKind, itemID uuid.UUID, text string) error
	Resolve(ctx context.Context, kind ItemKind, itemID uuid.UUID, mode ResolveMode) error
	ReplaceRequest(ctx context.Context, kind ItemKind, itemID uuid.UUID, note string) error
}
