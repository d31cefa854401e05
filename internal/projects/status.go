package projects

import "fmt"

// Status is a project's position in the production workflow. Status
// string spellings are a persisted contract: external callers and
// historical rows depend on these exact values, so new statuses must
// never repurpose or rename existing ones.
type Status string

// Workflow statuses, grouped by phase.
const (
	StatusDraft                       Status = "draft"
	StatusCharacterReview             Status = "character_review"
	StatusCharacterGeneration         Status = "character_generation"
	StatusCharacterGenerationComplete Status = "character_generation_complete"
	StatusCharacterGenerationFailed   Status = "character_generation_failed"
	StatusCharacterRevisionNeeded     Status = "character_revision_needed"
	StatusCharactersRegenerated       Status = "characters_regenerated"
	StatusCharactersApproved          Status = "characters_approved"
	StatusSketchesReview              Status = "sketches_review"
	StatusSketchesRevision            Status = "sketches_revision"
	StatusIllustrationApproved        Status = "illustration_approved"
	StatusCompleted                   Status = "completed"
)

// Event is a workflow trigger applied against the transition table.
type Event string

// Workflow events.
const (
	EventBeginCharacterReview     Event = "begin_character_review"
	EventDispatchCharacters       Event = "dispatch_characters"
	EventCharactersSucceeded      Event = "characters_succeeded"
	EventCharactersFailed         Event = "characters_failed"
	EventMarkRegenerated          Event = "mark_regenerated"
	EventSendCharacters           Event = "send_characters"
	EventApproveCharacters        Event = "approve_characters"
	EventRequestCharacterRevision Event = "request_character_revision"
	EventSendSketches             Event = "send_sketches"
	EventRequestSketchRevision    Event = "request_sketch_revision"
	EventResendSketches           Event = "resend_sketches"
	EventApproveIllustrations     Event = "approve_illustrations"
	EventComplete                 Event = "complete"
)

// transitions is the closed state machine: current status × event → next
// status. Any pair absent from the table is an invalid transition.
var transitions = map[Status]map[Event]Status{
	StatusDraft: {
		EventBeginCharacterReview: StatusCharacterReview,
	},
	StatusCharacterReview: {
		EventDispatchCharacters:       StatusCharacterGeneration,
		EventApproveCharacters:        StatusCharactersApproved,
		EventRequestCharacterRevision: StatusCharacterRevisionNeeded,
	},
	StatusCharacterGeneration: {
		EventCharactersSucceeded: StatusCharacterGenerationComplete,
		EventCharactersFailed:    StatusCharacterGenerationFailed,
	},
	StatusCharacterGenerationComplete: {
		EventSendCharacters:  StatusCharacterReview,
		EventMarkRegenerated: StatusCharactersRegenerated,
	},
	StatusCharacterGenerationFailed: {
		EventDispatchCharacters: StatusCharacterGeneration,
	},
	StatusCharacterRevisionNeeded: {
		EventDispatchCharacters: StatusCharacterGeneration,
	},
	StatusCharactersRegenerated: {
		EventSendCharacters:           StatusCharacterReview,
		EventApproveCharacters:        StatusCharactersApproved,
		EventRequestCharacterRevision: StatusCharacterRevisionNeeded,
	},
	StatusCharactersApproved: {
		EventSendSketches: StatusSketchesReview,
	},
	StatusSketchesReview: {
		EventRequestSketchRevision: StatusSketchesRevision,
		EventApproveIllustrations:  StatusIllustrationApproved,
	},
	StatusSketchesRevision: {
		EventResendSketches: StatusSketchesReview,
	},
	StatusIllustrationApproved: {
		EventComplete: StatusCompleted,
	},
	StatusCompleted: {},
}

// legacyAliases maps status spellings from the migration window onto
// canonical statuses. Aliases are normalized at the boundary; the core
// never branches on them.
var legacyAliases = map[string]Status{
	"trial_review":          StatusSketchesReview,
	"trial_revision":        StatusSketchesRevision,
	"illustration_review":   StatusSketchesReview,
	"illustration_revision": StatusSketchesRevision,
}

// NormalizeStatus maps a persisted status string, including legacy
// aliases, onto a canonical Status. Unknown values are returned as-is
// and fail Valid.
func NormalizeStatus(raw string) Status {
	if s, ok := legacyAliases[raw]; ok {
		return s
	}
	return Status(raw)
}

// Valid reports whether the status is one of the canonical values.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Apply returns the status reached by applying event to s, or
// ErrInvalidTransition when the pair is not in the transition table.
func (s Status) Apply(event Event) (Status, error) {
	events, ok := transitions[s]
	if !ok {
		return s, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, string(s))
	}

	next, ok := events[event]
	if !ok {
		return s, fmt.Errorf("%w: %s does not accept %s", ErrInvalidTransition, s, event)
	}

	return next, nil
}

// Can reports whether event applies to the current status.
func (s Status) Can(event Event) bool {
	_, err := s.Apply(event)
	return err == nil
}

// CharacterPhase reports whether the status belongs to the character
// definition and generation phase.
func (s Status) CharacterPhase() bool {
	switch s {
	case StatusDraft, StatusCharacterReview, StatusCharacterGeneration,
		StatusCharacterGenerationComplete, StatusCharacterGenerationFailed,
		StatusCharacterRevisionNeeded, StatusCharactersRegenerated:
		return true
	}
	return false
}

// Terminal reports whether no events apply to the status.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0 && s.Valid()
}
