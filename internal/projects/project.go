// Package projects implements the project domain for Atelier. It
// provides the workflow status state machine, project records, and the
// send-count bookkeeping that revision rounds derive from.
package projects

import (
	"time"

	"github.com/google/uuid"
)

// Phase selects which "sent to customer" counter an operation targets.
type Phase string

// Send phases.
const (
	PhaseCharacters    Phase = "characters"
	PhaseIllustrations Phase = "illustrations"
)

// Project is the root record of a production pipeline. ReviewToken is a
// customer-facing capability token granting review access without
// authentication. Send counts only ever increase; the current revision
// round of each phase derives from them.
type Project struct {
	ID                    uuid.UUID `json:"id"`
	Title                 string    `json:"title"`
	ReviewToken           string    `json:"review_token"`
	Status                Status    `json:"status"`
	CharacterSendCount    int       `json:"character_send_count"`
	IllustrationSendCount int       `json:"illustration_send_count"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Round returns the current revision round for the given phase. Feedback
// archived during round N belongs to the Nth send cycle.
func (p *Project) Round(phase Phase) int {
	if phase == PhaseIllustrations {
		return p.IllustrationSendCount
	}
	return p.CharacterSendCount
}

// CreateCommand carries the data needed to register a new project.
type CreateCommand struct {
	Title string `json:"title"`
}
