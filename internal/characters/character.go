// Package characters implements the character domain for Atelier.
// Characters are defined per project; exactly one per project is the
// main character, seeded from customer-provided reference art and never
// generated. Non-main characters receive generated portraits and
// derived pencil sketches.
package characters

import (
	"time"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/internal/artifact"
	"github.com/atelierworks/atelier/internal/feedback"
)

// Character represents a single story character and its artwork state.
type Character struct {
	ID          uuid.UUID      `json:"id"`
	ProjectID   uuid.UUID      `json:"project_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	IsMain      bool           `json:"is_main"`
	Image       artifact.Ref   `json:"image_url"`
	Sketch      artifact.Ref   `json:"sketch_url"`
	Feedback    feedback.State `json:"feedback"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PendingGeneration reports whether this character is in generation
// scope: non-main with an image reference that is empty or a failure
// sentinel.
func (c *Character) PendingGeneration() bool {
	return !c.IsMain && c.Image.NeedsGeneration()
}

// CreateCommand carries the data needed to register a new character.
// MainImageURL seeds the image reference for main characters and is
// ignored otherwise.
type CreateCommand struct {
	ProjectID    uuid.UUID `json:"project_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	IsMain       bool      `json:"is_main"`
	MainImageURL string    `json:"main_image_url,omitempty"`
}
