// Package pages implements the page domain for Atelier. Pages are
// created as a batch when a manuscript is ingested and carry the
// per-page sketch and illustration artwork through review and revision.
package pages

import (
	"time"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/internal/artifact"
	"github.com/atelierworks/atelier/internal/feedback"
)

// Page represents a single manuscript page and its artwork state.
// OriginalIllustration records the first successful generation and is
// write-once; it anchors style for regenerations and backs the reset
// operation.
type Page struct {
	ID                   uuid.UUID      `json:"id"`
	ProjectID            uuid.UUID      `json:"project_id"`
	PageNumber           int            `json:"page_number"`
	Text                 string         `json:"text"`
	Illustration         artifact.Ref   `json:"illustration_url"`
	OriginalIllustration artifact.Ref   `json:"original_illustration_url"`
	Sketch               artifact.Ref   `json:"sketch_url"`
	Feedback             feedback.State `json:"feedback"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// PendingGeneration reports whether this page is in generation scope:
// its illustration reference is empty or a failure sentinel.
func (p *Page) PendingGeneration() bool {
	return p.Illustration.NeedsGeneration()
}

// PageCommand describes one page within a batch ingest.
type PageCommand struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// CreateBatchCommand carries the pages produced by manuscript ingestion.
type CreateBatchCommand struct {
	ProjectID uuid.UUID     `json:"project_id"`
	Pages     []PageCommand `json:"pages"`
}
