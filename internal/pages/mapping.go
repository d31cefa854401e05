package pages

import (
	"encoding/json"

	"github.com/atelierworks/atelier/internal/artifact"
	"github.com/atelierworks/atelier/pkg/query"
	"github.com/atelierworks/atelier/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "pages", "pg").
	Project("id", "ID").
	Project("project_id", "ProjectID").
	Project("page_number", "PageNumber").
	Project("text", "Text").
	Project("illustration_ref", "Illustration").
	Project("original_illustration_ref", "OriginalIllustration").
	Project("sketch_ref", "Sketch").
	Project("feedback", "Feedback").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field: "PageNumber",
}

func scanPage(s repository.Scanner) (Page, error) {
	var (
		p            Page
		illustration string
		original     string
		sketch       string
		feedbackData []byte
	)

	err := s.Scan(
		&p.ID,
		&p.ProjectID,
		&p.PageNumber,
		&p.Text,
		&illustration,
		&original,
		&sketch,
		&feedbackData,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}

	p.Illustration = artifact.Parse(illustration)
	p.OriginalIllustration = artifact.Parse(original)
	p.Sketch = artifact.Parse(sketch)

	if len(feedbackData) > 0 {
		if err := json.Unmarshal(feedbackData, &p.Feedback); err != nil {
			return p, err
		}
	}

	return p, nil
}
