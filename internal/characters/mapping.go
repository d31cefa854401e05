package characters

import (
	"encoding/json"

	"github.com/atelierworks/atelier/internal/artifact"
	"github.com/atelierworks/atelier/pkg/query"
	"github.com/atelierworks/atelier/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "characters", "c").
	Project("id", "ID").
	Project("project_id", "ProjectID").
	Project("name", "Name").
	Project("description", "Description").
	Project("is_main", "IsMain").
	Project("image_ref", "Image").
	Project("sketch_ref", "Sketch").
	Project("feedback", "Feedback").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field: "CreatedAt",
}

func scanCharacter(s repository.Scanner) (Character, error) {
	var (
		c            Character
		image        string
		sketch       string
		feedbackData []byte
	)

	err := s.Scan(
		&c.ID,
		&c.ProjectID,
		&c.Name,
		&c.Description,
		&c.IsMain,
		&image,
		&sketch,
		&feedbackData,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}

	c.Image = artifact.Parse(image)
	c.Sketch = artifact.Parse(sketch)

	if len(feedbackData) > 0 {
		if err := json.Unmarshal(feedbackData, &c.Feedback); err != nil {
			return c, err
		}
	}

	return c, nil
}
