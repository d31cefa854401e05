package projects

import (
	"net/url"

	"github.com/atelierworks/atelier/pkg/query"
	"github.com/atelierworks/atelier/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "projects", "p").
	Project("id", "ID").
	Project("title", "Title").
	Project("review_token", "ReviewToken").
	Project("status", "Status").
	Project("character_send_count", "CharacterSendCount").
	Project("illustration_send_count", "IllustrationSendCount").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for project queries.
// Nil fields are ignored. Status uses exact matching after legacy-alias
// normalization; Title uses case-insensitive contains matching.
type Filters struct {
	Status *string `json:"status,omitempty"`
	Title  *string `json:"title,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	var status *string
	if f.Status != nil {
		canonical := string(NormalizeStatus(*f.Status))
		status = &canonical
	}

	return b.
		WhereEquals("Status", status).
		WhereContains("Title", f.Title)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if t := values.Get("title"); t != "" {
		f.Title = &t
	}

	return f
}

func scanProject(s repository.Scanner) (Project, error) {
	var (
		p      Project
		status string
	)

	err := s.Scan(
		&p.ID,
		&p.Title,
		&p.ReviewToken,
		&status,
		&p.CharacterSendCount,
		&p.IllustrationSendCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}

	p.Status = NormalizeStatus(status)
	return p, nil
}
