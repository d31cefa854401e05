package pages

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/internal/artifact"
	"github.com/atelierworks/atelier/internal/feedback"
	"github.com/atelierworks/atelier/pkg/query"
	"github.com/atelierworks/atelier/pkg/repository"
)

const returning = `id, project_id, page_number, text, illustration_ref, original_illustration_ref, sketch_ref, feedback, created_at, updated_at`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a page repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "pages"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Page, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("ProjectID", projectID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanPage)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	return items, nil
}

func (r *repo) Pending(ctx context.Context, projectID uuid.UUID) ([]Page, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM pages
		WHERE project_id = $1
		  AND (illustration_ref = '' OR illustration_ref LIKE $2)
		ORDER BY page_number`, returning)

	items, err := repository.QueryMany(
		ctx, r.db, q,
		[]any{projectID, artifact.FailedPrefix + "%"},
		scanPage,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending pages: %w", err)
	}
	return items, nil
}

func (r *repo) HasOpenFeedback(ctx context.Context, projectID uuid.UUID) (bool, error) {
	q := `
		SELECT EXISTS (
			SELECT 1 FROM pages
			WHERE project_id = $1
			  AND COALESCE((feedback->>'resolved')::bool, true) = false
			  AND COALESCE(feedback->>'notes', '') <> ''
		)`

	var open bool
	if err := r.db.QueryRowContext(ctx, q, projectID).Scan(&open); err != nil {
		return false, fmt.Errorf("query open page feedback: %w", err)
	}
	return open, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Page, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPage)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) CreateBatch(ctx context.Context, cmd CreateBatchCommand) ([]Page, error) {
	if len(cmd.Pages) == 0 {
		return nil, ErrEmptyBatch
	}
	for _, p := range cmd.Pages {
		if p.PageNumber < 1 {
			return nil, ErrBadPageNumber
		}
	}

	q := fmt.Sprintf(`
		INSERT INTO pages(id, project_id, page_number, text, feedback)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, returning)

	items, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]Page, error) {
		created := make([]Page, 0, len(cmd.Pages))
		for _, pc := range cmd.Pages {
			insertArgs := []any{
				uuid.New(),
				cmd.ProjectID,
				pc.PageNumber,
				pc.Text,
				emptyFeedback(),
			}

			p, err := repository.QueryOne(ctx, tx, q, insertArgs, scanPage)
			if err != nil {
				return nil, err
			}
			created = append(created, p)
		}
		return created, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("pages ingested", "project", cmd.ProjectID, "count", len(items))
	return items, nil
}

func (r *repo) UpdateIllustration(ctx context.Context, id uuid.UUID, ref artifact.Ref) (*Page, error) {
	// The original illustration seeds only once, and only from a
	// successful generation.
	q := fmt.Sprintf(`
		UPDATE pages
		SET illustration_ref = $1,
		    original_illustration_ref = CASE
		        WHEN original_illustration_ref = '' AND $2 THEN $1
		        ELSE original_illustration_ref
		    END,
		    updated_at = now()
		WHERE id = $3
		RETURNING %s`, returning)

	_, ready := ref.URL()

	p, err := repository.QueryOne(ctx, r.db, q, []any{ref.String(), ready, id}, scanPage)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) UpdateSketch(ctx context.Context, id uuid.UUID, ref artifact.Ref) (*Page, error) {
	q := fmt.Sprintf(`
		UPDATE pages
		SET sketch_ref = $1, updated_at = now()
		WHERE id = $2
		RETURNING %s`, returning)

	p, err := repository.QueryOne(ctx, r.db, q, []any{ref.String(), id}, scanPage)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) UpdateFeedback(ctx context.Context, id uuid.UUID, state feedback.State) (*Page, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode feedback: %w", err)
	}

	q := fmt.Sprintf(`
		UPDATE pages
		SET feedback = $1, updated_at = now()
		WHERE id = $2
		RETURNING %s`, returning)

	p, err := repository.QueryOne(ctx, r.db, q, []any{data, id}, scanPage)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) ResetIllustration(ctx context.Context, id uuid.UUID) (*Page, error) {
	current, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := current.OriginalIllustration.URL(); !ok {
		return nil, ErrNoOriginal
	}

	q := fmt.Sprintf(`
		UPDATE pages
		SET illustration_ref = original_illustration_ref, updated_at = now()
		WHERE id = $1
		RETURNING %s`, returning)

	p, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanPage)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("page illustration reset", "id", id)
	return &p, nil
}

func emptyFeedback() []byte {
	data, _ := json.Marshal(feedback.State{Resolved: true})
	return data
}
