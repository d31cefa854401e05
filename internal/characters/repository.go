package characters

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

const returning = `id, project_id, name, description, is_main, image_ref, sketch_ref, feedback, created_at, updated_at`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a character repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "characters"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Character, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("ProjectID", projectID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanCharacter)
	if err != nil {
		return nil, fmt.Errorf("query characters: %w", err)
	}
	return items, nil
}

func (r *repo) Pending(ctx context.Context, projectID uuid.UUID) ([]Character, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM characters
		WHERE project_id = $1
		  AND is_main = false
		  AND (image_ref = '' OR image_ref LIKE $2)
		ORDER BY created_at`, returning)

	items, err := repository.QueryMany(
		ctx, r.db, q,
		[]any{projectID, artifact.FailedPrefix + "%"},
		scanCharacter,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending characters: %w", err)
	}
	return items, nil
}

func (r *repo) HasOpenFeedback(ctx context.Context, projectID uuid.UUID) (bool, error) {
	q := `
		SELECT EXISTS (
			SELECT 1 FROM characters
			WHERE project_id = $1
			  AND COALESCE((feedback->>'resolved')::bool, true) = false
			  AND COALESCE(feedback->>'notes', '') <> ''
		)`

	var open bool
	if err := r.db.QueryRowContext(ctx, q, projectID).Scan(&open); err != nil {
		return false, fmt.Errorf("query open character feedback: %w", err)
	}
	return open, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Character, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCharacter)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Character, error) {
	if cmd.Name == "" {
		return nil, ErrMissingName
	}

	image := artifact.None()
	if cmd.IsMain && cmd.MainImageURL != "" {
		image = artifact.Ready(cmd.MainImageURL)
	}

	q := fmt.Sprintf(`
		INSERT INTO characters(id, project_id, name, description, is_main, image_ref, feedback)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, returning)

	insertArgs := []any{
		uuid.New(),
		cmd.ProjectID,
		cmd.Name,
		cmd.Description,
		cmd.IsMain,
		image.String(),
		emptyFeedback(),
	}

	duplicateErr := ErrDuplicate
	if cmd.IsMain {
		duplicateErr = ErrMainExists
	}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Character, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanCharacter)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, duplicateErr)
	}

	r.logger.Info("character created", "id", c.ID, "project", c.ProjectID, "main", c.IsMain)
	return &c, nil
}

func (r *repo) UpdateImage(ctx context.Context, id uuid.UUID, ref artifact.Ref) (*Character, error) {
	return r.updateRef(ctx, id, "image_ref", ref)
}

func (r *repo) UpdateSketch(ctx context.Context, id uuid.UUID, ref artifact.Ref) (*Character, error) {
	return r.updateRef(ctx, id, "sketch_ref", ref)
}

func (r *repo) UpdateFeedback(ctx context.Context, id uuid.UUID, state feedback.State) (*Character, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode feedback: %w", err)
	}

	q := fmt.Sprintf(`
		UPDATE characters
		SET feedback = $1, updated_at = now()
		WHERE id = $2
		RETURNING %s`, returning)

	c, err := repository.QueryOne(ctx, r.db, q, []any{data, id}, scanCharacter)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := r.Find(ctx, id)
	if err != nil {
		return err
	}
	if c.IsMain {
		return ErrMainImmutable
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM characters WHERE id = $1",
			id,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("character deleted", "id", id)
	return nil
}

func (r *repo) updateRef(ctx context.Context, id uuid.UUID, column string, ref artifact.Ref) (*Character, error) {
	q := fmt.Sprintf(`
		UPDATE characters
		SET %s = $1, updated_at = now()
		WHERE id = $2
		RETURNING %s`, column, returning)

	c, err := repository.QueryOne(ctx, r.db, q, []any{ref.String(), id}, scanCharacter)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func emptyFeedback() []byte {
	data, _ := json.Marshal(feedback.State{Resolved: true})
	return data
}
