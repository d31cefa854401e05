package projects

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/pkg/pagination"
	"github.com/atelierworks/atelier/pkg/query"
	"github.com/atelierworks/atelier/pkg/repository"
)

const returning = `id, title, review_token, status, character_send_count, illustration_send_count, created_at, updated_at`

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a project repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "projects"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Project], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanProject)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Project, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanProject)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) FindByToken(ctx context.Context, token string) (*Project, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("ReviewToken", token).
		BuildSingleOrNull()

	p, err := repository.QueryOne(ctx, r.db, q, args, scanProject)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Project, error) {
	if cmd.Title == "" {
		return nil, ErrMissingTitle
	}

	token, err := newReviewToken()
	if err != nil {
		return nil, fmt.Errorf("generate review token: %w", err)
	}

	q := fmt.Sprintf(`
		INSERT INTO projects(id, title, review_token, status)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`, returning)

	insertArgs := []any{uuid.New(), cmd.Title, token, string(StatusDraft)}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Project, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanProject)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("project created", "id", p.ID, "title", p.Title)
	return &p, nil
}

func (r *repo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Project, error) {
	q := fmt.Sprintf(`
		UPDATE projects
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
		RETURNING %s`, returning)

	p, err := repository.QueryOne(ctx, r.db, q, []any{string(to), id, string(from)}, scanProject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.staleOrMissing(ctx, id)
		}
		return nil, fmt.Errorf("update project status: %w", err)
	}

	r.logger.Info("project status updated", "id", id, "from", from, "to", to)
	return &p, nil
}

func (r *repo) IncrementSendCount(ctx context.Context, id uuid.UUID, phase Phase) (*Project, error) {
	column := "character_send_count"
	if phase == PhaseIllustrations {
		column = "illustration_send_count"
	}

	q := fmt.Sprintf(`
		UPDATE projects
		SET %s = %s + 1, updated_at = now()
		WHERE id = $1
		RETURNING %s`, column, column, returning)

	p, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanProject)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("send count incremented", "id", id, "phase", phase)
	return &p, nil
}

func (r *repo) RegenerateToken(ctx context.Context, id uuid.UUID) (*Project, error) {
	token, err := newReviewToken()
	if err != nil {
		return nil, fmt.Errorf("generate review token: %w", err)
	}

	q := fmt.Sprintf(`
		UPDATE projects
		SET review_token = $1, updated_at = now()
		WHERE id = $2
		RETURNING %s`, returning)

	p, err := repository.QueryOne(ctx, r.db, q, []any{token, id}, scanProject)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("review token regenerated", "id", id)
	return &p, nil
}

// staleOrMissing distinguishes a failed guarded status update between a
// missing project and a concurrent status change.
func (r *repo) staleOrMissing(ctx context.Context, id uuid.UUID) (*Project, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrStaleStatus
}

func newReviewToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
