package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/internal/artifact"
	"github.com/atelierworks/atelier/internal/generation"
	"github.com/atelierworks/atelier/internal/notify"
	"github.com/atelierworks/atelier/internal/pages"
	"github.com/atelierworks/atelier/internal/projects"
)

// Page generation runs in statuses where the illustration phase is
// active. Unlike the character phase there is no dedicated in-flight
// status: dispatch leaves the project status untouched and only the
// post-batch aggregation may advance it.
var pageDispatchStatuses = map[projects.Status]bool{
	projects.StatusCharactersApproved: true,
	projects.StatusSketchesReview:     true,
	projects.StatusSketchesRevision:   true,
}

func (o *orchestrator) DispatchPages(ctx context.Context, projectID uuid.UUID, scope Scope) (*DispatchReceipt, error) {
	p, err := o.rt.Projects.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !pageDispatchStatuses[p.Status] {
		return nil, fmt.Errorf("%w: page generation in status %q", ErrWrongPhase, p.Status)
	}

	pending, err := o.rt.Pages.Pending(ctx, projectID)
	if err != nil {
		return nil, err
	}

	batch, reason := narrowPages(pending, scope)
	if len(batch) == 0 {
		return &DispatchReceipt{
			Reason:        reason,
			ProjectStatus: p.Status,
		}, nil
	}

	origin := p.Status
	round := p.Round(projects.PhaseIllustrations)
	batchCtx := detach(ctx)

	o.rt.Launch(func() {
		o.runPageBatch(batchCtx, p, origin, batch, round)
	})

	return &DispatchReceipt{
		Accepted:      true,
		PendingItems:  len(batch),
		ProjectStatus: p.Status,
	}, nil
}

func narrowPages(pending []pages.Page, scope Scope) ([]pages.Page, string) {
	if len(pending) == 0 {
		return nil, "no pages pending generation"
	}
	if scope.ItemID == nil {
		return pending, ""
	}

	for _, pg := range pending {
		if pg.ID == *scope.ItemID {
			return []pages.Page{pg}, ""
		}
	}
	return nil, "page is not pending generation"
}

func (o *orchestrator) runPageBatch(
	ctx context.Context,
	p *projects.Project,
	origin projects.Status,
	batch []pages.Page,
	round int,
) {
	portraitRef := o.characterStyleRefs(ctx, p.ID)

	items := make([]workItem, len(batch))
	for i, pg := range batch {
		items[i] = o.pageWorkItem(p, pg, round, portraitRef)
	}

	allSucceeded := o.runBatch(ctx, items)

	// A fully regenerated revision cycle moves the project back under
	// customer review once no open requests remain.
	if allSucceeded && origin == projects.StatusSketchesRevision {
		open, err := o.rt.Pages.HasOpenFeedback(ctx, p.ID)
		if err != nil {
			o.rt.Logger.Error("open feedback check failed", "project", p.ID, "error", err)
		} else if !open {
			if next, err := origin.Apply(projects.EventResendSketches); err == nil {
				if _, err := o.rt.Projects.UpdateStatus(ctx, p.ID, origin, next); err != nil && !errorsIsStale(err) {
					o.rt.Logger.Error("resend status update failed", "project", p.ID, "error", err)
				}
			}
		}
	}

	kind := notify.EventGenerationFailed
	message := "page illustration generation finished with failures"
	if allSucceeded {
		kind = notify.EventGenerationComplete
		message = "page illustration generation complete"
	}

	o.rt.Notifier.Notify(ctx, notify.Event{
		Kind:      kind,
		ProjectID: p.ID,
		Message:   message,
		Detail:    map[string]any{"batch_size": len(batch)},
	})
}

func (o *orchestrator) pageWorkItem(
	p *projects.Project,
	pg pages.Page,
	round int,
	portraitRef []string,
) workItem {
	refs := append([]string{}, portraitRef...)
	if url, ok := pg.OriginalIllustration.URL(); ok {
		refs = append(refs, url)
	}

	return workItem{
		id:    pg.ID,
		label: fmt.Sprintf("page %d", pg.PageNumber),

		generate: func(ctx context.Context) generation.Result {
			return o.rt.Generator.Generate(ctx, generation.Request{
				Kind:          generation.KindIllustration,
				Prompt:        pg.Text,
				ReferenceURLs: refs,
			})
		},

		persistSuccess: func(ctx context.Context, result generation.Result) error {
			key := fmt.Sprintf("projects/%s/pages/%s/illustration.png", p.ID, pg.ID)
			if err := o.rt.Storage.Upload(ctx, key, bytes.NewReader(result.Data), result.ContentType); err != nil {
				return fmt.Errorf("upload illustration: %w", err)
			}

			ref := artifact.Ready(o.rt.Storage.PublicURL(key))
			updated, err := o.rt.Pages.UpdateIllustration(ctx, pg.ID, ref)
			if err != nil {
				return fmt.Errorf("persist illustration ref: %w", err)
			}

			return o.resolvePageOnRegeneration(ctx, updated, round)
		},

		persistFailure: func(ctx context.Context, reason string) error {
			_, err := o.rt.Pages.UpdateIllustration(ctx, pg.ID, artifact.Failed(reason))
			return err
		},

		chain: func(ctx context.Context) {
			o.chainPageSketch(ctx, p.ID, pg)
		},
	}
}

func (o *orchestrator) resolvePageOnRegeneration(ctx context.Context, pg *pages.Page, round int) error {
	if !pg.Feedback.Open() {
		return nil
	}

	state := pg.Feedback
	state.ResolveByRegeneration(round, time.Now())

	if _, err := o.rt.Pages.UpdateFeedback(ctx, pg.ID, state); err != nil {
		return fmt.Errorf("resolve feedback: %w", err)
	}
	return nil
}

func (o *orchestrator) chainPageSketch(ctx context.Context, projectID uuid.UUID, pg pages.Page) {
	result := o.rt.Generator.Generate(ctx, generation.Request{
		Kind:   generation.KindPageSketch,
		Prompt: pg.Text,
	})
	if !result.Success {
		o.rt.Logger.Warn("page sketch generation failed", "page", pg.ID, "reason", result.FailureReason)
		return
	}

	key := fmt.Sprintf("projects/%s/pages/%s/sketch.png", projectID, pg.ID)
	if err := o.rt.Storage.Upload(ctx, key, bytes.NewReader(result.Data), result.ContentType); err != nil {
		o.rt.Logger.Warn("page sketch upload failed", "page", pg.ID, "error", err)
		return
	}

	if _, err := o.rt.Pages.UpdateSketch(ctx, pg.ID, artifact.Ready(o.rt.Storage.PublicURL(key))); err != nil {
		o.rt.Logger.Warn("page sketch ref persist failed", "page", pg.ID, "error", err)
	}
}
