package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/internal/artifact"
	"github.com/atelierworks/atelier/internal/characters"
	"github.com/atelierworks/atelier/internal/generation"
	"github.com/atelierworks/atelier/internal/notify"
	"github.com/atelierworks/atelier/internal/projects"
)

func (o *orchestrator) DispatchCharacters(ctx context.Context, projectID uuid.UUID, scope Scope) (*DispatchReceipt, error) {
	p, err := o.rt.Projects.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}

	// Re-triggering while a batch is in flight is a guarded no-op, not
	// an error.
	if p.Status == projects.StatusCharacterGeneration {
		return &DispatchReceipt{
			Reason:        "character generation already in progress",
			ProjectStatus: p.Status,
		}, nil
	}

	next, err := p.Status.Apply(projects.EventDispatchCharacters)
	if err != nil {
		return nil, err
	}

	// The work set always comes from durable state, never from the
	// caller: a retry after partial completion regenerates only what is
	// still missing.
	pending, err := o.rt.Characters.Pending(ctx, projectID)
	if err != nil {
		return nil, err
	}

	batch, reason := narrowCharacters(pending, scope)
	if len(batch) == 0 {
		return &DispatchReceipt{
			Reason:        reason,
			ProjectStatus: p.Status,
		}, nil
	}

	if _, err := o.rt.Projects.UpdateStatus(ctx, projectID, p.Status, next); err != nil {
		if errorsIsStale(err) {
			return &DispatchReceipt{
				Reason:        "project status changed concurrently",
				ProjectStatus: p.Status,
			}, nil
		}
		return nil, err
	}

	origin := p.Status
	round := p.Round(projects.PhaseCharacters)
	batchCtx := detach(ctx)

	o.rt.Launch(func() {
		o.runCharacterBatch(batchCtx, p, origin, batch, round)
	})

	return &DispatchReceipt{
		Accepted:      true,
		PendingItems:  len(batch),
		ProjectStatus: next,
	}, nil
}

func narrowCharacters(pending []characters.Character, scope Scope) ([]characters.Character, string) {
	if len(pending) == 0 {
		return nil, "no characters pending generation"
	}
	if scope.ItemID == nil {
		return pending, ""
	}

	for _, c := range pending {
		if c.ID == *scope.ItemID {
			return []characters.Character{c}, ""
		}
	}
	return nil, "character is not pending generation"
}

func (o *orchestrator) runCharacterBatch(
	ctx context.Context,
	p *projects.Project,
	origin projects.Status,
	batch []characters.Character,
	round int,
) {
	styleRefs := o.characterStyleRefs(ctx, p.ID)

	items := make([]workItem, len(batch))
	for i, c := range batch {
		items[i] = o.characterWorkItem(p, c, round, styleRefs)
	}

	allSucceeded := o.runBatch(ctx, items)

	event := projects.EventCharactersFailed
	if allSucceeded {
		event = projects.EventCharactersSucceeded
	}

	next, err := projects.StatusCharacterGeneration.Apply(event)
	if err != nil {
		o.rt.Logger.Error("aggregate transition rejected", "project", p.ID, "event", event, "error", err)
		return
	}

	if _, err := o.rt.Projects.UpdateStatus(ctx, p.ID, projects.StatusCharacterGeneration, next); err != nil {
		o.rt.Logger.Error("aggregate status update failed", "project", p.ID, "error", err)
		return
	}

	// A revision-cycle batch that fully succeeded lands the project in
	// the regenerated state, awaiting the customer's next verdict.
	if allSucceeded && origin == projects.StatusCharacterRevisionNeeded {
		if regenerated, err := next.Apply(projects.EventMarkRegenerated); err == nil {
			if _, err := o.rt.Projects.UpdateStatus(ctx, p.ID, next, regenerated); err != nil {
				o.rt.Logger.Error("regenerated status update failed", "project", p.ID, "error", err)
			}
		}
	}

	kind := notify.EventGenerationFailed
	message := "character generation finished with failures"
	if allSucceeded {
		kind = notify.EventGenerationComplete
		message = "character generation complete"
	}

	o.rt.Notifier.Notify(ctx, notify.Event{
		Kind:      kind,
		ProjectID: p.ID,
		Message:   message,
		Detail:    map[string]any{"batch_size": len(batch)},
	})
}

func (o *orchestrator) characterWorkItem(
	p *projects.Project,
	c characters.Character,
	round int,
	styleRefs []string,
) workItem {
	return workItem{
		id:    c.ID,
		label: "character " + c.Name,

		generate: func(ctx context.Context) generation.Result {
			return o.rt.Generator.Generate(ctx, generation.Request{
				Kind:          generation.KindPortrait,
				Prompt:        c.Description,
				ReferenceURLs: styleRefs,
			})
		},

		persistSuccess: func(ctx context.Context, result generation.Result) error {
			key := fmt.Sprintf("projects/%s/characters/%s/portrait.png", p.ID, c.ID)
			if err := o.rt.Storage.Upload(ctx, key, bytes.NewReader(result.Data), result.ContentType); err != nil {
				return fmt.Errorf("upload portrait: %w", err)
			}

			ref := artifact.Ready(o.rt.Storage.PublicURL(key))
			updated, err := o.rt.Characters.UpdateImage(ctx, c.ID, ref)
			if err != nil {
				return fmt.Errorf("persist portrait ref: %w", err)
			}

			return o.resolveOnRegeneration(ctx, updated, round)
		},

		persistFailure: func(ctx context.Context, reason string) error {
			_, err := o.rt.Characters.UpdateImage(ctx, c.ID, artifact.Failed(reason))
			return err
		},

		chain: func(ctx context.Context) {
			o.chainCharacterSketch(ctx, p.ID, c)
		},
	}
}

// resolveOnRegeneration archives an item's open feedback once the
// regeneration it asked for has succeeded.
func (o *orchestrator) resolveOnRegeneration(ctx context.Context, c *characters.Character, round int) error {
	if !c.Feedback.Open() {
		return nil
	}

	state := c.Feedback
	state.ResolveByRegeneration(round, time.Now())

	if _, err := o.rt.Characters.UpdateFeedback(ctx, c.ID, state); err != nil {
		return fmt.Errorf("resolve feedback: %w", err)
	}
	return nil
}

// chainCharacterSketch derives the pencil-sketch variant after a
// successful portrait. Best effort: failures are logged and never
// revert the portrait's success.
func (o *orchestrator) chainCharacterSketch(ctx context.Context, projectID uuid.UUID, c characters.Character) {
	result := o.rt.Generator.Generate(ctx, generation.Request{
		Kind:   generation.KindCharacterSketch,
		Prompt: c.Description,
	})
	if !result.Success {
		o.rt.Logger.Warn("sketch generation failed", "character", c.ID, "reason", result.FailureReason)
		return
	}

	key := fmt.Sprintf("projects/%s/characters/%s/sketch.png", projectID, c.ID)
	if err := o.rt.Storage.Upload(ctx, key, bytes.NewReader(result.Data), result.ContentType); err != nil {
		o.rt.Logger.Warn("sketch upload failed", "character", c.ID, "error", err)
		return
	}

	if _, err := o.rt.Characters.UpdateSketch(ctx, c.ID, artifact.Ready(o.rt.Storage.PublicURL(key))); err != nil {
		o.rt.Logger.Warn("sketch ref persist failed", "character", c.ID, "error", err)
	}
}

// characterStyleRefs anchors portrait generation on the main
// character's artwork when it exists.
func (o *orchestrator) characterStyleRefs(ctx context.Context, projectID uuid.UUID) []string {
	all, err := o.rt.Characters.ListByProject(ctx, projectID)
	if err != nil {
		o.rt.Logger.Warn("style reference lookup failed", "project", projectID, "error", err)
		return nil
	}

	for _, c := range all {
		if !c.IsMain {
			continue
		}
		if url, ok := c.Image.URL(); ok {
			return []string{url}
		}
	}
	return nil
}
