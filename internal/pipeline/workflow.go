package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/internal/artifact"
	"github.com/atelierworks/atelier/internal/feedback"
	"github.com/atelierworks/atelier/internal/notify"
	"github.com/atelierworks/atelier/internal/projects"
)

func (o *orchestrator) BeginReview(ctx context.Context, projectID uuid.UUID) (*projects.Project, error) {
	p, err := o.rt.Projects.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if p.Status == projects.StatusCharacterReview {
		return p, nil
	}

	next, err := p.Status.Apply(projects.EventBeginCharacterReview)
	if err != nil {
		return nil, err
	}

	return o.rt.Projects.UpdateStatus(ctx, projectID, p.Status, next)
}

func (o *orchestrator) Send(ctx context.Context, projectID uuid.UUID, phase projects.Phase) (*projects.Project, error) {
	p, err := o.rt.Projects.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}

	event := projects.EventSendCharacters
	if phase == projects.PhaseIllustrations {
		event = projects.EventSendSketches
	}

	next, err := p.Status.Apply(event)
	if err != nil {
		return nil, err
	}

	if _, err := o.rt.Projects.UpdateStatus(ctx, projectID, p.Status, next); err != nil {
		return nil, err
	}

	updated, err := o.rt.Projects.IncrementSendCount(ctx, projectID, phase)
	if err != nil {
		return nil, err
	}

	o.rt.Notifier.Notify(ctx, notify.Event{
		Kind:      notify.EventSentForReview,
		ProjectID: projectID,
		Message:   fmt.Sprintf("%s sent for customer review", phase),
		Detail:    map[string]any{"round": updated.Round(phase)},
	})

	return updated, nil
}

func (o *orchestrator) Approve(ctx context.Context, projectID uuid.UUID) (*projects.Project, error) {
	p, err := o.rt.Projects.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}

	// Re-approving after the verdict has been recorded is a no-op.
	switch p.Status {
	case projects.StatusCharactersApproved,
		projects.StatusIllustrationApproved,
		projects.StatusCompleted:
		return p, nil
	}

	var event projects.Event
	var open bool

	switch p.Status {
	case projects.StatusCharacterReview, projects.StatusCharactersRegenerated:
		open, err = o.rt.Characters.HasOpenFeedback(ctx, projectID)
		if err != nil {
			return nil, err
		}
		event = projects.EventApproveCharacters
		if open {
			event = projects.EventRequestCharacterRevision
		}
	case projects.StatusSketchesReview:
		open, err = o.rt.Pages.HasOpenFeedback(ctx, projectID)
		if err != nil {
			return nil, err
		}
		event = projects.EventApproveIllustrations
		if open {
			event = projects.EventRequestSketchRevision
		}
	default:
		return nil, fmt.Errorf("%w: approve in status %q", ErrWrongPhase, p.Status)
	}

	next, err := p.Status.Apply(event)
	if err != nil {
		return nil, err
	}

	updated, err := o.rt.Projects.UpdateStatus(ctx, projectID, p.Status, next)
	if err != nil {
		return nil, err
	}

	if !open {
		o.rt.Notifier.Notify(ctx, notify.Event{
			Kind:      notify.EventApproved,
			ProjectID: projectID,
			Message:   fmt.Sprintf("project approved into %s", next),
		})
	}

	return updated, nil
}

func (o *orchestrator) Complete(ctx context.Context, projectID uuid.UUID) (*projects.Project, error) {
	p, err := o.rt.Projects.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if p.Status == projects.StatusCompleted {
		return p, nil
	}

	next, err := p.Status.Apply(projects.EventComplete)
	if err != nil {
		return nil, err
	}

	updated, err := o.rt.Projects.UpdateStatus(ctx, projectID, p.Status, next)
	if err != nil {
		return nil, err
	}

	o.rt.Notifier.Notify(ctx, notify.Event{
		Kind:      notify.EventProjectCompleted,
		ProjectID: projectID,
		Message:   "project completed",
	})

	return updated, nil
}

// feedbackItem presents a character or page uniformly to the feedback
// operations: its project, its current ledger state, and how to persist
// a mutated state or return the item to generation scope.
type feedbackItem struct {
	projectID     uuid.UUID
	state         feedback.State
	save          func(ctx context.Context, state feedback.State) error
	clearArtifact func(ctx context.Context) error
}

func (o *orchestrator) loadFeedbackItem(ctx context.Context, kind ItemKind, itemID uuid.UUID) (*feedbackItem, error) {
	switch kind {
	case ItemCharacter:
		c, err := o.rt.Characters.Find(ctx, itemID)
		if err != nil {
			return nil, err
		}
		return &feedbackItem{
			projectID: c.ProjectID,
			state:     c.Feedback,
			save: func(ctx context.Context, state feedback.State) error {
				_, err := o.rt.Characters.UpdateFeedback(ctx, itemID, state)
				return err
			},
			clearArtifact: func(ctx context.Context) error {
				_, err := o.rt.Characters.UpdateImage(ctx, itemID, artifact.None())
				return err
			},
		}, nil

	case ItemPage:
		pg, err := o.rt.Pages.Find(ctx, itemID)
		if err != nil {
			return nil, err
		}
		return &feedbackItem{
			projectID: pg.ProjectID,
			state:     pg.Feedback,
			save: func(ctx context.Context, state feedback.State) error {
				_, err := o.rt.Pages.UpdateFeedback(ctx, itemID, state)
				return err
			},
			clearArtifact: func(ctx context.Context) error {
				_, err := o.rt.Pages.UpdateIllustration(ctx, itemID, artifact.None())
				return err
			},
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownItemKind, kind)
}

// Customer feedback is only accepted while the item's phase is under
// review or in an active revision cycle.
var feedbackStatuses = map[ItemKind]map[projects.Status]bool{
	ItemCharacter: {
		projects.StatusCharacterReview:         true,
		projects.StatusCharactersRegenerated:   true,
		projects.StatusCharacterRevisionNeeded: true,
	},
	ItemPage: {
		projects.StatusSketchesReview:   true,
		projects.StatusSketchesRevision: true,
	},
}

func (o *orchestrator) guardFeedbackPhase(ctx context.Context, kind ItemKind, projectID uuid.UUID) (*projects.Project, error) {
	p, err := o.rt.Projects.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !feedbackStatuses[kind][p.Status] {
		return nil, fmt.Errorf("%w: %s feedback in status %q", ErrWrongPhase, kind, p.Status)
	}
	return p, nil
}

func (o *orchestrator) SubmitFeedback(ctx context.Context, kind ItemKind, itemID uuid.UUID, note string) error {
	item, err := o.loadFeedbackItem(ctx, kind, itemID)
	if err != nil {
		return err
	}

	p, err := o.guardFeedbackPhase(ctx, kind, item.projectID)
	if err != nil {
		return err
	}

	if err := item.state.Submit(note); err != nil {
		return err
	}

	if err := item.save(ctx, item.state); err != nil {
		return err
	}

	o.rt.Notifier.Notify(ctx, notify.Event{
		Kind:      notify.EventFeedbackSubmitted,
		ProjectID: p.ID,
		Message:   fmt.Sprintf("revision requested on %s", kind),
	})

	return nil
}

func (o *orchestrator) Reply(ctx context.Context, kind ItemKind, itemID uuid.UUID, text string) error {
	item, err := o.loadFeedbackItem(ctx, kind, itemID)
	if err != nil {
		return err
	}

	if err := item.state.Reply(text); err != nil {
		return err
	}

	return item.save(ctx, item.state)
}

func (o *orchestrator) FollowUp(ctx context.Context, kind ItemKind, itemID uuid.UUID, text string) error {
	item, err := o.loadFeedbackItem(ctx, kind, itemID)
	if err != nil {
		return err
	}

	if err := item.state.AppendFollowUp(text, time.Now()); err != nil {
		return err
	}

	return item.save(ctx, item.state)
}

func (o *orchestrator) Resolve(ctx context.Context, kind ItemKind, itemID uuid.UUID, mode ResolveMode) error {
	item, err := o.loadFeedbackItem(ctx, kind, itemID)
	if err != nil {
		return err
	}

	p, err := o.rt.Projects.Find(ctx, item.projectID)
	if err != nil {
		return err
	}
	round := p.Round(phaseForKind(kind))

	switch mode {
	case ModeRegenerate:
		item.state.ResolveByRegeneration(round, time.Now())
		if err := item.save(ctx, item.state); err != nil {
			return err
		}
		// Clearing the artifact returns the item to generation scope;
		// the next dispatch picks it up.
		return item.clearArtifact(ctx)

	case ModeManual:
		item.state.ResolveManually(round, time.Now())
		return item.save(ctx, item.state)
	}

	return fmt.Errorf("unknown resolve mode %q", mode)
}

func (o *orchestrator) ReplaceRequest(ctx context.Context, kind ItemKind, itemID uuid.UUID, note string) error {
	item, err := o.loadFeedbackItem(ctx, kind, itemID)
	if err != nil {
		return err
	}

	p, err := o.guardFeedbackPhase(ctx, kind, item.projectID)
	if err != nil {
		return err
	}

	if err := item.state.ReplaceRequest(note, p.Round(phaseForKind(kind)), time.Now()); err != nil {
		return err
	}

	return item.save(ctx, item.state)
}

func phaseForKind(kind ItemKind) projects.Phase {
	if kind == ItemPage {
		return projects.PhaseIllustrations
	}
	return projects.PhaseCharacters
}
