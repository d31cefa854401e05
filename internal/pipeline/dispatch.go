package pipeline

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/atelierworks/atelier/internal/generation"
)

// workItem is one independent unit within a dispatch batch. Outcomes
// are persisted by the item itself, immediately on settle, so a crash
// mid-batch leaves correct partial state.
type workItem struct {
	id    uuid.UUID
	label string

	generate       func(ctx context.Context) generation.Result
	persistSuccess func(ctx context.Context, result generation.Result) error
	persistFailure func(ctx context.Context, reason string) error

	// chain runs detached after a persisted success; its failure never
	// affects the item's outcome.
	chain func(ctx context.Context)
}

// runBatch fans out all items concurrently, waits for every one to
// settle, and reports whether all succeeded. One item's failure never
// aborts its siblings: goroutines record outcomes and always return
// nil to the group.
func (o *orchestrator) runBatch(ctx context.Context, items []workItem) bool {
	results := make([]bool, len(items))

	var g errgroup.Group
	g.SetLimit(o.rt.workerCount(len(items)))

	for i, item := range items {
		g.Go(func() error {
			results[i] = o.runItem(ctx, item)
			return nil
		})
	}

	// Join barrier: the caller's aggregate transition only happens
	// after every item has settled.
	g.Wait()

	for _, ok := range results {
		if !ok {
			return false
		}
	}
	return true
}

func (o *orchestrator) runItem(ctx context.Context, item workItem) bool {
	result := item.generate(ctx)

	if !result.Success {
		o.rt.Logger.Warn(
			"generation failed",
			"item", item.id,
			"label", item.label,
			"reason", result.FailureReason,
		)
		if err := item.persistFailure(ctx, result.FailureReason); err != nil {
			o.rt.Logger.Error("persist failure sentinel failed", "item", item.id, "error", err)
		}
		return false
	}

	if err := item.persistSuccess(ctx, result); err != nil {
		o.rt.Logger.Error("persist generation result failed", "item", item.id, "error", err)
		if perr := item.persistFailure(ctx, "persist failed: "+err.Error()); perr != nil {
			o.rt.Logger.Error("persist failure sentinel failed", "item", item.id, "error", perr)
		}
		return false
	}

	o.rt.Logger.Info("generation succeeded", "item", item.id, "label", item.label)

	if item.chain != nil {
		o.rt.Launch(func() { item.chain(ctx) })
	}

	return true
}
