// Package pipeline implements the workflow orchestrator: the project
// status state machine driver and the concurrent generation dispatch
// and aggregation engine. All workflow triggers (customer actions,
// admin actions, generation completions) enter through this package,
// which validates the transition against durable state, fans out
// generation calls, merges outcomes back into the store, and fires
// best-effort notifications.
package pipeline

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/atelierworks/atelier/internal/characters"
	"github.com/atelierworks/atelier/internal/generation"
	"github.com/atelierworks/atelier/internal/notify"
	"github.com/atelierworks/atelier/internal/pages"
	"github.com/atelierworks/atelier/internal/projects"
	"github.com/atelierworks/atelier/pkg/storage"
)

// Runtime bundles the collaborators the orchestrator requires. All
// external clients are injected explicitly; nothing reads global state.
type Runtime struct {
	Projects   projects.System
	Characters characters.System
	Pages      pages.System
	Generator  generation.Client
	Storage    storage.System
	Notifier   notify.Gateway
	Logger     *slog.Logger

	// MaxWorkers bounds concurrent generation calls within one batch.
	// Zero means one worker per CPU.
	MaxWorkers int

	// Launch runs a batch detached from the triggering request. The
	// default spawns a goroutine; tests substitute a synchronous
	// variant to observe batch completion deterministically.
	Launch func(func())
}

// NewRuntime creates a Runtime with defaults applied.
func NewRuntime(rt Runtime) *Runtime {
	if rt.Launch == nil {
		rt.Launch = func(fn func()) { go fn() }
	}
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}
	rt.Logger = rt.Logger.With("system", "pipeline")
	return &rt
}

func (rt *Runtime) workerCount(batchSize int) int {
	workers := rt.MaxWorkers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return max(min(workers, batchSize), 1)
}

// detach severs the batch context from the triggering request so an
// early HTTP response cannot cancel in-flight generation work.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
