package pipeline

import (
	"errors"

	"github.com/atelierworks/atelier/internal/projects"
)

type orchestrator struct {
	rt *Runtime
}

// New creates the workflow orchestrator over the given runtime.
func New(rt *Runtime) System {
	return &orchestrator{rt: rt}
}

func (o *orchestrator) Handler() *Handler {
	return NewHandler(o, o.rt.Logger)
}

// errorsIsStale reports whether a status update lost a compare-and-swap
// race, which dispatch treats as a rejected receipt rather than a
// failure.
func errorsIsStale(err error) bool {
	return errors.Is(err, projects.ErrStaleStatus)
}
