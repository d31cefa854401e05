package api

import (
	"github.com/atelierworks/atelier/internal/characters"
	"github.com/atelierworks/atelier/internal/config"
	"github.com/atelierworks/atelier/internal/generation"
	"github.com/atelierworks/atelier/internal/notify"
	"github.com/atelierworks/atelier/internal/pages"
	"github.com/atelierworks/atelier/internal/pipeline"
	"github.com/atelierworks/atelier/internal/projects"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Projects   projects.System
	Characters characters.System
	Pages      pages.System
	Pipeline   pipeline.System
}

// NewDomain creates all domain systems from the API runtime. The
// pipeline orchestrator receives the other systems plus the generation
// and notification clients through an explicit runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	projectsSystem := projects.New(db, runtime.Logger, runtime.Pagination)
	charactersSystem := characters.New(db, runtime.Logger)
	pagesSystem := pages.New(db, runtime.Logger)

	pipelineSystem := pipeline.New(pipeline.NewRuntime(pipeline.Runtime{
		Projects:   projectsSystem,
		Characters: charactersSystem,
		Pages:      pagesSystem,
		Generator:  generation.NewOpenAI(&cfg.Generation, runtime.Logger),
		Storage:    runtime.Storage,
		Notifier:   notify.New(&cfg.Notify, runtime.Logger),
		Logger:     runtime.Logger,
		MaxWorkers: runtime.MaxWorkers,
	}))

	return &Domain{
		Projects:   projectsSystem,
		Characters: charactersSystem,
		Pages:      pagesSystem,
		Pipeline:   pipelineSystem,
	}
}
