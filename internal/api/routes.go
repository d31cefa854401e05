package api

import (
	"net/http"

	"github.com/atelierworks/atelier/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	artwork := newArtworkHandler(runtime.Storage, runtime.Logger)

	routes.Register(
		mux,
		domain.Projects.Handler().Routes(),
		domain.Characters.Handler().Routes(),
		domain.Pages.Handler().Routes(),
		domain.Pipeline.Handler().Routes(),
		artwork.routes(),
	)
}
