package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/atelierworks/atelier/pkg/handlers"
	"github.com/atelierworks/atelier/pkg/routes"
	"github.com/atelierworks/atelier/pkg/storage"
)

// artworkHandler streams generated artwork blobs for deployments where
// the storage account has no public endpoint.
type artworkHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newArtworkHandler(store storage.System, logger *slog.Logger) *artworkHandler {
	return &artworkHandler{
		store:  store,
		logger: logger.With("handler", "artwork"),
	}
}

func (h *artworkHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/artwork",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.download},
		},
	}
}

func (h *artworkHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			storage.MapHTTPStatus(err), err,
		)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}
