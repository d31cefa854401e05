package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/atelierworks/atelier/internal/projects"
	"github.com/atelierworks/atelier/pkg/handlers"
	"github.com/atelierworks/atelier/pkg/routes"
)

// Handler provides HTTP endpoints for workflow operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "workflow"),
	}
}

// Routes returns the route group definition for workflow endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/workflow",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/projects/{id}/begin-review", Handler: h.BeginReview},
			{Method: "POST", Pattern: "/projects/{id}/send/{phase}", Handler: h.Send},
			{Method: "POST", Pattern: "/projects/{id}/approve", Handler: h.Approve},
			{Method: "POST", Pattern: "/projects/{id}/complete", Handler: h.Complete},
			{Method: "POST", Pattern: "/projects/{id}/generate/characters", Handler: h.GenerateCharacters},
			{Method: "POST", Pattern: "/projects/{id}/generate/pages", Handler: h.GeneratePages},
			{Method: "POST", Pattern: "/{kind}/{id}/feedback", Handler: h.SubmitFeedback},
			{Method: "POST", Pattern: "/{kind}/{id}/reply", Handler: h.Reply},
			{Method: "POST", Pattern: "/{kind}/{id}/follow-up", Handler: h.FollowUp},
			{Method: "POST", Pattern: "/{kind}/{id}/resolve", Handler: h.Resolve},
			{Method: "POST", Pattern: "/{kind}/{id}/replace", Handler: h.ReplaceRequest},
		},
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

func pathKind(r *http.Request) (ItemKind, error) {
	switch kind := ItemKind(r.PathValue("kind")); kind {
	case ItemCharacter, ItemPage:
		return kind, nil
	default:
		return "", ErrUnknownItemKind
	}
}

// noteRequest carries the text payload shared by the feedback endpoints.
type noteRequest struct {
	Note string `json:"note"`
}

func decodeNote(r *http.Request) (string, error) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", err
	}
	return req.Note, nil
}

// BeginReview moves a draft project into character review.
func (h *Handler) BeginReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, projects.ErrNotFound)
		return
	}

	p, err := h.sys.BeginReview(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Send marks the phase named in the path as sent to the customer.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, projects.ErrNotFound)
		return
	}

	var phase projects.Phase
	switch p := projects.Phase(r.PathValue("phase")); p {
	case projects.PhaseCharacters, projects.PhaseIllustrations:
		phase = p
	default:
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrWrongPhase)
		return
	}

	p, err := h.sys.Send(r.Context(), id, phase)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Approve records the customer's verdict on the current phase.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, projects.ErrNotFound)
		return
	}

	p, err := h.sys.Approve(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Complete closes an illustration-approved project.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, projects.ErrNotFound)
		return
	}

	p, err := h.sys.Complete(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) noteOperation(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, kind ItemKind, itemID uuid.UUID, text string) error,
) {
	kind, err := pathKind(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	note, err := decodeNote(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := op(r.Context(), kind, id, note); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GenerateCharacters starts portrait generation for the project's
// pending characters, optionally scoped to one character.
func (h *Handler) GenerateCharacters(w http.ResponseWriter, r *http.Request) {
	id, scope, err := dispatchParams(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	receipt, err := h.sys.DispatchCharacters(r.Context(), id, scope)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, receipt)
}

// GeneratePages starts illustration generation for the project's
// pending pages, optionally scoped to one page.
func (h *Handler) GeneratePages(w http.ResponseWriter, r *http.Request) {
	id, scope, err := dispatchParams(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	receipt, err := h.sys.DispatchPages(r.Context(), id, scope)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, receipt)
}

func dispatchParams(r *http.Request) (uuid.UUID, Scope, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, Scope{}, projects.ErrNotFound
	}

	var scope Scope
	if item := r.URL.Query().Get("item"); item != "" {
		itemID, err := uuid.Parse(item)
		if err != nil {
			return uuid.Nil, Scope{}, err
		}
		scope.ItemID = &itemID
	}

	return id, scope, nil
}

// SubmitFeedback installs a revision request on a character or page.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	h.noteOperation(w, r, h.sys.SubmitFeedback)
}

// Reply records the admin's response to an open revision request.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	h.noteOperation(w, r, h.sys.Reply)
}

// FollowUp appends a customer message after an admin reply.
func (h *Handler) FollowUp(w http.ResponseWriter, r *http.Request) {
	h.noteOperation(w, r, h.sys.FollowUp)
}

// ReplaceRequest supersedes an item's revision request with a new note.
func (h *Handler) ReplaceRequest(w http.ResponseWriter, r *http.Request) {
	h.noteOperation(w, r, h.sys.ReplaceRequest)
}

// Resolve closes an open revision request manually or by marking the
// item for regeneration.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Mode ResolveMode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.sys.Resolve(r.Context(), kind, id, req.Mode); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}
