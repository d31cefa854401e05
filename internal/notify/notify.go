// Package notify provides best-effort event dispatch to external
// channels. Delivery is fire-and-forget: every failure is logged and
// swallowed, never surfaced to the workflow that triggered it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Event kinds dispatched by the workflow orchestrator.
const (
	EventGenerationComplete = "generation_complete"
	EventGenerationFailed   = "generation_failed"
	EventFeedbackSubmitted  = "feedback_submitted"
	EventSentForReview      = "sent_for_review"
	EventApproved           = "approved"
	EventProjectCompleted   = "project_completed"
)

// Event is the payload delivered to notification channels.
type Event struct {
	Kind      string         `json:"kind"`
	ProjectID uuid.UUID      `json:"project_id"`
	Message   string         `json:"message"`
	Detail    map[string]any `json:"detail,omitempty"`
	SentAt    time.Time      `json:"sent_at"`
}

// Gateway dispatches events to configured channels. Implementations
// must absorb all delivery errors internally.
type Gateway interface {
	Notify(ctx context.Context, event Event)
}

type webhook struct {
	client  *http.Client
	url     string
	enabled bool
	logger  *slog.Logger
}

// New creates a webhook gateway from the given configuration. When no
// webhook URL is configured the gateway is a logging no-op.
func New(cfg *Config, logger *slog.Logger) Gateway {
	return &webhook{
		client:  &http.Client{Timeout: cfg.TimeoutDuration()},
		url:     cfg.WebhookURL,
		enabled: cfg.WebhookURL != "",
		logger:  logger.With("system", "notify"),
	}
}

func (w *webhook) Notify(ctx context.Context, event Event) {
	if event.SentAt.IsZero() {
		event.SentAt = time.Now()
	}

	if !w.enabled {
		w.logger.Info("notification suppressed", "kind", event.Kind, "project", event.ProjectID)
		return
	}

	if err := w.post(ctx, event); err != nil {
		w.logger.Warn(
			"notification delivery failed",
			"kind", event.Kind,
			"project", event.ProjectID,
			"error", err,
		)
		return
	}

	w.logger.Info("notification delivered", "kind", event.Kind, "project", event.ProjectID)
}

func (w *webhook) post(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}

	return nil
}
