package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Alert kinds.
const (
	KindNegativeGymRevenue = "negative_gym_revenue"
	KindUnmeasurableTarget = "unmeasurable_target"
)

// Alert is the JSON body posted to the webhook.
type Alert struct {
	Kind      string         `json:"kind"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	SentAt    time.Time      `json:"sentAt"`
}

// Notifier receives operational alerts.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Webhook posts alerts to a fixed URL. An empty URL turns it into a no-op.
type Webhook struct {
	URL    string
	Client *http.Client
	Logger *slog.Logger
}

func NewWebhook(url string, logger *slog.Logger) *Webhook {
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
		Logger: logger.With("module", "notification"),
	}
}

func (w *Webhook) Notify(ctx context.Context, alert Alert) error {
	if w.URL == "" {
		w.Logger.DebugContext(ctx, "webhook disabled, alert dropped", "kind", alert.Kind)
		return nil
	}
	if alert.SentAt.IsZero() {
		alert.SentAt = time.Now().UTC()
	}
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook answered %s", resp.Status)
	}
	return nil
}

// NotifyAsync sends the alert in the background and only logs failures.
// The request context is detached so the alert outlives the request.
func NotifyAsync(ctx context.Context, n Notifier, logger *slog.Logger, alert Alert) {
	if n == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := n.Notify(ctx, alert); err != nil {
			logger.WarnContext(ctx, "alert not delivered", "kind", alert.Kind, "error", err)
		}
	}()
}
