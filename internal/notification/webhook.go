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

// WebhookNotifier sends alerts to a generic HTTP webhook endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewWebhookNotifier creates a webhook notifier.
// url: The HTTP endpoint to POST alerts to.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

type webhookPayload struct {
	Level    string `json:"level"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Format   string `json:"format"`
	LinkURL  string `json:"link_url,omitempty"`
	LinkText string `json:"link_text,omitempty"`
	TS       string `json:"ts"`
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	format := "text"
	if alert.Markdown {
		format = "markdownv2"
	}
	body, err := json.Marshal(webhookPayload{
		Level:    string(alert.Level),
		Title:    alert.Title,
		Message:  alert.Message,
		Format:   format,
		LinkURL:  alert.LinkURL,
		LinkText: alert.LinkText,
		TS:       w.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}

	slog.InfoContext(ctx, "webhook alert sent",
		slog.String("component", "notify"),
		slog.String("url", w.url),
		slog.String("title", alert.Title),
	)
	return nil
}
