package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WebhookNotifier POSTs each prompt as JSON to every configured recipient
// URL. Failures are logged and reported to the caller, which treats them as
// best-effort losses.
type WebhookNotifier struct {
	recipients []string
	client     *http.Client
	logger     *zap.Logger
}

// NewWebhookNotifier creates a webhook notifier for the given recipient URLs.
func NewWebhookNotifier(recipients []string, logger *zap.Logger) *WebhookNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookNotifier{
		recipients: recipients,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Notify delivers the prompt to all recipients; it succeeds when at least one
// accepted the POST.
func (n *WebhookNotifier) Notify(ctx context.Context, prompt *Prompt) error {
	if len(n.recipients) == 0 {
		return ErrNoRecipients
	}
	body, err := json.Marshal(prompt)
	if err != nil {
		return err
	}
	delivered := 0
	for _, recipient := range n.recipients {
		if err := n.post(ctx, recipient, body); err != nil {
			n.logger.Warn("approval prompt delivery failed",
				zap.String("recipient", recipient),
				zap.String("correlationId", prompt.CorrelationID),
				zap.Error(err))
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("notify: no recipient accepted prompt %s", prompt.CorrelationID)
	}
	return nil
}

func (n *WebhookNotifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

var _ Notifier = (*WebhookNotifier)(nil)
