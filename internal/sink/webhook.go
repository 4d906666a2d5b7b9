package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"budget-auditor/internal/models"

	apperrors "budget-auditor/internal/errors"
)

// WebhookSink POSTs alert records to an HTTP endpoint as JSON. Aggregate
// snapshots are not forwarded; webhook consumers only want anomalies.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a webhook sink for the given URL.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the sink name.
func (w *WebhookSink) Name() string { return "webhook" }

// PublishSectorSnapshot is a no-op for webhooks.
func (w *WebhookSink) PublishSectorSnapshot(context.Context, models.SectorSnapshot) error {
	return nil
}

// PublishContractorSnapshot is a no-op for webhooks.
func (w *WebhookSink) PublishContractorSnapshot(context.Context, models.ContractorSnapshot) error {
	return nil
}

// PublishAlert POSTs the alert record.
func (w *WebhookSink) PublishAlert(ctx context.Context, alert models.AlertRecord) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return apperrors.NewSinkError("webhook", "marshal", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewSinkError("webhook", "request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "BudgetAuditor/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return apperrors.NewSinkError("webhook", "send", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewSinkError("webhook", "send",
			apperrors.Wrapf(apperrors.ErrSinkUnavailable, "status %d", resp.StatusCode))
	}
	return nil
}

// Close is a no-op.
func (w *WebhookSink) Close() error { return nil }
