package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookProvider POSTs the rendered JSON payload to the channel target URL.
// It needs no credentials, so it is always configured.
type WebhookProvider struct {
	client *http.Client
}

func NewWebhookProvider() *WebhookProvider {
	return &WebhookProvider{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *WebhookProvider) Configured() bool { return true }

func (p *WebhookProvider) Send(ctx context.Context, target, message string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("error building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("error posting webhook to %s: %w", target, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
