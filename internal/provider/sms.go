// Package provider implements the delivery backends for sms, email and
// webhook channels. Each provider reports whether it has credentials so
// the dispatcher can skip it cleanly instead of failing every send.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// SMSProvider delivers messages through the Twilio REST API.
type SMSProvider struct {
	accountSID string
	authToken  string
	from       string
	client     *http.Client
	baseURL    string
}

func NewSMSProvider(accountSID, authToken, from string) *SMSProvider {
	return &SMSProvider{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		client:     &http.Client{Timeout: 30 * time.Second},
		baseURL:    twilioAPIBase,
	}
}

func (p *SMSProvider) Configured() bool {
	return p.accountSID != "" && p.authToken != "" && p.from != ""
}

func (p *SMSProvider) Send(ctx context.Context, target, message string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", p.baseURL, p.accountSID)

	form := url.Values{}
	form.Set("To", target)
	form.Set("From", p.from)
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("error building sms request: %w", err)
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending sms to %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
