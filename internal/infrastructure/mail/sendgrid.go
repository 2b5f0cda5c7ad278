package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"DigestMailer/internal/config"
	"DigestMailer/internal/domain"
	"DigestMailer/internal/ports"
	"DigestMailer/internal/retry"
)

const sendgridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SendGridProvider delivers digests through the SendGrid v3 mail API.
type SendGridProvider struct {
	apiKey    string
	fromEmail string
	endpoint  string
	client    *http.Client
	policy    retry.Policy
}

var _ ports.EmailProvider = (*SendGridProvider)(nil)

// NewSendGridProvider wires the API credential and sender identity.
func NewSendGridProvider(cfg config.SendGridConfig, fromEmail string, policy retry.Policy) *SendGridProvider {
	return &SendGridProvider{
		apiKey:    cfg.APIKey,
		fromEmail: fromEmail,
		endpoint:  sendgridEndpoint,
		client:    &http.Client{Timeout: 15 * time.Second},
		policy:    policy,
	}
}

// Name identifies the provider inside the registry.
func (p *SendGridProvider) Name() string {
	return "sendgrid"
}

// Send posts the digest to the mail-send API. SendGrid acknowledges an
// accepted message with 202; 5xx and rate limits are retried with
// backoff, other 4xx surface immediately.
func (p *SendGridProvider) Send(ctx context.Context, digest domain.Digest, recipient string) error {
	if p.apiKey == "" || p.fromEmail == "" {
		return fmt.Errorf("sendgrid provider misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": recipient}}},
		},
		"from":    map[string]string{"email": p.fromEmail},
		"subject": digest.Subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": digest.TextBody},
			{"type": "text/html", "value": digest.HTMLBody},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal sendgrid payload: %w", err)
	}

	return p.policy.Do(ctx, func(ctx context.Context) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
		if err != nil {
			return false, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return retry.RetryableError(err), fmt.Errorf("send mail: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusAccepted {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			err := fmt.Errorf("sendgrid error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
			return retry.RetryableStatus(resp.StatusCode), err
		}

		return false, nil
	})
}
