package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"DigestMailer/internal/domain"
	"DigestMailer/internal/ports"
	"DigestMailer/internal/retry"
)

const maxFeedBytes = 8 << 20

// Fetcher retrieves the subscriber feed document over HTTP, retrying
// transient failures per the shared policy.
type Fetcher struct {
	client *http.Client
	policy retry.Policy
}

var _ ports.FeedFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; a nil client gets a 20s timeout default.
func NewFetcher(client *http.Client, policy retry.Policy) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Fetcher{client: client, policy: policy}
}

// Fetch returns the raw feed document. Timeouts and 5xx responses are
// retried with backoff; 4xx responses surface immediately as permanent.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	var body []byte

	err := f.policy.Do(ctx, func(ctx context.Context) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			return false, &domain.FetchError{URL: feedURL, Err: fmt.Errorf("build request: %w", err)}
		}
		req.Header.Set("User-Agent", "DigestMailer/1.0")

		resp, err := f.client.Do(req)
		if err != nil {
			return retry.RetryableError(err), &domain.FetchError{URL: feedURL, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return retry.RetryableStatus(resp.StatusCode), &domain.FetchError{URL: feedURL, StatusCode: resp.StatusCode}
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
		if err != nil {
			return retry.RetryableError(err), &domain.FetchError{URL: feedURL, Err: fmt.Errorf("read body: %w", err)}
		}

		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}
