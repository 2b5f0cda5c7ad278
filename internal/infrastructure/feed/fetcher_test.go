package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"DigestMailer/internal/domain"
	"DigestMailer/internal/retry"
)

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond}
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), testPolicy())

	body, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if string(body) != "<rss></rss>" {
		t.Fatalf("unexpected body: %q", body)
	}
	if requests != 3 {
		t.Fatalf("expected 3 requests, got %d", requests)
	}
}

func TestFetchDoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), testPolicy())

	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatalf("expected error on 404")
	}

	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", fetchErr.StatusCode)
	}
	if requests != 1 {
		t.Fatalf("4xx must not be retried, got %d requests", requests)
	}
}

func TestFetchExhaustsRetriesOnServerError(t *testing.T) {
	t.Parallel()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), testPolicy())

	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatalf("expected error after exhausted retries")
	}
	if requests != 3 {
		t.Fatalf("expected 3 requests, got %d", requests)
	}
}

func TestFetchSetsUserAgent(t *testing.T) {
	t.Parallel()

	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), testPolicy())

	if _, err := f.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if agent != "DigestMailer/1.0" {
		t.Fatalf("unexpected user agent: %q", agent)
	}
}
