package ports

import (
	"context"

	"DigestMailer/internal/domain"
)

// FeedFetcher retrieves the raw feed document for the subscriber.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]byte, error)
}

// FeedParser turns a raw feed document into normalized articles in
// document order.
type FeedParser interface {
	Parse(raw []byte) ([]domain.Article, error)
}

// SeenStore persists delivered article ids across runs for one subscriber.
type SeenStore interface {
	// FilterNew returns the order-preserving subsequence of articles whose
	// id has not been delivered before. Never mutates the store.
	FilterNew(ctx context.Context, articles []domain.Article) ([]domain.Article, error)
	// Commit marks the given articles as delivered. Idempotent; must be
	// called only after confirmed successful delivery.
	Commit(ctx context.Context, articles []domain.Article) error
	// Release drops any per-run hold on the store. Safe to call on every
	// run path, committed or not.
	Release(ctx context.Context) error
}

// DigestRenderer produces the deliverable payload from the new-article
// list and a parameterized date label.
type DigestRenderer interface {
	Render(articles []domain.Article, label string) (domain.Digest, error)
}

// EmailProvider delivers one rendered digest to one recipient.
type EmailProvider interface {
	Name() string
	Send(ctx context.Context, digest domain.Digest, recipient string) error
}
