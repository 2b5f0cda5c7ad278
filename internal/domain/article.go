package domain

import "time"

// Article is a single normalized feed entry. Immutable once parsed.
type Article struct {
	ID          string
	Title       string
	Summary     string
	WebLink     string
	PDFLink     string
	PublishedAt time.Time
}

// Digest is the rendered payload handed to delivery providers.
type Digest struct {
	Subject  string
	Articles []Article
	HTMLBody string
	TextBody string
}

// AttemptStatus enumerates the outcome of a single provider call.
type AttemptStatus string

const (
	AttemptSuccess AttemptStatus = "success"
	AttemptFailure AttemptStatus = "failure"
)

// DeliveryAttempt records one outbound call to an email provider.
type DeliveryAttempt struct {
	Provider    string
	Status      AttemptStatus
	ErrorDetail string
	Timestamp   time.Time
}

// RunOutcome enumerates terminal pipeline results.
type RunOutcome string

const (
	OutcomeSent         RunOutcome = "sent"
	OutcomeSkippedEmpty RunOutcome = "skipped-empty"
	OutcomeFailed       RunOutcome = "failed"
)

// RunResult summarizes a single pipeline execution.
type RunResult struct {
	ArticlesSent     int
	DeliveryAttempts []DeliveryAttempt
	Outcome          RunOutcome
}
