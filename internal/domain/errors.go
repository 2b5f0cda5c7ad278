package domain

import (
	"fmt"
	"strings"
)

// FetchError reports a failure to retrieve the feed document.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a malformed feed document or an entry missing
// required fields.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse feed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse feed: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RenderError reports misuse of the renderer. It signals a programming
// error (the orchestrator guarantees non-empty input), not a runtime
// condition.
type RenderError struct {
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render digest: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("render digest: %s", e.Reason)
}

func (e *RenderError) Unwrap() error { return e.Err }

// DeliveryError reports that every configured provider failed. It carries
// the full attempt trail for diagnosis.
type DeliveryError struct {
	Attempts []DeliveryAttempt
}

func (e *DeliveryError) Error() string {
	details := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		details = append(details, fmt.Sprintf("%s: %s", a.Provider, a.ErrorDetail))
	}
	return fmt.Sprintf("all providers failed: %s", strings.Join(details, "; "))
}
