package usecase

import (
	"context"
	"errors"
	"testing"

	"DigestMailer/internal/domain"
	"DigestMailer/internal/ports"
)

type fakeProvider struct {
	name  string
	err   error
	calls int
}

var _ ports.EmailProvider = (*fakeProvider)(nil)

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Send(ctx context.Context, digest domain.Digest, recipient string) error {
	f.calls++
	return f.err
}

func TestDispatcherStopsAtFirstSuccess(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary"}
	fallback := &fakeProvider{name: "fallback"}
	d := NewDispatcher([]ports.EmailProvider{primary, fallback}, nil)

	attempts, err := d.Send(context.Background(), domain.Digest{Subject: "s"}, "user@example.com")
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	if attempts[0].Provider != "primary" || attempts[0].Status != domain.AttemptSuccess {
		t.Fatalf("unexpected attempt: %+v", attempts[0])
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback must not be contacted after success")
	}
}

func TestDispatcherFailsOver(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary", err: errors.New("rate limited")}
	fallback := &fakeProvider{name: "fallback"}
	d := NewDispatcher([]ports.EmailProvider{primary, fallback}, nil)

	attempts, err := d.Send(context.Background(), domain.Digest{Subject: "s"}, "user@example.com")
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].Status != domain.AttemptFailure || attempts[0].ErrorDetail == "" {
		t.Fatalf("first attempt must record failure detail: %+v", attempts[0])
	}
	if attempts[1].Provider != "fallback" || attempts[1].Status != domain.AttemptSuccess {
		t.Fatalf("unexpected second attempt: %+v", attempts[1])
	}
}

func TestDispatcherReportsAllFailures(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary", err: errors.New("auth failed")}
	fallback := &fakeProvider{name: "fallback", err: errors.New("timeout")}
	d := NewDispatcher([]ports.EmailProvider{primary, fallback}, nil)

	attempts, err := d.Send(context.Background(), domain.Digest{Subject: "s"}, "user@example.com")
	if err == nil {
		t.Fatalf("expected error when all providers fail")
	}

	var deliveryErr *domain.DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("expected DeliveryError, got %T", err)
	}
	if len(deliveryErr.Attempts) != 2 || len(attempts) != 2 {
		t.Fatalf("error must carry both attempts, got %d", len(deliveryErr.Attempts))
	}
	for _, attempt := range deliveryErr.Attempts {
		if attempt.Status != domain.AttemptFailure {
			t.Fatalf("unexpected attempt status: %+v", attempt)
		}
	}
}
