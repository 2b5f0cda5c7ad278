package usecase

import (
	"context"
	"log/slog"
	"time"

	"DigestMailer/internal/domain"
	"DigestMailer/internal/ports"
)

// Dispatcher walks the configured provider order until one delivery
// succeeds, recording an attempt per provider tried.
type Dispatcher struct {
	providers []ports.EmailProvider
	logger    *slog.Logger
}

// NewDispatcher wires the failover order; earlier providers are
// preferred.
func NewDispatcher(providers []ports.EmailProvider, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{providers: providers, logger: logger}
}

// Send attempts delivery provider by provider. On the first success the
// remaining providers are not contacted. When every provider fails, the
// returned error is a DeliveryError carrying the full attempt trail.
func (d *Dispatcher) Send(ctx context.Context, digest domain.Digest, recipient string) ([]domain.DeliveryAttempt, error) {
	attempts := make([]domain.DeliveryAttempt, 0, len(d.providers))

	for _, provider := range d.providers {
		err := provider.Send(ctx, digest, recipient)
		if err == nil {
			attempts = append(attempts, domain.DeliveryAttempt{
				Provider:  provider.Name(),
				Status:    domain.AttemptSuccess,
				Timestamp: time.Now().UTC(),
			})
			d.debug("delivery succeeded", "provider", provider.Name())
			return attempts, nil
		}

		attempts = append(attempts, domain.DeliveryAttempt{
			Provider:    provider.Name(),
			Status:      domain.AttemptFailure,
			ErrorDetail: err.Error(),
			Timestamp:   time.Now().UTC(),
		})
		d.warn("delivery failed, trying next provider", "provider", provider.Name(), "error", err)
	}

	return attempts, &domain.DeliveryError{Attempts: attempts}
}

func (d *Dispatcher) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}

func (d *Dispatcher) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
