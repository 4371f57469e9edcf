package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aradsms/tollfree_migrator/internal/migration_service/domain"
)

// DefaultSwapSubject is the subject number swap events are published on.
const DefaultSwapSubject = "tollfree.migration.swapped"

// Publisher is the subset of the message broker client used here.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// SwapPublisher publishes domain.NumberSwappedEvent as JSON.
type SwapPublisher struct {
	broker  Publisher
	subject string
	logger  *slog.Logger
}

// NewSwapPublisher creates a new SwapPublisher.
func NewSwapPublisher(broker Publisher, subject string, logger *slog.Logger) *SwapPublisher {
	if subject == "" {
		subject = DefaultSwapSubject
	}
	return &SwapPublisher{
		broker:  broker,
		subject: subject,
		logger:  logger.With("component", "swap_publisher"),
	}
}

// PublishNumberSwapped serializes and publishes event.
func (p *SwapPublisher) PublishNumberSwapped(ctx context.Context, event domain.NumberSwappedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal number swapped event: %w", err)
	}
	if err := p.broker.Publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("failed to publish number swapped event: %w", err)
	}
	p.logger.DebugContext(ctx, "Published number swapped event", "subject", p.subject, "event_id", event.EventID)
	return nil
}
