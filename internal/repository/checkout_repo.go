package repository

import (
	"context"
	"time"

	"github.com/saiko-shop/storefront/internal/domain/entity"
)

// CheckoutRecorder keeps an audit trail of checkout handoffs.
type CheckoutRecorder interface {
	Create(ctx context.Context, record entity.CheckoutRecord) error
	MarkCompleted(ctx context.Context, sessionKey string, completedAt time.Time) error
}

// EventPublisher delivers domain events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, message interface{}) error
}
