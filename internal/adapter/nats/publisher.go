package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/saiko-shop/storefront/internal/repository"
)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

var _ Conn = (*nats.Conn)(nil)

type natsPublisher struct {
	conn   Conn
	prefix string
}

// NewPublisher prefixes every subject with prefix and a dot when prefix is set.
func NewPublisher(conn Conn, prefix string) (repository.EventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("NATS connection cannot be nil")
	}
	return &natsPublisher{conn: conn, prefix: prefix}, nil
}

func (p *natsPublisher) subject(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "." + name
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, message interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message to JSON for subject %s: %w", subject, err)
	}

	full := p.subject(subject)
	if err := p.conn.Publish(full, data); err != nil {
		return fmt.Errorf("failed to publish message to NATS subject %s: %w", full, err)
	}
	return nil
}
