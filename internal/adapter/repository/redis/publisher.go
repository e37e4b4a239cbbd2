package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/gobooks/internal/domain"
)

// EventMessage is the JSON body published for an outbox event.
type EventMessage struct {
	ID            string         `json:"id"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	EventType     string         `json:"event_type"`
	Payload       map[string]any `json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Publisher publishes outbox events on Redis pub/sub. Each event goes to
// the channel "<prefix><event type>".
type Publisher struct {
	client *redis.Client
	prefix string
}

// NewPublisher creates a new Publisher.
func NewPublisher(client *redis.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = "gobooks.events."
	}
	return &Publisher{client: client, prefix: prefix}
}

// Channel returns the channel events of eventType are published on.
func (p *Publisher) Channel(eventType string) string {
	return p.prefix + eventType
}

// Publish sends the event.
func (p *Publisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	body, err := json.Marshal(EventMessage{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	return p.client.Publish(ctx, p.Channel(event.EventType), body).Err()
}
