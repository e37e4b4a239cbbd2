package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iho/gobooks/internal/domain"
)

// OutboxRepository implements usecase.OutboxRepository in memory. Published
// events are dropped once more than keep of them accumulate.
type OutboxRepository struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent
	keep   int
}

// NewOutboxRepository creates an empty outbox.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{keep: 1000}
}

// Create appends an event.
func (r *OutboxRepository) Create(_ context.Context, event *domain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *event
	r.events = append(r.events, &copied)
	return nil
}

// GetUnpublished returns up to limit pending events, oldest first.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.OutboxEvent
	for _, e := range r.events {
		if len(out) >= limit {
			break
		}
		if !e.Published {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

// MarkPublished flags an event as delivered.
func (r *OutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			r.compact()
			return nil
		}
	}
	return fmt.Errorf("outbox event %s not found", id)
}

func (r *OutboxRepository) compact() {
	published := 0
	for _, e := range r.events {
		if e.Published {
			published++
		}
	}
	if published <= r.keep {
		return
	}

	drop := published - r.keep
	kept := r.events[:0]
	for _, e := range r.events {
		if e.Published && drop > 0 {
			drop--
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
}
