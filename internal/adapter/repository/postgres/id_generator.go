package postgres

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventIDGenerator issues outbox event ids. Ids from one generator sort in
// issue order even within a millisecond, matching the publisher's
// created_at, id ordering.
type EventIDGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewEventIDGenerator creates a generator backed by crypto/rand.
func NewEventIDGenerator() *EventIDGenerator {
	return &EventIDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Generate returns the next event id.
func (g *EventIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}
