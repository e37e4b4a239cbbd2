package domain

import "time"

// Event types
const (
	EventTypeEntryPosted        = "entry.posted"
	EventTypeAccountCreated     = "account.created"
	EventTypeAccountDeactivated = "account.deactivated"
	EventTypeAccountDeleted     = "account.deleted"
)

// Aggregate types
const (
	AggregateTypeEntry   = "journal_entry"
	AggregateTypeAccount = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
