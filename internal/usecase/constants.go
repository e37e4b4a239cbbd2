package usecase

import "time"

const (
	// DefaultStoreTimeout bounds a single durable append.
	DefaultStoreTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultOutboxBatch is how many pending events the publisher reads per tick.
	DefaultOutboxBatch = 100

	// ReversalReferencePrefix prefixes the reference of reversal entries.
	ReversalReferencePrefix = "REV-"
)

// DefaultCostCodePrefixes marks expense accounts reported as cost of sales.
var DefaultCostCodePrefixes = []string{"5"}
