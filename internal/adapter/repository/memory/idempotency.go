package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iho/gobooks/internal/usecase"
)

type idempotencyRecord struct {
	value     []byte
	expiresAt time.Time
}

// IdempotencyStore implements usecase.IdempotencyStore in memory. Expired
// keys are dropped lazily on access.
type IdempotencyStore struct {
	mu   sync.Mutex
	data map[string]idempotencyRecord
	now  func() time.Time
}

// NewIdempotencyStore creates an empty store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{data: make(map[string]idempotencyRecord), now: time.Now}
}

// CheckAndSet claims key unless a live claim exists, in which case the
// stored value is returned.
func (s *IdempotencyStore) CheckAndSet(_ context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if rec, ok := s.data[key]; ok && now.Before(rec.expiresAt) {
		return true, rec.value, nil
	}

	value := response
	if value == nil {
		value = []byte(usecase.IdempotencyInProgress)
	}
	s.data[key] = idempotencyRecord{value: value, expiresAt: now.Add(ttl)}
	return false, nil, nil
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(_ context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = idempotencyRecord{value: response, expiresAt: s.now().Add(ttl)}
	return nil
}

// Release drops a claim.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}
