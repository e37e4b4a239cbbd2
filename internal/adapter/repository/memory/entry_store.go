package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

// EntryStore implements usecase.EntryStore in memory.
type EntryStore struct {
	mu      sync.RWMutex
	entries []*domain.JournalEntry
}

// NewEntryStore creates an empty store.
func NewEntryStore() *EntryStore {
	return &EntryStore{}
}

// Append stores a copy of entry. Ids must increase.
func (s *EntryStore) Append(ctx context.Context, entry *domain.JournalEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.entries); n > 0 && s.entries[n-1].ID >= entry.ID {
		return fmt.Errorf("%w: %d", usecase.ErrEntryExists, entry.ID)
	}
	s.entries = append(s.entries, entry.Clone())
	return nil
}

// LoadAll returns copies of every entry in id order.
func (s *EntryStore) LoadAll(_ context.Context) ([]*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.JournalEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out, nil
}
