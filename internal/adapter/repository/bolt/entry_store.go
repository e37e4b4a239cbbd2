package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	bbolt "go.etcd.io/bbolt"

	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

// EntryStore implements usecase.EntryStore on bbolt. Entries are keyed by
// their big-endian id; the bucket is only ever appended to.
type EntryStore struct {
	db *DB
}

// NewEntryStore creates a new entry store.
func NewEntryStore(db *DB) *EntryStore {
	return &EntryStore{db: db}
}

// Append writes entry in its own transaction. Ids must increase.
func (s *EntryStore) Append(ctx context.Context, entry *domain.JournalEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(toEntryRecord(entry))
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	return s.db.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketEntries))
		if last, _ := b.Cursor().Last(); last != nil && btoi(last) >= entry.ID {
			return fmt.Errorf("%w: %d", usecase.ErrEntryExists, entry.ID)
		}
		return b.Put(itob(entry.ID), data)
	})
}

// LoadAll returns every entry in id order.
func (s *EntryStore) LoadAll(ctx context.Context) ([]*domain.JournalEntry, error) {
	var entries []*domain.JournalEntry
	err := s.db.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(BucketEntries)).ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec entryRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode entry %d: %w", btoi(k), err)
			}
			entries = append(entries, rec.toDomain())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
