package mocks

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

// StubEntryStore is a func-field implementation of EntryStore that keeps
// appended entries in memory.
type StubEntryStore struct {
	mu      sync.Mutex
	entries []*domain.JournalEntry

	AppendFunc  func(ctx context.Context, entry *domain.JournalEntry) error
	LoadAllFunc func(ctx context.Context) ([]*domain.JournalEntry, error)
}

func NewStubEntryStore(entries ...*domain.JournalEntry) *StubEntryStore {
	return &StubEntryStore{entries: entries}
}

func (m *StubEntryStore) Append(ctx context.Context, entry *domain.JournalEntry) error {
	if m.AppendFunc != nil {
		if err := m.AppendFunc(ctx, entry); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry.Clone())
	return nil
}

func (m *StubEntryStore) LoadAll(ctx context.Context) ([]*domain.JournalEntry, error) {
	if m.LoadAllFunc != nil {
		return m.LoadAllFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.JournalEntry(nil), m.entries...), nil
}

// Len returns the number of stored entries.
func (m *StubEntryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// StubOutboxRepository is a func-field implementation of OutboxRepository.
type StubOutboxRepository struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, event *domain.OutboxEvent) error
}

func NewStubOutboxRepository() *StubOutboxRepository {
	return &StubOutboxRepository{}
}

func (m *StubOutboxRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *StubOutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *StubOutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

// Events returns the recorded events.
func (m *StubOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

// StubIDGenerator is a func-field implementation of IDGenerator.
type StubIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (m *StubIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + strconv.Itoa(m.counter)
}

// StubIdempotencyStore is a func-field implementation of IdempotencyStore.
type StubIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewStubIdempotencyStore() *StubIdempotencyStore {
	return &StubIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *StubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte(usecase.IdempotencyInProgress)
	}
	return false, nil, nil
}

func (m *StubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *StubIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
