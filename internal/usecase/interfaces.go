package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/gobooks/internal/domain"
)

// AccountRepository defines data access for the chart of accounts.
// Implementations return domain.ErrAccountNotFound and
// domain.ErrDuplicateAccountCode for the respective conditions.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByCode(ctx context.Context, code string) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, code string) error
	// List returns accounts sorted by code.
	List(ctx context.Context, filter AccountFilter) ([]*domain.Account, error)
}

// AccountFilter narrows List results.
type AccountFilter struct {
	Type       domain.AccountType
	ActiveOnly bool
}

// ErrEntryExists is returned by an EntryStore when an id does not follow the
// last stored one.
var ErrEntryExists = errors.New("entry id already stored")

// EntryStore is the durable, append-only journal.
type EntryStore interface {
	// Append persists a posted entry. Ids are assigned by the ledger and must
	// be stored as given.
	Append(ctx context.Context, entry *domain.JournalEntry) error
	// LoadAll returns every entry in id order.
	LoadAll(ctx context.Context) ([]*domain.JournalEntry, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// EntryObserver is notified of every entry the ledger accepts. Apply runs
// while the ledger holds its write lock.
type EntryObserver interface {
	Apply(entry *domain.JournalEntry)
	Reset(entries []*domain.JournalEntry)
}

// ChartObserver is notified after the chart of accounts changes.
type ChartObserver interface {
	ChartChanged(ctx context.Context)
}

// EntryPoster appends validated entries. *Ledger satisfies it.
type EntryPoster interface {
	Post(ctx context.Context, proposed domain.ProposedEntry) (*domain.JournalEntry, error)
}

// AccountResolver looks up a single account by code. AccountRepository
// satisfies it.
type AccountResolver interface {
	GetByCode(ctx context.Context, code string) (*domain.Account, error)
}

// PostingGuard gives the chart of accounts a window in which no entry can be
// posted, so a posting check and a delete happen atomically.
type PostingGuard interface {
	WithPostingsFrozen(ctx context.Context, fn func(hasPostings func(code string) bool) error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim so the request can be retried.
	Release(ctx context.Context, key string) error
}

// IdempotencyInProgress is stored under a claimed key until the response
// is known.
const IdempotencyInProgress = "processing"

// Metrics records ledger activity. Implementations must be safe for
// concurrent use.
type Metrics interface {
	EntryPosted(lines int, duration time.Duration)
	EntryRejected(reason string)
	AccountChanged(operation string)
	BalancesRebuilt(reason string)
	BalanceDrift(accounts int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) EntryPosted(int, time.Duration) {}
func (NopMetrics) EntryRejected(string)           {}
func (NopMetrics) AccountChanged(string)          {}
func (NopMetrics) BalancesRebuilt(string)         {}
func (NopMetrics) BalanceDrift(int)               {}
