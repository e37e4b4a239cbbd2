package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")
)

// EntryFilter selects journal entries. Zero values disable a condition; date
// bounds are inclusive.
type EntryFilter struct {
	AccountCode string
	From        time.Time
	To          time.Time
}

func (f EntryFilter) match(e *domain.JournalEntry) bool {
	if !f.From.IsZero() && e.Date.Before(domain.NormalizeDate(f.From)) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(domain.NormalizeDate(f.To)) {
		return false
	}
	if f.AccountCode != "" && !e.Touches(f.AccountCode) {
		return false
	}
	return true
}

// Ledger is the append-only journal. Posting is serialized by a single write
// lock; reads run concurrently against snapshots.
type Ledger struct {
	mu        sync.RWMutex
	entries   []*domain.JournalEntry
	byID      map[int64]int
	byAccount map[string][]int
	sources   map[string]int64
	lastID    int64

	store     EntryStore
	validator *EntryValidator
	observers []EntryObserver
	events    *eventRecorder
	metrics   Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// NewLedger creates an empty ledger. Call Load before serving requests when
// the store may already hold entries.
func NewLedger(store EntryStore, validator *EntryValidator, logger zerolog.Logger) *Ledger {
	return &Ledger{
		byID:      make(map[int64]int),
		byAccount: make(map[string][]int),
		sources:   make(map[string]int64),
		store:     store,
		validator: validator,
		metrics:   NopMetrics{},
		logger:    logger.With().Str("component", "ledger").Logger(),
		now:       time.Now,
	}
}

// Observe registers o to receive every accepted entry.
func (l *Ledger) Observe(o EntryObserver) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
	return l
}

// WithOutbox makes the ledger record entry.posted events.
func (l *Ledger) WithOutbox(outbox OutboxRepository, idGen IDGenerator) *Ledger {
	l.events = &eventRecorder{outbox: outbox, idGen: idGen, logger: l.logger}
	return l
}

// WithMetrics sets the metrics sink.
func (l *Ledger) WithMetrics(m Metrics) *Ledger {
	if m != nil {
		l.metrics = m
	}
	return l
}

// Load replaces the in-memory journal with the store's contents and resets
// every observer.
func (l *Ledger) Load(ctx context.Context) error {
	stored, err := l.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load journal: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	l.byID = make(map[int64]int, len(stored))
	l.byAccount = make(map[string][]int)
	l.sources = make(map[string]int64)
	l.lastID = 0

	for _, e := range stored {
		if e.ID <= l.lastID {
			return fmt.Errorf("%w: entry id %d is not above %d", domain.ErrInvariantViolation, e.ID, l.lastID)
		}
		if debit, credit := e.Totals(); !domain.WithinTolerance(debit, credit) {
			return fmt.Errorf("%w: stored entry %d is unbalanced", domain.ErrInvariantViolation, e.ID)
		}
		l.index(e)
	}

	for _, o := range l.observers {
		o.Reset(l.entries)
	}

	l.logger.Info().Int("entries", len(l.entries)).Int64("last_id", l.lastID).Msg("journal loaded")
	return nil
}

// Post validates and appends an entry. A rejected entry leaves the ledger
// and every observer untouched.
func (l *Ledger) Post(ctx context.Context, proposed domain.ProposedEntry) (*domain.JournalEntry, error) {
	start := time.Now()

	entry, err := l.post(ctx, proposed)
	if err != nil {
		reason := rejectReason(err)
		l.metrics.EntryRejected(reason)
		l.logger.Debug().Err(err).Str("reason", reason).Str("reference", proposed.Reference).Msg("entry rejected")
		return nil, err
	}

	l.metrics.EntryPosted(len(entry.Lines), time.Since(start))
	l.events.record(ctx, domain.AggregateTypeEntry, strconv.FormatInt(entry.ID, 10), domain.EventTypeEntryPosted, entryPayload(entry))
	l.logger.Info().Int64("entry_id", entry.ID).Str("reference", entry.Reference).Msg("entry posted")

	return entry.Clone(), nil
}

func (l *Ledger) post(ctx context.Context, proposed domain.ProposedEntry) (*domain.JournalEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := l.validator.Validate(ctx, proposed); err != nil {
		return nil, err
	}

	if proposed.SourceID != "" {
		if id, ok := l.sources[proposed.SourceID]; ok {
			return nil, fmt.Errorf("%w: %s was posted as entry %d", domain.ErrDuplicateSource, proposed.SourceID, id)
		}
	}

	entry := domain.NewJournalEntry(l.lastID+1, proposed, l.now().UTC())

	storeCtx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	if err := l.store.Append(storeCtx, entry); err != nil {
		return nil, fmt.Errorf("append entry: %w", err)
	}

	l.index(entry)
	for _, o := range l.observers {
		o.Apply(entry)
	}

	return entry, nil
}

// index must be called with the write lock held.
func (l *Ledger) index(e *domain.JournalEntry) {
	pos := len(l.entries)
	l.entries = append(l.entries, e)
	l.byID[e.ID] = pos

	seen := make(map[string]bool, len(e.Lines))
	for _, line := range e.Lines {
		if seen[line.AccountCode] {
			continue
		}
		seen[line.AccountCode] = true
		l.byAccount[line.AccountCode] = append(l.byAccount[line.AccountCode], pos)
	}

	if e.SourceID != "" {
		l.sources[e.SourceID] = e.ID
	}
	l.lastID = e.ID
}

// Reverse posts an entry that offsets entry id. Each entry can be reversed
// once; a second attempt fails with domain.ErrDuplicateSource.
func (l *Ledger) Reverse(ctx context.Context, id int64, date time.Time, description string) (*domain.JournalEntry, error) {
	original, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if date.IsZero() {
		date = l.now()
	}
	if description == "" {
		description = fmt.Sprintf("Reversal of entry %d", id)
	}

	lines := make([]domain.Line, len(original.Lines))
	for i, line := range original.Lines {
		lines[i] = domain.Line{
			AccountCode: line.AccountCode,
			Debit:       line.Credit,
			Credit:      line.Debit,
			Description: line.Description,
		}
	}

	return l.Post(ctx, domain.ProposedEntry{
		Date:        date,
		Reference:   ReversalReferencePrefix + strconv.FormatInt(id, 10),
		Description: description,
		SourceID:    "reversal:" + strconv.FormatInt(id, 10),
		Lines:       lines,
	})
}

// Query returns the entries matching f ordered by date, then by posting
// order. The snapshot is taken when iteration starts.
func (l *Ledger) Query(ctx context.Context, f EntryFilter) iter.Seq[*domain.JournalEntry] {
	return func(yield func(*domain.JournalEntry) bool) {
		for _, e := range l.selectEntries(f) {
			if ctx.Err() != nil {
				return
			}
			if !yield(e.Clone()) {
				return
			}
		}
	}
}

// List collects Query into a slice.
func (l *Ledger) List(ctx context.Context, f EntryFilter) []*domain.JournalEntry {
	return slices.Collect(l.Query(ctx, f))
}

func (l *Ledger) selectEntries(f EntryFilter) []*domain.JournalEntry {
	l.mu.RLock()
	var selected []*domain.JournalEntry
	if f.AccountCode != "" {
		for _, pos := range l.byAccount[f.AccountCode] {
			if e := l.entries[pos]; f.match(e) {
				selected = append(selected, e)
			}
		}
	} else {
		for _, e := range l.entries {
			if f.match(e) {
				selected = append(selected, e)
			}
		}
	}
	l.mu.RUnlock()

	// entries are kept in id order, so a stable sort by date breaks ties by id
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Date.Before(selected[j].Date)
	})
	return selected
}

// Get returns a copy of entry id.
func (l *Ledger) Get(_ context.Context, id int64) (*domain.JournalEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, ok := l.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrEntryNotFound, id)
	}
	return l.entries[pos].Clone(), nil
}

// Count returns the number of posted entries.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// LastID returns the id of the most recent entry, or 0.
func (l *Ledger) LastID() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastID
}

// Snapshot returns every entry in id order. The entries are shared with the
// ledger and must not be modified.
func (l *Ledger) Snapshot() []*domain.JournalEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*domain.JournalEntry(nil), l.entries...)
}

// Replay hands the whole journal to fn while posting is blocked, so fn sees
// a state no concurrent Post can interleave with.
func (l *Ledger) Replay(fn func(entries []*domain.JournalEntry)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn(l.entries)
}

// HasPostings reports whether any entry posts to code.
func (l *Ledger) HasPostings(code string) bool {
	return l.PostingCount(code) > 0
}

// PostingCount returns the number of entries that post to code.
func (l *Ledger) PostingCount(code string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byAccount[code])
}

// WithPostingsFrozen runs fn while no entry can be posted.
func (l *Ledger) WithPostingsFrozen(ctx context.Context, fn func(hasPostings func(code string) bool) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(func(code string) bool {
		return len(l.byAccount[code]) > 0
	})
}

// CheckConsistency verifies that every entry and the journal as a whole is
// balanced.
func (l *Ledger) CheckConsistency(ctx context.Context) (bool, error) {
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, e := range l.Snapshot() {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		debit, credit := e.Totals()
		if !domain.WithinTolerance(debit, credit) {
			return false, fmt.Errorf("%w: entry %d", ErrInconsistentLedger, e.ID)
		}
		totalDebit = totalDebit.Add(debit)
		totalCredit = totalCredit.Add(credit)
	}

	// each entry may be off by the tolerance, so the sums are only checked
	// for sign-level corruption against the per-entry bound
	limit := domain.BalanceTolerance.Mul(decimal.NewFromInt(int64(l.Count()) + 1))
	if totalDebit.Sub(totalCredit).Abs().GreaterThan(limit) {
		return false, ErrInconsistentLedger
	}

	return true, nil
}

func entryPayload(e *domain.JournalEntry) map[string]any {
	debit, _ := e.Totals()
	return map[string]any{
		"entry_id":  e.ID,
		"date":      e.Date.Format(time.DateOnly),
		"reference": e.Reference,
		"source_id": e.SourceID,
		"total":     debit.StringFixed(domain.AmountPrecision),
		"lines":     len(e.Lines),
	}
}

func rejectReason(err error) string {
	var verr *domain.EntryValidationError
	if errors.As(err, &verr) && len(verr.Problems) > 0 {
		err = verr.Problems[0]
	}

	switch {
	case errors.Is(err, domain.ErrUnbalanced):
		return "unbalanced"
	case errors.Is(err, domain.ErrUnknownAccount):
		return "unknown_account"
	case errors.Is(err, domain.ErrInactiveAccount):
		return "inactive_account"
	case errors.Is(err, domain.ErrInvalidLine):
		return "invalid_line"
	case errors.Is(err, domain.ErrTooFewLines):
		return "too_few_lines"
	case errors.Is(err, domain.ErrMissingDate):
		return "missing_date"
	case errors.Is(err, domain.ErrDuplicateSource):
		return "duplicate_source"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "store"
	}
}
