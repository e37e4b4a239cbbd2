package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

// sourceIDConstraint is the UNIQUE constraint on journal_entries.source_id.
const sourceIDConstraint = "journal_entries_source_id_key"

// EntryStore implements usecase.EntryStore over journal_entries and
// journal_lines. An entry and its lines are written in one transaction.
type EntryStore struct {
	pool pgxPool
	txm  *TxManager
}

// NewEntryStore creates a new EntryStore.
func NewEntryStore(pool *pgxpool.Pool, txm *TxManager) *EntryStore {
	return &EntryStore{pool: pool, txm: txm}
}

func newEntryStoreWithPool(pool pgxPool, txm *TxManager) *EntryStore {
	return &EntryStore{pool: pool, txm: txm}
}

// Append inserts entry and its lines.
func (s *EntryStore) Append(ctx context.Context, entry *domain.JournalEntry) error {
	err := s.txm.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO journal_entries (id, entry_date, reference, description, source_id, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			entry.ID,
			pgtype.Date{Time: entry.Date, Valid: true},
			entry.Reference,
			entry.Description,
			nullableText(entry.SourceID),
			timeToPgTimestamptz(entry.CreatedAt),
		)
		if err != nil {
			return err
		}

		for i, l := range entry.Lines {
			_, err := tx.Exec(ctx,
				`INSERT INTO journal_lines (entry_id, line_no, account_code, debit, credit, description)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				entry.ID,
				i,
				l.AccountCode,
				decimalToNumeric(l.Debit),
				decimalToNumeric(l.Credit),
				l.Description,
			)
			if err != nil {
				return fmt.Errorf("line %d: %w", i, err)
			}
		}
		return nil
	})
	if hasCode(err, pgErrUniqueViolation) {
		if violatedConstraint(err) == sourceIDConstraint {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateSource, entry.SourceID)
		}
		return fmt.Errorf("%w: %d", usecase.ErrEntryExists, entry.ID)
	}
	return err
}

// LoadAll returns every entry in id order.
func (s *EntryStore) LoadAll(ctx context.Context) ([]*domain.JournalEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, entry_date, reference, description, source_id, created_at
		 FROM journal_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	var entries []*domain.JournalEntry
	byID := make(map[int64]*domain.JournalEntry)
	for rows.Next() {
		var (
			e         domain.JournalEntry
			date      pgtype.Date
			sourceID  pgtype.Text
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&e.ID, &date, &e.Reference, &e.Description, &sourceID, &createdAt); err != nil {
			rows.Close()
			return nil, err
		}
		e.Date = domain.NormalizeDate(date.Time)
		e.SourceID = sourceID.String
		e.CreatedAt = createdAt.Time
		entries = append(entries, &e)
		byID[e.ID] = &e
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := s.pool.Query(ctx,
		`SELECT entry_id, account_code, debit, credit, description
		 FROM journal_lines ORDER BY entry_id, line_no`)
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	defer lines.Close()

	for lines.Next() {
		var (
			entryID       int64
			l             domain.Line
			debit, credit pgtype.Numeric
		)
		if err := lines.Scan(&entryID, &l.AccountCode, &debit, &credit, &l.Description); err != nil {
			return nil, err
		}
		e, ok := byID[entryID]
		if !ok {
			return nil, fmt.Errorf("line for missing entry %d: %w", entryID, domain.ErrInvariantViolation)
		}
		l.Debit = numericToDecimal(debit)
		l.Credit = numericToDecimal(credit)
		e.Lines = append(e.Lines, l)
	}

	return entries, lines.Err()
}
