// Package bolt stores the chart of accounts and the journal in a single
// bbolt file, for deployments without PostgreSQL.
package bolt

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	bbolt "go.etcd.io/bbolt"

	"github.com/iho/gobooks/internal/domain"
)

// Bucket names.
const (
	BucketAccounts = "accounts"
	BucketEntries  = "entries"
)

// DB wraps the bbolt database.
type DB struct {
	db *bbolt.DB
}

// Open opens or creates the database file at path and initializes buckets.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{BucketAccounts, BucketEntries} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// itob encodes an id as a big-endian key so keys sort numerically.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

type accountRecord struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	ParentCode  string    `json:"parent_code,omitempty"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAccountRecord(a *domain.Account) accountRecord {
	return accountRecord{
		Code:        a.Code,
		Name:        a.Name,
		Type:        string(a.Type),
		Category:    string(a.Category),
		ParentCode:  a.ParentCode,
		Description: a.Description,
		Active:      a.Active,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (r accountRecord) toDomain() *domain.Account {
	return &domain.Account{
		Code:        r.Code,
		Name:        r.Name,
		Type:        domain.AccountType(r.Type),
		Category:    domain.AccountCategory(r.Category),
		ParentCode:  r.ParentCode,
		Description: r.Description,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type lineRecord struct {
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

type entryRecord struct {
	ID          int64        `json:"id"`
	Date        time.Time    `json:"date"`
	Reference   string       `json:"reference,omitempty"`
	Description string       `json:"description,omitempty"`
	SourceID    string       `json:"source_id,omitempty"`
	Lines       []lineRecord `json:"lines"`
	CreatedAt   time.Time    `json:"created_at"`
}

func toEntryRecord(e *domain.JournalEntry) entryRecord {
	lines := make([]lineRecord, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = lineRecord{AccountCode: l.AccountCode, Debit: l.Debit, Credit: l.Credit, Description: l.Description}
	}
	return entryRecord{
		ID:          e.ID,
		Date:        e.Date,
		Reference:   e.Reference,
		Description: e.Description,
		SourceID:    e.SourceID,
		Lines:       lines,
		CreatedAt:   e.CreatedAt,
	}
}

func (r entryRecord) toDomain() *domain.JournalEntry {
	lines := make([]domain.Line, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = domain.Line{AccountCode: l.AccountCode, Debit: l.Debit, Credit: l.Credit, Description: l.Description}
	}
	return &domain.JournalEntry{
		ID:          r.ID,
		Date:        r.Date,
		Reference:   r.Reference,
		Description: r.Description,
		SourceID:    r.SourceID,
		Lines:       lines,
		CreatedAt:   r.CreatedAt,
	}
}
