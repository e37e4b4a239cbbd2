package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	bbolt "go.etcd.io/bbolt"

	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository on bbolt. Accounts
// are keyed by code, so a cursor walk returns them sorted.
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create stores a new account.
func (r *AccountRepository) Create(_ context.Context, account *domain.Account) error {
	return r.db.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketAccounts))
		if b.Get([]byte(account.Code)) != nil {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountCode, account.Code)
		}
		return putAccount(b, account)
	})
}

// GetByCode returns the account with the given code.
func (r *AccountRepository) GetByCode(_ context.Context, code string) (*domain.Account, error) {
	var account *domain.Account
	err := r.db.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(BucketAccounts)).Get([]byte(code))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, code)
		}
		var rec accountRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to decode account %s: %w", code, err)
		}
		account = rec.toDomain()
		return nil
	})
	return account, err
}

// Update replaces a stored account.
func (r *AccountRepository) Update(_ context.Context, account *domain.Account) error {
	return r.db.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketAccounts))
		if b.Get([]byte(account.Code)) == nil {
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, account.Code)
		}
		return putAccount(b, account)
	})
}

// Delete removes an account.
func (r *AccountRepository) Delete(_ context.Context, code string) error {
	return r.db.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketAccounts))
		if b.Get([]byte(code)) == nil {
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, code)
		}
		return b.Delete([]byte(code))
	})
}

// List returns the accounts matching filter ordered by code.
func (r *AccountRepository) List(_ context.Context, filter usecase.AccountFilter) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := r.db.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(BucketAccounts)).ForEach(func(k, v []byte) error {
			var rec accountRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode account %s: %w", k, err)
			}
			if filter.Type != "" && domain.AccountType(rec.Type) != filter.Type {
				return nil
			}
			if filter.ActiveOnly && !rec.Active {
				return nil
			}
			accounts = append(accounts, rec.toDomain())
			return nil
		})
	})
	return accounts, err
}

func putAccount(b *bbolt.Bucket, account *domain.Account) error {
	data, err := json.Marshal(toAccountRecord(account))
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	return b.Put([]byte(account.Code), data)
}
