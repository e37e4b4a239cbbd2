// Package memory holds process-local implementations of the repositories,
// used by the default storage driver and by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository with a map keyed by
// account code.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewAccountRepository creates an empty repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]*domain.Account)}
}

// Create stores a new account.
func (r *AccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.Code]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountCode, account.Code)
	}
	r.accounts[account.Code] = account.Clone()
	return nil
}

// GetByCode returns a copy of the account.
func (r *AccountRepository) GetByCode(_ context.Context, code string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, code)
	}
	return account.Clone(), nil
}

// Update replaces a stored account.
func (r *AccountRepository) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.Code]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, account.Code)
	}
	r.accounts[account.Code] = account.Clone()
	return nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[code]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, code)
	}
	delete(r.accounts, code)
	return nil
}

// List returns the accounts matching filter sorted by code.
func (r *AccountRepository) List(_ context.Context, filter usecase.AccountFilter) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.ActiveOnly && !a.Active {
			continue
		}
		result = append(result, a.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}
