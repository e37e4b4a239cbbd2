package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobooks/internal/domain"
)

// ChartOfAccounts is the registry of accounts that journal lines may post to.
type ChartOfAccounts struct {
	repo      AccountRepository
	guard     PostingGuard
	events    *eventRecorder
	observers []ChartObserver
	metrics   Metrics
	logger    zerolog.Logger
}

// NewChartOfAccounts creates a registry. guard is normally the Ledger.
func NewChartOfAccounts(repo AccountRepository, guard PostingGuard, logger zerolog.Logger) *ChartOfAccounts {
	return &ChartOfAccounts{
		repo:    repo,
		guard:   guard,
		metrics: NopMetrics{},
		logger:  logger.With().Str("component", "chart").Logger(),
	}
}

// WithOutbox makes the registry record account events.
func (uc *ChartOfAccounts) WithOutbox(outbox OutboxRepository, idGen IDGenerator) *ChartOfAccounts {
	uc.events = &eventRecorder{outbox: outbox, idGen: idGen, logger: uc.logger}
	return uc
}

// Observe registers o to be told about every chart change.
func (uc *ChartOfAccounts) Observe(o ChartObserver) *ChartOfAccounts {
	uc.observers = append(uc.observers, o)
	return uc
}

func (uc *ChartOfAccounts) changed(ctx context.Context) {
	for _, o := range uc.observers {
		o.ChartChanged(ctx)
	}
}

// WithMetrics sets the metrics sink.
func (uc *ChartOfAccounts) WithMetrics(m Metrics) *ChartOfAccounts {
	if m != nil {
		uc.metrics = m
	}
	return uc
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Code        string
	Name        string
	Type        domain.AccountType
	Category    domain.AccountCategory
	ParentCode  string
	Description string
}

// CreateAccount adds an active account to the chart.
func (uc *ChartOfAccounts) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	code := strings.TrimSpace(input.Code)
	if err := domain.ValidateAccountCode(code); err != nil {
		return nil, err
	}
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	category := input.Category
	if category == "" {
		if def, ok := input.Type.DefaultCategory(); ok {
			category = def
		}
	}
	if err := domain.ValidateAccountClass(input.Type, category); err != nil {
		return nil, err
	}

	if err := uc.checkParent(ctx, code, input.ParentCode); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Code:        code,
		Name:        strings.TrimSpace(input.Name),
		Type:        input.Type,
		Category:    category,
		ParentCode:  input.ParentCode,
		Description: input.Description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	uc.changed(ctx)
	uc.metrics.AccountChanged("create")
	uc.events.record(ctx, domain.AggregateTypeAccount, account.Code, domain.EventTypeAccountCreated, accountPayload(account))
	uc.logger.Info().Str("code", account.Code).Str("type", string(account.Type)).Msg("account created")

	return account, nil
}

// UpdateAccountInput holds the mutable account fields; nil leaves a field as is.
type UpdateAccountInput struct {
	Name        *string
	Category    *domain.AccountCategory
	ParentCode  *string
	Description *string
	Active      *bool
}

// UpdateAccount changes presentation fields and the active flag. Code and
// type are fixed once an account exists.
func (uc *ChartOfAccounts) UpdateAccount(ctx context.Context, code string, input UpdateAccountInput) (*domain.Account, error) {
	current, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	account := current.Clone()

	if input.Name != nil {
		if err := domain.ValidateAccountName(*input.Name); err != nil {
			return nil, err
		}
		account.Name = strings.TrimSpace(*input.Name)
	}
	if input.Category != nil {
		if err := domain.ValidateAccountClass(account.Type, *input.Category); err != nil {
			return nil, err
		}
		account.Category = *input.Category
	}
	if input.ParentCode != nil {
		if err := uc.checkParent(ctx, code, *input.ParentCode); err != nil {
			return nil, err
		}
		account.ParentCode = *input.ParentCode
	}
	if input.Description != nil {
		account.Description = *input.Description
	}
	if input.Active != nil {
		account.Active = *input.Active
	}
	account.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, account); err != nil {
		return nil, err
	}

	uc.changed(ctx)
	uc.metrics.AccountChanged("update")
	if current.Active && !account.Active {
		uc.events.record(ctx, domain.AggregateTypeAccount, account.Code, domain.EventTypeAccountDeactivated, accountPayload(account))
	}

	return account, nil
}

// DeactivateResult tells whether DeactivateOrDelete removed the account.
type DeactivateResult struct {
	Account *domain.Account
	Deleted bool
}

// DeactivateOrDelete removes an account that has never been posted to and
// only deactivates one with postings. Accounts that are the parent of other
// accounts are deactivated as well.
func (uc *ChartOfAccounts) DeactivateOrDelete(ctx context.Context, code string) (*DeactivateResult, error) {
	var result *DeactivateResult

	err := uc.guard.WithPostingsFrozen(ctx, func(hasPostings func(string) bool) error {
		account, err := uc.repo.GetByCode(ctx, code)
		if err != nil {
			return err
		}

		hasChildren, err := uc.hasChildren(ctx, code)
		if err != nil {
			return err
		}

		if !hasPostings(code) && !hasChildren {
			if err := uc.repo.Delete(ctx, code); err != nil {
				return err
			}
			result = &DeactivateResult{Account: account, Deleted: true}
			return nil
		}

		updated := account.Clone()
		updated.Active = false
		updated.UpdatedAt = time.Now().UTC()
		if err := uc.repo.Update(ctx, updated); err != nil {
			return err
		}
		result = &DeactivateResult{Account: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.changed(ctx)
	if result.Deleted {
		uc.metrics.AccountChanged("delete")
		uc.events.record(ctx, domain.AggregateTypeAccount, code, domain.EventTypeAccountDeleted, accountPayload(result.Account))
		uc.logger.Info().Str("code", code).Msg("account deleted")
	} else {
		uc.metrics.AccountChanged("deactivate")
		uc.events.record(ctx, domain.AggregateTypeAccount, code, domain.EventTypeAccountDeactivated, accountPayload(result.Account))
		uc.logger.Info().Str("code", code).Msg("account deactivated")
	}

	return result, nil
}

// GetAccount retrieves an account by code.
func (uc *ChartOfAccounts) GetAccount(ctx context.Context, code string) (*domain.Account, error) {
	return uc.repo.GetByCode(ctx, code)
}

// ListAccounts lists accounts sorted by code.
func (uc *ChartOfAccounts) ListAccounts(ctx context.Context, filter AccountFilter) ([]*domain.Account, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAccountType, filter.Type)
	}
	return uc.repo.List(ctx, filter)
}

// IsPostable reports whether code exists and is active.
func (uc *ChartOfAccounts) IsPostable(ctx context.Context, code string) bool {
	account, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return false
	}
	return account.Postable()
}

// SeedAccounts creates every account whose code is not registered yet and
// returns how many were created. Accounts without a parent go first.
func (uc *ChartOfAccounts) SeedAccounts(ctx context.Context, accounts []domain.Account) (int, error) {
	ordered := append([]domain.Account(nil), accounts...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ParentCode == "" && ordered[j].ParentCode != ""
	})

	created := 0
	for _, acc := range ordered {
		_, err := uc.repo.GetByCode(ctx, acc.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return created, err
		}

		if _, err := uc.CreateAccount(ctx, CreateAccountInput{
			Code:        acc.Code,
			Name:        acc.Name,
			Type:        acc.Type,
			Category:    acc.Category,
			ParentCode:  acc.ParentCode,
			Description: acc.Description,
		}); err != nil {
			return created, fmt.Errorf("seed account %s: %w", acc.Code, err)
		}
		created++
	}

	return created, nil
}

func (uc *ChartOfAccounts) checkParent(ctx context.Context, code, parent string) error {
	if parent == "" {
		return nil
	}
	if err := domain.ValidateAccountCode(parent); err != nil {
		return err
	}
	if parent == code {
		return fmt.Errorf("%w: account cannot be its own parent", domain.ErrInvalidAccountCode)
	}
	if _, err := uc.repo.GetByCode(ctx, parent); err != nil {
		return fmt.Errorf("parent account %s: %w", parent, err)
	}
	return nil
}

func (uc *ChartOfAccounts) hasChildren(ctx context.Context, code string) (bool, error) {
	accounts, err := uc.repo.List(ctx, AccountFilter{})
	if err != nil {
		return false, err
	}
	for _, a := range accounts {
		if a.ParentCode == code {
			return true, nil
		}
	}
	return false, nil
}
