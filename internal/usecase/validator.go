package usecase

import (
	"context"
	"errors"

	"github.com/iho/gobooks/internal/domain"
)

// EntryValidator checks a proposed entry against the chart of accounts and
// the double-entry rules. It reports every problem it finds, not only the
// first.
type EntryValidator struct {
	accounts AccountResolver
}

// NewEntryValidator creates a validator that resolves accounts through r.
func NewEntryValidator(r AccountResolver) *EntryValidator {
	return &EntryValidator{accounts: r}
}

// Validate returns nil or a *domain.EntryValidationError.
func (v *EntryValidator) Validate(ctx context.Context, entry domain.ProposedEntry) error {
	var problems []error

	if entry.Date.IsZero() {
		problems = append(problems, domain.ErrMissingDate)
	}
	if len(entry.Lines) < 2 {
		problems = append(problems, domain.ErrTooFewLines)
	}

	checked := make(map[string]bool, len(entry.Lines))
	for i, line := range entry.Lines {
		if reason := domain.ValidateLine(line); reason != "" {
			problems = append(problems, &domain.LineError{
				Index:       i,
				AccountCode: line.AccountCode,
				Debit:       line.Debit,
				Credit:      line.Credit,
				Reason:      reason,
			})
		}

		if checked[line.AccountCode] {
			continue
		}
		checked[line.AccountCode] = true

		problem, err := v.checkAccount(ctx, line.AccountCode)
		if err != nil {
			return err
		}
		if problem != nil {
			problems = append(problems, problem)
		}
	}

	debit, credit := entry.Totals()
	if !domain.WithinTolerance(debit, credit) {
		problems = append(problems, &domain.UnbalancedError{Debit: debit, Credit: credit})
	}

	if len(problems) > 0 {
		return &domain.EntryValidationError{Problems: problems}
	}
	return nil
}

// checkAccount returns an account problem, or a non-nil error when the
// lookup itself failed.
func (v *EntryValidator) checkAccount(ctx context.Context, code string) (error, error) {
	account, err := v.accounts.GetByCode(ctx, code)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return &domain.AccountError{Code: code, Err: domain.ErrUnknownAccount}, nil
	case err != nil:
		return nil, err
	case !account.Postable():
		return &domain.AccountError{Code: code, Err: domain.ErrInactiveAccount}, nil
	}
	return nil, nil
}
