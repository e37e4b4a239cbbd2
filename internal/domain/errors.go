package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Account errors
	ErrAccountNotFound        = errors.New("account not found")
	ErrDuplicateAccountCode   = errors.New("account code already exists")
	ErrInvalidAccountCode     = errors.New("invalid account code")
	ErrInvalidAccountType     = errors.New("invalid account type")
	ErrInvalidAccountCategory = errors.New("invalid account category")
	ErrAccountTypeImmutable   = errors.New("account type cannot change")

	// Entry errors
	ErrEntryNotFound   = errors.New("journal entry not found")
	ErrUnbalanced      = errors.New("entry is unbalanced")
	ErrUnknownAccount  = errors.New("unknown account")
	ErrInactiveAccount = errors.New("inactive account")
	ErrTooFewLines     = errors.New("entry needs at least two lines")
	ErrInvalidLine     = errors.New("invalid entry line")
	ErrMissingDate     = errors.New("entry date is required")
	ErrDuplicateSource = errors.New("source already posted")
	ErrInvalidPeriod   = errors.New("period start is after period end")

	// Ledger errors
	ErrInvariantViolation = errors.New("ledger invariant violated")
)

// UnbalancedError reports the totals of an entry whose sides differ by more
// than BalanceTolerance.
type UnbalancedError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("entry is unbalanced: debit %s, credit %s", e.Debit.StringFixed(AmountPrecision), e.Credit.StringFixed(AmountPrecision))
}

func (e *UnbalancedError) Unwrap() error { return ErrUnbalanced }

// AccountError ties an account problem (ErrUnknownAccount, ErrInactiveAccount)
// to the offending code.
type AccountError struct {
	Code string
	Err  error
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Code)
}

func (e *AccountError) Unwrap() error { return e.Err }

// LineError reports a malformed line by its position in the entry.
type LineError struct {
	Index       int
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Reason      string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Index+1, e.Reason)
}

func (e *LineError) Unwrap() error { return ErrInvalidLine }

// EntryValidationError collects every problem found in a proposed entry.
type EntryValidationError struct {
	Problems []error
}

func (e *EntryValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return "invalid journal entry: " + strings.Join(msgs, "; ")
}

func (e *EntryValidationError) Unwrap() []error { return e.Problems }

// DriftError is returned when incrementally maintained balances disagree with
// a fresh fold over the journal.
type DriftError struct {
	Accounts []string
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("%v: balances drifted for accounts %s", ErrInvariantViolation, strings.Join(e.Accounts, ", "))
}

func (e *DriftError) Unwrap() error { return ErrInvariantViolation }

var validationErrors = []error{
	ErrUnbalanced,
	ErrUnknownAccount,
	ErrInactiveAccount,
	ErrTooFewLines,
	ErrInvalidLine,
	ErrMissingDate,
	ErrInvalidAccountCode,
	ErrInvalidAccountType,
	ErrInvalidAccountCategory,
	ErrInvalidAccountName,
	ErrAccountTypeImmutable,
	ErrInvalidPeriod,
}

// IsValidation reports whether err is caused by caller input.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err refers to a missing account or entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrEntryNotFound)
}
