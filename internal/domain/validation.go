package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountName = errors.New("invalid account name")
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MinAccountNameLength = 1
	MaxReferenceLength   = 64
	AccountCodeLength    = 4
)

var accountCodeRegex = regexp.MustCompile(`^[0-9]{4}$`)

// ValidateAccountCode checks the fixed four digit code format.
func ValidateAccountCode(code string) error {
	if !accountCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: %q must be exactly %d digits", ErrInvalidAccountCode, code, AccountCodeLength)
	}
	return nil
}

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateAccountClass checks type and category together.
func ValidateAccountClass(t AccountType, c AccountCategory) error {
	if !t.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidAccountType, t)
	}
	if !t.AllowsCategory(c) {
		return fmt.Errorf("%w: %q is not allowed for %s accounts", ErrInvalidAccountCategory, c, t)
	}
	return nil
}

// ValidateLine checks the amount rules of a single line: no negatives,
// exactly one side set, at most two decimals. It returns the reason or "".
func ValidateLine(l Line) string {
	switch {
	case l.Debit.IsNegative() || l.Credit.IsNegative():
		return "amounts cannot be negative"
	case l.Debit.IsZero() && l.Credit.IsZero():
		return "either debit or credit must be set"
	case !l.Debit.IsZero() && !l.Credit.IsZero():
		return "debit and credit cannot both be set"
	case !hasPrecision(l.Debit) || !hasPrecision(l.Credit):
		return fmt.Sprintf("amounts cannot have more than %d decimal places", AmountPrecision)
	}
	return ""
}

// WithinTolerance reports whether debit and credit differ by at most
// BalanceTolerance.
func WithinTolerance(debit, credit decimal.Decimal) bool {
	return debit.Sub(credit).Abs().LessThanOrEqual(BalanceTolerance)
}

func hasPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(AmountPrecision))
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
