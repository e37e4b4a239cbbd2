package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the accounting class of an account.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// AccountCategory is the presentation grouping inside an account type.
type AccountCategory string

const (
	CategoryCurrent  AccountCategory = "current"
	CategoryFixed    AccountCategory = "fixed"
	CategoryLongTerm AccountCategory = "long_term"
	CategoryOther    AccountCategory = "other"
)

// Side is the side of a journal line.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// AccountTypes lists every account type in statement order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalSide returns the side that increases an account of this type.
func (t AccountType) NormalSide() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// SignedBalance converts raw debit and credit totals into a balance using the
// type's normal side.
func (t AccountType) SignedBalance(debit, credit decimal.Decimal) decimal.Decimal {
	if t.NormalSide() == SideDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// AllowsCategory reports whether c may be used with an account of type t.
func (t AccountType) AllowsCategory(c AccountCategory) bool {
	switch t {
	case AccountTypeAsset:
		return c == CategoryCurrent || c == CategoryFixed || c == CategoryOther
	case AccountTypeLiability:
		return c == CategoryCurrent || c == CategoryLongTerm || c == CategoryOther
	case AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return c == CategoryOther
	}
	return false
}

// DefaultCategory is used when an account is created without a category.
// Asset and liability accounts have no default.
func (t AccountType) DefaultCategory() (AccountCategory, bool) {
	switch t {
	case AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return CategoryOther, true
	}
	return "", false
}

// Account is an entry in the chart of accounts. Balances are never stored on
// the account; they are derived from posted journal entries.
type Account struct {
	Code        string
	Name        string
	Type        AccountType
	Category    AccountCategory
	ParentCode  string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Postable reports whether journal lines may reference the account.
func (a *Account) Postable() bool {
	return a != nil && a.Active
}

// Clone returns a copy that does not share state with a.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
