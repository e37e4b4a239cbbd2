package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccountType_SignedBalance(t *testing.T) {
	tests := []struct {
		name     string
		typ      AccountType
		debit    decimal.Decimal
		credit   decimal.Decimal
		expected decimal.Decimal
	}{
		{
			name:     "asset is debit minus credit",
			typ:      AccountTypeAsset,
			debit:    decimal.NewFromInt(1190),
			credit:   decimal.NewFromInt(190),
			expected: decimal.NewFromInt(1000),
		},
		{
			name:     "expense is debit minus credit",
			typ:      AccountTypeExpense,
			debit:    decimal.NewFromInt(50),
			credit:   decimal.Zero,
			expected: decimal.NewFromInt(50),
		},
		{
			name:     "liability is credit minus debit",
			typ:      AccountTypeLiability,
			debit:    decimal.NewFromInt(100),
			credit:   decimal.NewFromInt(190),
			expected: decimal.NewFromInt(90),
		},
		{
			name:     "revenue is credit minus debit",
			typ:      AccountTypeRevenue,
			debit:    decimal.Zero,
			credit:   decimal.NewFromInt(1000),
			expected: decimal.NewFromInt(1000),
		},
		{
			name:     "equity can go negative",
			typ:      AccountTypeEquity,
			debit:    decimal.NewFromInt(10),
			credit:   decimal.Zero,
			expected: decimal.NewFromInt(-10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.typ.SignedBalance(tt.debit, tt.credit)
			if !got.Equal(tt.expected) {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestAccountType_AllowsCategory(t *testing.T) {
	tests := []struct {
		typ      AccountType
		category AccountCategory
		allowed  bool
	}{
		{AccountTypeAsset, CategoryCurrent, true},
		{AccountTypeAsset, CategoryFixed, true},
		{AccountTypeAsset, CategoryLongTerm, false},
		{AccountTypeLiability, CategoryLongTerm, true},
		{AccountTypeLiability, CategoryFixed, false},
		{AccountTypeRevenue, CategoryOther, true},
		{AccountTypeRevenue, CategoryCurrent, false},
		{AccountType("income"), CategoryOther, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+string(tt.category), func(t *testing.T) {
			if got := tt.typ.AllowsCategory(tt.category); got != tt.allowed {
				t.Errorf("expected %v, got %v", tt.allowed, got)
			}
		})
	}
}

func TestAccount_Postable(t *testing.T) {
	var nilAccount *Account
	if nilAccount.Postable() {
		t.Error("nil account must not be postable")
	}

	acc := &Account{Code: "1101", Active: true}
	if !acc.Postable() {
		t.Error("active account must be postable")
	}

	clone := acc.Clone()
	clone.Active = false
	if !acc.Postable() {
		t.Error("clone must not share state with the original")
	}
}

func TestDefaultChart(t *testing.T) {
	seen := make(map[string]bool)
	for _, acc := range DefaultChart() {
		if err := ValidateAccountCode(acc.Code); err != nil {
			t.Errorf("account %s: %v", acc.Code, err)
		}
		if err := ValidateAccountClass(acc.Type, acc.Category); err != nil {
			t.Errorf("account %s: %v", acc.Code, err)
		}
		if seen[acc.Code] {
			t.Errorf("duplicate code %s", acc.Code)
		}
		seen[acc.Code] = true
	}
}
