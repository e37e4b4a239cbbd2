package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportLine is one account row in a financial statement.
type ReportLine struct {
	Code    string
	Name    string
	Balance decimal.Decimal
}

// ReportSection groups rows under a heading with their total.
type ReportSection struct {
	Lines []ReportLine
	Total decimal.Decimal
}

// Add appends a row and updates the total.
func (s *ReportSection) Add(l ReportLine) {
	s.Lines = append(s.Lines, l)
	s.Total = s.Total.Add(l.Balance)
}

// AssetSections splits assets by category.
type AssetSections struct {
	Current ReportSection
	Fixed   ReportSection
	Other   ReportSection
	Total   decimal.Decimal
}

// LiabilitySections splits liabilities by category.
type LiabilitySections struct {
	Current  ReportSection
	LongTerm ReportSection
	Other    ReportSection
	Total    decimal.Decimal
}

// BalanceSheet is the position of every touched balance sheet account.
// CurrentEarnings is revenue minus expense to date, which has not been closed
// into equity by an entry.
type BalanceSheet struct {
	AsOf                      time.Time
	Assets                    AssetSections
	Liabilities               LiabilitySections
	Equity                    ReportSection
	CurrentEarnings           decimal.Decimal
	TotalLiabilitiesAndEquity decimal.Decimal
	Balanced                  bool
}

// IncomeStatement covers the entries dated inside [From, To].
type IncomeStatement struct {
	From        time.Time
	To          time.Time
	Revenues    ReportSection
	Costs       ReportSection
	Expenses    ReportSection
	GrossProfit decimal.Decimal
	NetIncome   decimal.Decimal
}

// TrialBalanceLine holds the raw totals of one account.
type TrialBalanceLine struct {
	Code    string
	Name    string
	Type    AccountType
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.Decimal
}

// TrialBalance lists raw debit and credit totals per touched account.
type TrialBalance struct {
	Lines       []TrialBalanceLine
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balanced    bool
}
