package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/translator"
	"github.com/iho/gobooks/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
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

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
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

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a list of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int                `json:"total"`
}

// DeleteAccountResponse tells whether the account was removed or only
// deactivated.
type DeleteAccountResponse struct {
	Account *AccountResponse `json:"account"`
	Deleted bool             `json:"deleted"`
}

// AccountBalanceResponse is the signed balance of one account.
type AccountBalanceResponse struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Balance string `json:"balance"`
}

// LineResponse represents one entry line.
type LineResponse struct {
	AccountCode string `json:"account_code"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description,omitempty"`
}

// EntryResponse represents a posted journal entry.
type EntryResponse struct {
	ID          int64          `json:"id"`
	Date        string         `json:"date"`
	Reference   string         `json:"reference,omitempty"`
	Description string         `json:"description,omitempty"`
	SourceID    string         `json:"source_id,omitempty"`
	Lines       []LineResponse `json:"lines"`
	TotalDebit  string         `json:"total_debit"`
	TotalCredit string         `json:"total_credit"`
	CreatedAt   time.Time      `json:"created_at"`
}

// EntryFromDomain converts a journal entry to response.
func EntryFromDomain(e *domain.JournalEntry) *EntryResponse {
	lines := make([]LineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = LineResponse{
			AccountCode: l.AccountCode,
			Debit:       Amount(l.Debit),
			Credit:      Amount(l.Credit),
			Description: l.Description,
		}
	}
	debit, credit := e.Totals()

	return &EntryResponse{
		ID:          e.ID,
		Date:        e.Date.Format(DateLayout),
		Reference:   e.Reference,
		Description: e.Description,
		SourceID:    e.SourceID,
		Lines:       lines,
		TotalDebit:  Amount(debit),
		TotalCredit: Amount(credit),
		CreatedAt:   e.CreatedAt,
	}
}

// EntriesFromDomain converts journal entries to responses.
func EntriesFromDomain(entries []*domain.JournalEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse represents a page of journal entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// ReportLineResponse is one row of a statement.
type ReportLineResponse struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

// SectionResponse is a titled group of rows.
type SectionResponse struct {
	Lines []ReportLineResponse `json:"lines"`
	Total string               `json:"total"`
}

func sectionFromDomain(s domain.ReportSection) SectionResponse {
	lines := make([]ReportLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = ReportLineResponse{Code: l.Code, Name: l.Name, Balance: Amount(l.Balance)}
	}
	return SectionResponse{Lines: lines, Total: Amount(s.Total)}
}

// AssetsResponse groups assets by category.
type AssetsResponse struct {
	Current SectionResponse `json:"current"`
	Fixed   SectionResponse `json:"fixed"`
	Other   SectionResponse `json:"other"`
	Total   string          `json:"total"`
}

// LiabilitiesResponse groups liabilities by category.
type LiabilitiesResponse struct {
	Current  SectionResponse `json:"current"`
	LongTerm SectionResponse `json:"long_term"`
	Other    SectionResponse `json:"other"`
	Total    string          `json:"total"`
}

// BalanceSheetResponse represents a balance sheet.
type BalanceSheetResponse struct {
	AsOf                      time.Time           `json:"as_of"`
	Assets                    AssetsResponse      `json:"assets"`
	Liabilities               LiabilitiesResponse `json:"liabilities"`
	Equity                    SectionResponse     `json:"equity"`
	CurrentEarnings           string              `json:"current_earnings"`
	TotalLiabilitiesAndEquity string              `json:"total_liabilities_and_equity"`
	Balanced                  bool                `json:"balanced"`
}

// BalanceSheetFromDomain converts a balance sheet to response.
func BalanceSheetFromDomain(bs *domain.BalanceSheet) *BalanceSheetResponse {
	return &BalanceSheetResponse{
		AsOf: bs.AsOf,
		Assets: AssetsResponse{
			Current: sectionFromDomain(bs.Assets.Current),
			Fixed:   sectionFromDomain(bs.Assets.Fixed),
			Other:   sectionFromDomain(bs.Assets.Other),
			Total:   Amount(bs.Assets.Total),
		},
		Liabilities: LiabilitiesResponse{
			Current:  sectionFromDomain(bs.Liabilities.Current),
			LongTerm: sectionFromDomain(bs.Liabilities.LongTerm),
			Other:    sectionFromDomain(bs.Liabilities.Other),
			Total:    Amount(bs.Liabilities.Total),
		},
		Equity:                    sectionFromDomain(bs.Equity),
		CurrentEarnings:           Amount(bs.CurrentEarnings),
		TotalLiabilitiesAndEquity: Amount(bs.TotalLiabilitiesAndEquity),
		Balanced:                  bs.Balanced,
	}
}

// IncomeStatementResponse represents an income statement.
type IncomeStatementResponse struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Revenues    SectionResponse `json:"revenues"`
	Costs       SectionResponse `json:"costs"`
	Expenses    SectionResponse `json:"expenses"`
	GrossProfit string          `json:"gross_profit"`
	NetIncome   string          `json:"net_income"`
}

// IncomeStatementFromDomain converts an income statement to response.
func IncomeStatementFromDomain(is *domain.IncomeStatement) *IncomeStatementResponse {
	return &IncomeStatementResponse{
		From:        is.From.Format(DateLayout),
		To:          is.To.Format(DateLayout),
		Revenues:    sectionFromDomain(is.Revenues),
		Costs:       sectionFromDomain(is.Costs),
		Expenses:    sectionFromDomain(is.Expenses),
		GrossProfit: Amount(is.GrossProfit),
		NetIncome:   Amount(is.NetIncome),
	}
}

// TrialBalanceLineResponse is one account of a trial balance.
type TrialBalanceLineResponse struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Debit   string `json:"debit"`
	Credit  string `json:"credit"`
	Balance string `json:"balance"`
}

// TrialBalanceResponse represents a trial balance.
type TrialBalanceResponse struct {
	Lines       []TrialBalanceLineResponse `json:"lines"`
	TotalDebit  string                     `json:"total_debit"`
	TotalCredit string                     `json:"total_credit"`
	Balanced    bool                       `json:"balanced"`
}

// TrialBalanceFromDomain converts a trial balance to response.
func TrialBalanceFromDomain(tb *domain.TrialBalance) *TrialBalanceResponse {
	lines := make([]TrialBalanceLineResponse, len(tb.Lines))
	for i, l := range tb.Lines {
		lines[i] = TrialBalanceLineResponse{
			Code:    l.Code,
			Name:    l.Name,
			Type:    string(l.Type),
			Debit:   Amount(l.Debit),
			Credit:  Amount(l.Credit),
			Balance: Amount(l.Balance),
		}
	}
	return &TrialBalanceResponse{
		Lines:       lines,
		TotalDebit:  Amount(tb.TotalDebit),
		TotalCredit: Amount(tb.TotalCredit),
		Balanced:    tb.Balanced,
	}
}

// ReconciliationResponse summarizes a ledger check.
type ReconciliationResponse struct {
	TotalAccounts      int                   `json:"total_accounts"`
	ReconciledAccounts int                   `json:"reconciled_accounts"`
	Discrepancies      []DiscrepancyResponse `json:"discrepancies"`
	LedgerConsistent   bool                  `json:"ledger_consistent"`
	Rebuilt            bool                  `json:"rebuilt"`
	CheckedAt          time.Time             `json:"checked_at"`
}

// DiscrepancyResponse is an account whose cached balance differed.
type DiscrepancyResponse struct {
	AccountCode string `json:"account_code"`
	Recorded    string `json:"recorded"`
	Calculated  string `json:"calculated"`
	Difference  string `json:"difference"`
}

// ReconciliationFromUseCase converts a reconciliation report to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      make([]DiscrepancyResponse, len(r.Discrepancies)),
		LedgerConsistent:   r.LedgerConsistent,
		Rebuilt:            r.Rebuilt,
		CheckedAt:          r.CheckedAt,
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = DiscrepancyResponse{
			AccountCode: d.AccountCode,
			Recorded:    Amount(d.RecordedBalance),
			Calculated:  Amount(d.CalculatedBalance),
			Difference:  Amount(d.Difference),
		}
	}
	return resp
}

// SuggestionResponse is a classifier result.
type SuggestionResponse struct {
	Category    string  `json:"category"`
	AccountCode string  `json:"account_code"`
	Confidence  float64 `json:"confidence"`
	Keyword     string  `json:"keyword,omitempty"`
}

// SuggestionFromTranslator converts a classifier suggestion to response.
func SuggestionFromTranslator(s translator.Suggestion) SuggestionResponse {
	return SuggestionResponse{
		Category:    string(s.Category),
		AccountCode: s.AccountCode,
		Confidence:  s.Confidence,
		Keyword:     s.Keyword,
	}
}

// PurchasePostingResponse is the result of posting a supplier invoice.
type PurchasePostingResponse struct {
	Entry       *EntryResponse       `json:"entry"`
	Suggestions []SuggestionResponse `json:"suggestions"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message,omitempty"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail names one problem with a request.
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Line    *int   `json:"line,omitempty"`
	Account string `json:"account,omitempty"`
	Side    string `json:"side,omitempty"`
	Debit   string `json:"debit,omitempty"`
	Credit  string `json:"credit,omitempty"`
	Reason  string `json:"reason"`
}

// Amount formats a money value with two decimals.
func Amount(d decimal.Decimal) string {
	return d.StringFixed(domain.AmountPrecision)
}
