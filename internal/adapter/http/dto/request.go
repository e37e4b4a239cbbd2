package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Code        string `json:"code"        validate:"required,len=4,numeric"`
	Name        string `json:"name"        validate:"required,max=255"`
	Type        string `json:"type"        validate:"required,oneof=asset liability equity revenue expense"`
	Category    string `json:"category"    validate:"omitempty,oneof=current fixed long_term other"`
	ParentCode  string `json:"parent_code" validate:"omitempty,len=4,numeric"`
	Description string `json:"description" validate:"max=1000"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Code:        r.Code,
		Name:        r.Name,
		Type:        domain.AccountType(r.Type),
		Category:    domain.AccountCategory(r.Category),
		ParentCode:  r.ParentCode,
		Description: r.Description,
	}
}

// UpdateAccountRequest changes the fields that are present.
type UpdateAccountRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=255"`
	Category    *string `json:"category"    validate:"omitempty,oneof=current fixed long_term other"`
	ParentCode  *string `json:"parent_code" validate:"omitempty,max=4"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Active      *bool   `json:"active"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateAccountRequest) ToUseCaseInput() usecase.UpdateAccountInput {
	input := usecase.UpdateAccountInput{
		Name:        r.Name,
		ParentCode:  r.ParentCode,
		Description: r.Description,
		Active:      r.Active,
	}
	if r.Category != nil {
		c := domain.AccountCategory(*r.Category)
		input.Category = &c
	}
	return input
}

// LineRequest is one side of a journal entry. Exactly one of Debit and
// Credit should be non-zero.
type LineRequest struct {
	AccountCode string          `json:"account_code" validate:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"  validate:"max=255"`
}

// PostEntryRequest represents a request to post a journal entry.
type PostEntryRequest struct {
	Date        string        `json:"date"        validate:"required,datetime=2006-01-02"`
	Reference   string        `json:"reference"   validate:"reference"`
	Description string        `json:"description" validate:"max=1000"`
	SourceID    string        `json:"source_id"   validate:"max=128"`
	Lines       []LineRequest `json:"lines"       validate:"dive"`
}

// ToProposedEntry converts the request. Line rules are left to the entry
// validator so every problem is reported together.
func (r *PostEntryRequest) ToProposedEntry() (domain.ProposedEntry, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return domain.ProposedEntry{}, err
	}

	lines := make([]domain.Line, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = domain.Line{
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		}
	}

	return domain.ProposedEntry{
		Date:        date,
		Reference:   r.Reference,
		Description: r.Description,
		SourceID:    r.SourceID,
		Lines:       lines,
	}, nil
}

// ReverseEntryRequest reverses a posted entry. Date defaults to today.
type ReverseEntryRequest struct {
	Date        string `json:"date"        validate:"omitempty,datetime=2006-01-02"`
	Description string `json:"description" validate:"max=1000"`
}

// ReversalDate returns the requested date or today in UTC.
func (r *ReverseEntryRequest) ReversalDate() (time.Time, error) {
	if r.Date == "" {
		return time.Now().UTC(), nil
	}
	return ParseDate(r.Date)
}
