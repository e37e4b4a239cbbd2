package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceTolerance is the largest debit/credit difference an entry may carry.
var BalanceTolerance = decimal.New(1, -2)

// AmountPrecision is the number of decimal places a line amount may carry.
const AmountPrecision = 2

// Line is a single debit or credit against one account.
type Line struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Side returns which side of the line carries the amount.
func (l Line) Side() Side {
	if l.Debit.IsPositive() {
		return SideDebit
	}
	return SideCredit
}

// Amount returns the non-zero side of the line.
func (l Line) Amount() decimal.Decimal {
	if l.Debit.IsPositive() {
		return l.Debit
	}
	return l.Credit
}

// ProposedEntry is a journal entry that has not been posted yet.
type ProposedEntry struct {
	Date        time.Time
	Reference   string
	Description string
	SourceID    string
	Lines       []Line
}

// Totals returns the debit and credit sums of the proposed lines.
func (p ProposedEntry) Totals() (debit, credit decimal.Decimal) {
	return sumLines(p.Lines)
}

// JournalEntry is a posted, immutable journal entry.
type JournalEntry struct {
	ID          int64
	Date        time.Time
	Reference   string
	Description string
	SourceID    string
	Lines       []Line
	CreatedAt   time.Time
}

// Totals returns the debit and credit sums of the entry.
func (e *JournalEntry) Totals() (debit, credit decimal.Decimal) {
	return sumLines(e.Lines)
}

// Touches reports whether any line of the entry posts to code.
func (e *JournalEntry) Touches(code string) bool {
	for _, l := range e.Lines {
		if l.AccountCode == code {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; posted entries are only handed out as copies.
func (e *JournalEntry) Clone() *JournalEntry {
	if e == nil {
		return nil
	}
	c := *e
	c.Lines = append([]Line(nil), e.Lines...)
	return &c
}

// NewJournalEntry builds the entry that posting p under id produces.
func NewJournalEntry(id int64, p ProposedEntry, createdAt time.Time) *JournalEntry {
	return &JournalEntry{
		ID:          id,
		Date:        NormalizeDate(p.Date),
		Reference:   p.Reference,
		Description: p.Description,
		SourceID:    p.SourceID,
		Lines:       append([]Line(nil), p.Lines...),
		CreatedAt:   createdAt,
	}
}

// NormalizeDate truncates t to a UTC calendar date.
func NormalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sumLines(lines []Line) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}
