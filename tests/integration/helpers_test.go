package integration

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// pair builds a two-line entry moving value from credit to debit.
func pair(date, source, debit, credit, value string) domain.ProposedEntry {
	return domain.ProposedEntry{
		Date:        day(date),
		Reference:   source,
		Description: "integration " + source,
		SourceID:    source,
		Lines: []domain.Line{
			{AccountCode: debit, Debit: amount(value)},
			{AccountCode: credit, Credit: amount(value)},
		},
	}
}

func assertAmount(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(amount(want)) {
		t.Fatalf("%s = %s, want %s", name, got.StringFixed(2), want)
	}
}
