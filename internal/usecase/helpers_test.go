package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/gobooks/internal/adapter/repository/memory"
	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

type books struct {
	accounts *memory.AccountRepository
	chart    *usecase.ChartOfAccounts
	ledger   *usecase.Ledger
	balances *usecase.BalanceEngine
}

// newBooks wires a ledger over in-memory storage. With seed set the default
// chart is loaded.
func newBooks(t *testing.T, store usecase.EntryStore, seed bool) *books {
	t.Helper()

	if store == nil {
		store = memory.NewEntryStore()
	}
	logger := zerolog.Nop()
	accounts := memory.NewAccountRepository()
	ledger := usecase.NewLedger(store, usecase.NewEntryValidator(accounts), logger)
	balances := usecase.NewBalanceEngine(accounts, ledger, logger)
	ledger.Observe(balances)
	chart := usecase.NewChartOfAccounts(accounts, ledger, logger).Observe(balances)

	if seed {
		_, err := chart.SeedAccounts(context.Background(), domain.DefaultChart())
		require.NoError(t, err)
	}

	return &books{accounts: accounts, chart: chart, ledger: ledger, balances: balances}
}

func (b *books) post(t *testing.T, p domain.ProposedEntry) *domain.JournalEntry {
	t.Helper()
	entry, err := b.ledger.Post(context.Background(), p)
	require.NoError(t, err)
	return entry
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func debit(code, amount string) domain.Line {
	return domain.Line{AccountCode: code, Debit: dec(amount)}
}

func credit(code, amount string) domain.Line {
	return domain.Line{AccountCode: code, Credit: dec(amount)}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(date time.Time, ref string, lines ...domain.Line) domain.ProposedEntry {
	return domain.ProposedEntry{Date: date, Reference: ref, Lines: lines}
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}
