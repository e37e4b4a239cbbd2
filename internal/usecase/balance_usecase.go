package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/domain"
)

// ErrCacheMiss is returned by Cache implementations for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// JournalSource is the part of the Ledger the balance engine reads.
type JournalSource interface {
	Replay(fn func(entries []*domain.JournalEntry))
	Query(ctx context.Context, f EntryFilter) iter.Seq[*domain.JournalEntry]
	LastID() int64
}

type accountTotals struct {
	debit  decimal.Decimal
	credit decimal.Decimal
}

type totalsMap map[string]accountTotals

func (m totalsMap) apply(e *domain.JournalEntry) {
	for _, line := range e.Lines {
		t := m[line.AccountCode]
		t.debit = t.debit.Add(line.Debit)
		t.credit = t.credit.Add(line.Credit)
		m[line.AccountCode] = t
	}
}

func (m totalsMap) sortedCodes() []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func fold(entries []*domain.JournalEntry) totalsMap {
	m := make(totalsMap)
	for _, e := range entries {
		m.apply(e)
	}
	return m
}

// BalanceEngine keeps per-account debit and credit totals up to date as
// entries are posted and derives balances and statements from them.
type BalanceEngine struct {
	mu     sync.RWMutex
	totals totalsMap

	journal      JournalSource
	accounts     AccountRepository
	costPrefixes []string
	cache        Cache
	cacheTTL     time.Duration
	// epoch and chartVersion keep cache keys of another process or of an
	// older chart from matching.
	epoch        string
	chartVersion atomic.Int64
	metrics      Metrics
	logger       zerolog.Logger
}

// NewBalanceEngine creates an engine; register it with Ledger.Observe.
func NewBalanceEngine(accounts AccountRepository, journal JournalSource, logger zerolog.Logger) *BalanceEngine {
	return &BalanceEngine{
		totals:       make(totalsMap),
		journal:      journal,
		accounts:     accounts,
		costPrefixes: DefaultCostCodePrefixes,
		epoch:        ulid.Make().String(),
		metrics:      NopMetrics{},
		logger:       logger.With().Str("component", "balances").Logger(),
	}
}

// WithCostPrefixes sets the code prefixes of expense accounts reported as
// cost of sales.
func (b *BalanceEngine) WithCostPrefixes(prefixes []string) *BalanceEngine {
	if len(prefixes) > 0 {
		b.costPrefixes = prefixes
	}
	return b
}

// WithReportCache caches statements per ledger version.
func (b *BalanceEngine) WithReportCache(cache Cache, ttl time.Duration) *BalanceEngine {
	b.cache = cache
	b.cacheTTL = ttl
	return b
}

// WithMetrics sets the metrics sink.
func (b *BalanceEngine) WithMetrics(m Metrics) *BalanceEngine {
	if m != nil {
		b.metrics = m
	}
	return b
}

// ChartChanged retires every cached report; account names and categories
// are part of the statements. Register it with ChartOfAccounts.Observe.
func (b *BalanceEngine) ChartChanged(_ context.Context) {
	b.chartVersion.Add(1)
}

// Apply folds one posted entry into the totals.
func (b *BalanceEngine) Apply(e *domain.JournalEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.totals.apply(e)
}

// Reset replaces the totals with a fold over entries.
func (b *BalanceEngine) Reset(entries []*domain.JournalEntry) {
	fresh := fold(entries)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.totals = fresh
}

// Rebuild recomputes every balance from the journal.
func (b *BalanceEngine) Rebuild(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.journal.Replay(b.Reset)
	b.invalidate(ctx)
	b.metrics.BalancesRebuilt("manual")
	b.logger.Info().Msg("balances rebuilt")
	return nil
}

// Verify compares the incremental totals with a fresh fold over the journal.
// On a mismatch the totals are rebuilt and a *domain.DriftError is returned.
func (b *BalanceEngine) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var drifted []string
	b.journal.Replay(func(entries []*domain.JournalEntry) {
		fresh := fold(entries)

		b.mu.Lock()
		defer b.mu.Unlock()
		drifted = diffTotals(b.totals, fresh)
		if len(drifted) > 0 {
			b.totals = fresh
		}
	})

	if len(drifted) == 0 {
		return nil
	}

	b.invalidate(ctx)
	b.metrics.BalanceDrift(len(drifted))
	b.metrics.BalancesRebuilt("drift")
	b.logger.Error().Strs("accounts", drifted).Msg("balance drift detected, totals rebuilt")
	return &domain.DriftError{Accounts: drifted}
}

func diffTotals(current, fresh totalsMap) []string {
	var drifted []string
	for code, want := range fresh {
		got, ok := current[code]
		if !ok || !got.debit.Equal(want.debit) || !got.credit.Equal(want.credit) {
			drifted = append(drifted, code)
		}
	}
	for code := range current {
		if _, ok := fresh[code]; !ok {
			drifted = append(drifted, code)
		}
	}
	sort.Strings(drifted)
	return drifted
}

func (b *BalanceEngine) snapshot() totalsMap {
	b.mu.RLock()
	defer b.mu.RUnlock()

	copied := make(totalsMap, len(b.totals))
	for code, t := range b.totals {
		copied[code] = t
	}
	return copied
}

// AccountBalance returns the signed balance of code. Accounts without
// postings have a zero balance.
func (b *BalanceEngine) AccountBalance(ctx context.Context, code string) (decimal.Decimal, error) {
	account, err := b.accounts.GetByCode(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}

	b.mu.RLock()
	t := b.totals[code]
	b.mu.RUnlock()

	return account.Type.SignedBalance(t.debit, t.credit), nil
}

// BalanceSheet reports every asset, liability and equity account that has
// at least one posting, grouped by category.
func (b *BalanceEngine) BalanceSheet(ctx context.Context) (*domain.BalanceSheet, error) {
	var sheet domain.BalanceSheet
	err := b.cached(ctx, "balance-sheet", &sheet, func() (any, error) {
		return b.buildBalanceSheet(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (b *BalanceEngine) buildBalanceSheet(ctx context.Context) (*domain.BalanceSheet, error) {
	totals := b.snapshot()
	accounts, err := b.accountIndex(ctx)
	if err != nil {
		return nil, err
	}

	sheet := &domain.BalanceSheet{AsOf: time.Now().UTC()}
	earnings := decimal.Zero

	for _, code := range totals.sortedCodes() {
		account, ok := accounts[code]
		if !ok {
			b.logger.Warn().Str("code", code).Msg("posted account missing from chart")
			continue
		}
		t := totals[code]
		line := domain.ReportLine{Code: code, Name: account.Name, Balance: account.Type.SignedBalance(t.debit, t.credit)}

		switch account.Type {
		case domain.AccountTypeAsset:
			switch account.Category {
			case domain.CategoryCurrent:
				sheet.Assets.Current.Add(line)
			case domain.CategoryFixed:
				sheet.Assets.Fixed.Add(line)
			default:
				sheet.Assets.Other.Add(line)
			}
		case domain.AccountTypeLiability:
			switch account.Category {
			case domain.CategoryCurrent:
				sheet.Liabilities.Current.Add(line)
			case domain.CategoryLongTerm:
				sheet.Liabilities.LongTerm.Add(line)
			default:
				sheet.Liabilities.Other.Add(line)
			}
		case domain.AccountTypeEquity:
			sheet.Equity.Add(line)
		case domain.AccountTypeRevenue:
			earnings = earnings.Add(line.Balance)
		case domain.AccountTypeExpense:
			earnings = earnings.Sub(line.Balance)
		}
	}

	sheet.Assets.Total = sheet.Assets.Current.Total.Add(sheet.Assets.Fixed.Total).Add(sheet.Assets.Other.Total)
	sheet.Liabilities.Total = sheet.Liabilities.Current.Total.Add(sheet.Liabilities.LongTerm.Total).Add(sheet.Liabilities.Other.Total)
	sheet.CurrentEarnings = earnings
	sheet.TotalLiabilitiesAndEquity = sheet.Liabilities.Total.Add(sheet.Equity.Total).Add(earnings)
	sheet.Balanced = domain.WithinTolerance(sheet.Assets.Total, sheet.TotalLiabilitiesAndEquity)

	return sheet, nil
}

// IncomeStatement folds the entries dated in [from, to]. A zero bound is
// open.
func (b *BalanceEngine) IncomeStatement(ctx context.Context, from, to time.Time) (*domain.IncomeStatement, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, fmt.Errorf("%w: %s > %s", domain.ErrInvalidPeriod, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	totals := make(totalsMap)
	for e := range b.journal.Query(ctx, EntryFilter{From: from, To: to}) {
		totals.apply(e)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	accounts, err := b.accountIndex(ctx)
	if err != nil {
		return nil, err
	}

	stmt := &domain.IncomeStatement{From: domain.NormalizeDate(from), To: domain.NormalizeDate(to)}
	for _, code := range totals.sortedCodes() {
		account, ok := accounts[code]
		if !ok {
			continue
		}
		t := totals[code]
		line := domain.ReportLine{Code: code, Name: account.Name, Balance: account.Type.SignedBalance(t.debit, t.credit)}

		switch account.Type {
		case domain.AccountTypeRevenue:
			stmt.Revenues.Add(line)
		case domain.AccountTypeExpense:
			if b.isCost(code) {
				stmt.Costs.Add(line)
			} else {
				stmt.Expenses.Add(line)
			}
		}
	}

	stmt.GrossProfit = stmt.Revenues.Total.Sub(stmt.Costs.Total)
	stmt.NetIncome = stmt.GrossProfit.Sub(stmt.Expenses.Total)
	return stmt, nil
}

// TrialBalance lists the raw debit and credit totals of every touched
// account.
func (b *BalanceEngine) TrialBalance(ctx context.Context) (*domain.TrialBalance, error) {
	var tb domain.TrialBalance
	err := b.cached(ctx, "trial-balance", &tb, func() (any, error) {
		return b.buildTrialBalance(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &tb, nil
}

func (b *BalanceEngine) buildTrialBalance(ctx context.Context) (*domain.TrialBalance, error) {
	totals := b.snapshot()
	accounts, err := b.accountIndex(ctx)
	if err != nil {
		return nil, err
	}

	tb := &domain.TrialBalance{}
	for _, code := range totals.sortedCodes() {
		t := totals[code]
		line := domain.TrialBalanceLine{Code: code, Debit: t.debit, Credit: t.credit}
		if account, ok := accounts[code]; ok {
			line.Name = account.Name
			line.Type = account.Type
			line.Balance = account.Type.SignedBalance(t.debit, t.credit)
		}
		tb.Lines = append(tb.Lines, line)
		tb.TotalDebit = tb.TotalDebit.Add(t.debit)
		tb.TotalCredit = tb.TotalCredit.Add(t.credit)
	}
	tb.Balanced = tb.TotalDebit.Sub(tb.TotalCredit).Abs().LessThanOrEqual(
		domain.BalanceTolerance.Mul(decimal.NewFromInt(b.journal.LastID() + 1)))

	return tb, nil
}

func (b *BalanceEngine) isCost(code string) bool {
	for _, p := range b.costPrefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

func (b *BalanceEngine) accountIndex(ctx context.Context) (map[string]*domain.Account, error) {
	list, err := b.accounts.List(ctx, AccountFilter{})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	index := make(map[string]*domain.Account, len(list))
	for _, a := range list {
		index[a.Code] = a
	}
	return index, nil
}

// cached serves report name from the cache for the current ledger version
// and falls back to build. Cache failures only cost a rebuild.
func (b *BalanceEngine) cached(ctx context.Context, name string, dst any, build func() (any, error)) error {
	if b.cache == nil {
		return b.buildInto(dst, build)
	}

	key := b.reportKey(name)
	if data, err := b.cache.Get(ctx, key); err == nil {
		if err := json.Unmarshal(data, dst); err == nil {
			return nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		b.logger.Warn().Err(err).Str("key", key).Msg("report cache read failed")
	}

	report, err := build()
	if err != nil {
		return err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := b.cache.Set(ctx, key, data, b.cacheTTL); err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
	return json.Unmarshal(data, dst)
}

// invalidate drops cached reports of the current version; they were built
// from totals that have just been replaced.
func (b *BalanceEngine) invalidate(ctx context.Context) {
	if b.cache == nil {
		return
	}
	for _, name := range []string{"balance-sheet", "trial-balance"} {
		key := b.reportKey(name)
		if err := b.cache.Delete(ctx, key); err != nil {
			b.logger.Warn().Err(err).Str("key", key).Msg("report cache delete failed")
		}
	}
}

func (b *BalanceEngine) reportKey(name string) string {
	return fmt.Sprintf("report:%s:%s:c%d:v%d", name, b.epoch, b.chartVersion.Load(), b.journal.LastID())
}

func (b *BalanceEngine) buildInto(dst any, build func() (any, error)) error {
	report, err := build()
	if err != nil {
		return err
	}
	switch d := dst.(type) {
	case *domain.BalanceSheet:
		*d = *report.(*domain.BalanceSheet)
	case *domain.TrialBalance:
		*d = *report.(*domain.TrialBalance)
	default:
		return fmt.Errorf("unsupported report type %T", dst)
	}
	return nil
}
