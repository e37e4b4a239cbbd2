package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	postgresRepo "github.com/iho/gobooks/internal/adapter/repository/postgres"
	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/infrastructure/postgres"
	"github.com/iho/gobooks/internal/usecase"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	URL  string
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies the migrations. The test
// is skipped when DATABASE_URL is unset or -short is given.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := postgres.RunMigrations(dbURL, migrationsSource(t), zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 10, 1)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	db := &TestDB{Pool: pool, URL: dbURL, t: t}
	db.TruncateAll(ctx)
	return db
}

// migrationsSource finds the migrations directory above the working
// directory.
func migrationsSource(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		candidate := filepath.Join(dir, "migrations")
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return "file://" + candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("migrations directory not found")
		}
		dir = parent
	}
}

// TruncateAll removes all data from tables. TRUNCATE does not fire the
// append-only row triggers.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE journal_lines, journal_entries, outbox_events, accounts`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Books is a ledger wired over PostgreSQL.
type Books struct {
	Accounts *postgresRepo.AccountRepository
	Entries  *postgresRepo.EntryStore
	Outbox   *postgresRepo.OutboxRepository
	Chart    *usecase.ChartOfAccounts
	Ledger   *usecase.Ledger
	Balances *usecase.BalanceEngine
}

// NewBooks wires the use cases over db, seeds the default chart and loads
// the stored journal.
func (db *TestDB) NewBooks() *Books {
	db.t.Helper()

	ctx := context.Background()
	logger := zerolog.Nop()
	idGen := postgresRepo.NewEventIDGenerator()

	b := &Books{
		Accounts: postgresRepo.NewAccountRepository(db.Pool),
		Entries:  postgresRepo.NewEntryStore(db.Pool, postgresRepo.NewTxManager(db.Pool, postgresRepo.NewRetrier(logger))),
		Outbox:   postgresRepo.NewOutboxRepository(db.Pool),
	}
	b.Ledger = usecase.NewLedger(b.Entries, usecase.NewEntryValidator(b.Accounts), logger).WithOutbox(b.Outbox, idGen)
	b.Balances = usecase.NewBalanceEngine(b.Accounts, b.Ledger, logger)
	b.Ledger.Observe(b.Balances)
	b.Chart = usecase.NewChartOfAccounts(b.Accounts, b.Ledger, logger).
		WithOutbox(b.Outbox, idGen).
		Observe(b.Balances)

	if _, err := b.Chart.SeedAccounts(ctx, domain.DefaultChart()); err != nil {
		db.t.Fatalf("failed to seed chart: %v", err)
	}
	if err := b.Ledger.Load(ctx); err != nil {
		db.t.Fatalf("failed to load journal: %v", err)
	}
	return b
}
