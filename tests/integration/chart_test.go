package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
	"github.com/iho/gobooks/tests/testutil"
)

func TestChartSeededOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	books := db.NewBooks()

	accounts, err := books.Chart.ListAccounts(ctx, usecase.AccountFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != len(domain.DefaultChart()) {
		t.Fatalf("accounts = %d, want %d", len(accounts), len(domain.DefaultChart()))
	}
	for i := 1; i < len(accounts); i++ {
		if accounts[i-1].Code >= accounts[i].Code {
			t.Fatalf("accounts not sorted: %s before %s", accounts[i-1].Code, accounts[i].Code)
		}
	}

	// Seeding again must not fail or duplicate.
	again := db.NewBooks()
	n, err := again.Chart.SeedAccounts(ctx, domain.DefaultChart())
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if n != 0 {
		t.Fatalf("reseed created %d accounts, want 0", n)
	}
}

func TestCreateUpdateAndDuplicateAccount(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	books := db.NewBooks()

	input := usecase.CreateAccountInput{
		Code:       "1102",
		Name:       "Petty cash",
		Type:       domain.AccountTypeAsset,
		Category:   domain.CategoryCurrent,
		ParentCode: "1101",
	}
	created, err := books.Chart.CreateAccount(ctx, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Active || created.ParentCode != "1101" {
		t.Fatalf("created = %+v", created)
	}

	if _, err := books.Chart.CreateAccount(ctx, input); !errors.Is(err, domain.ErrDuplicateAccountCode) {
		t.Fatalf("expected ErrDuplicateAccountCode, got %v", err)
	}

	name := "Petty cash box"
	updated, err := books.Chart.UpdateAccount(ctx, "1102", usecase.UpdateAccountInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("name = %q", updated.Name)
	}

	stored, err := books.Accounts.GetByCode(ctx, "1102")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Name != name {
		t.Fatalf("stored name = %q", stored.Name)
	}
}

func TestDeleteOrDeactivate(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	books := db.NewBooks()

	unused, err := books.Chart.DeactivateOrDelete(ctx, "4201")
	if err != nil {
		t.Fatalf("delete unused: %v", err)
	}
	if !unused.Deleted {
		t.Fatal("unused account should be deleted")
	}
	if _, err := books.Accounts.GetByCode(ctx, "4201"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	if _, err := books.Ledger.Post(ctx, pair("2024-05-01", "svc-1", "6101", "1101", "10.00")); err != nil {
		t.Fatalf("post: %v", err)
	}
	used, err := books.Chart.DeactivateOrDelete(ctx, "6101")
	if err != nil {
		t.Fatalf("deactivate used: %v", err)
	}
	if used.Deleted || used.Account.Active {
		t.Fatalf("used account should only be deactivated: %+v", used)
	}

	_, err = books.Ledger.Post(ctx, pair("2024-05-02", "svc-2", "6101", "1101", "10.00"))
	if !errors.Is(err, domain.ErrInactiveAccount) {
		t.Fatalf("expected ErrInactiveAccount, got %v", err)
	}
}
