package csvchart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/domain"
)

func TestReadWriteRoundTrip(t *testing.T) {
	accounts := []*domain.Account{
		{Code: "1101", Name: "Cash, main", Type: domain.AccountTypeAsset, Category: domain.CategoryCurrent, Active: true},
		{Code: "1102", Name: "Petty cash", Type: domain.AccountTypeAsset, Category: domain.CategoryCurrent, ParentCode: "1101", Description: "drawer \"A\""},
		{Code: "4101", Name: "Sales", Type: domain.AccountTypeRevenue, Category: domain.CategoryOther, Active: true},
	}

	var buf bytes.Buffer
	if err := WriteAccounts(&buf, accounts); err != nil {
		t.Fatalf("WriteAccounts: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "code,name,type,category,parent_code,active,description\n") {
		t.Fatalf("unexpected header: %q", buf.String())
	}

	got, err := ReadAccounts(&buf)
	if err != nil {
		t.Fatalf("ReadAccounts: %v", err)
	}
	if len(got) != len(accounts) {
		t.Fatalf("expected %d accounts, got %d", len(accounts), len(got))
	}
	for i, want := range accounts {
		if got[i] != *want {
			t.Errorf("row %d: got %+v, want %+v", i, got[i], *want)
		}
	}
}

func TestReadAccountsDefaultsAndErrors(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader("code,name,type,category,parent_code,active,description\n5101, Cost of sales, Expense,other,,,\n"))
	if err != nil {
		t.Fatalf("ReadAccounts: %v", err)
	}
	if len(got) != 1 || !got[0].Active || got[0].Type != domain.AccountTypeExpense || got[0].Name != "Cost of sales" {
		t.Fatalf("unexpected account: %+v", got)
	}

	tests := map[string]string{
		"bad code":     "h,h,h,h,h,h,h\n51,x,asset,current,,,\n",
		"bad type":     "h,h,h,h,h,h,h\n5101,x,income,other,,,\n",
		"bad active":   "h,h,h,h,h,h,h\n5101,x,expense,other,,maybe,\n",
		"wrong fields": "h,h,h,h,h,h,h\n5101,x,expense\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadAccounts(strings.NewReader(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	empty, err := ReadAccounts(strings.NewReader(""))
	if err != nil || empty != nil {
		t.Fatalf("expected nothing from empty input, got %v %v", empty, err)
	}
}

func TestWriteTrialBalance(t *testing.T) {
	tb := &domain.TrialBalance{
		Lines: []domain.TrialBalanceLine{
			{Code: "1101", Name: "Cash", Type: domain.AccountTypeAsset, Debit: decimal.RequireFromString("100"), Credit: decimal.Zero},
			{Code: "3101", Name: "Capital", Type: domain.AccountTypeEquity, Debit: decimal.Zero, Credit: decimal.RequireFromString("100")},
		},
		TotalDebit:  decimal.RequireFromString("100"),
		TotalCredit: decimal.RequireFromString("100"),
		Balanced:    true,
	}

	var buf bytes.Buffer
	if err := WriteTrialBalance(&buf, tb); err != nil {
		t.Fatalf("WriteTrialBalance: %v", err)
	}

	want := "code,name,type,debit,credit\n" +
		"1101,Cash,asset,100.00,0.00\n" +
		"3101,Capital,equity,0.00,100.00\n" +
		",Total,,100.00,100.00\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
