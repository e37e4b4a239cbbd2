package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/adapter/http/dto"
	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

type reportServiceStub struct {
	from, to time.Time
}

func (s *reportServiceStub) BalanceSheet(context.Context) (*domain.BalanceSheet, error) {
	return &domain.BalanceSheet{
		Assets: domain.AssetSections{
			Current: domain.ReportSection{
				Lines: []domain.ReportLine{{Code: "1101", Name: "Cash and Banks", Balance: decimal.NewFromInt(100)}},
				Total: decimal.NewFromInt(100),
			},
			Total: decimal.NewFromInt(100),
		},
		CurrentEarnings:           decimal.NewFromInt(100),
		TotalLiabilitiesAndEquity: decimal.NewFromInt(100),
		Balanced:                  true,
	}, nil
}

func (s *reportServiceStub) IncomeStatement(_ context.Context, from, to time.Time) (*domain.IncomeStatement, error) {
	s.from, s.to = from, to
	return &domain.IncomeStatement{From: from, To: to, NetIncome: decimal.NewFromInt(40)}, nil
}

func (s *reportServiceStub) TrialBalance(context.Context) (*domain.TrialBalance, error) {
	return &domain.TrialBalance{
		Lines: []domain.TrialBalanceLine{
			{Code: "1101", Name: "Cash and Banks", Type: domain.AccountTypeAsset, Debit: decimal.NewFromInt(10), Balance: decimal.NewFromInt(10)},
			{Code: "4101", Name: "Sales", Type: domain.AccountTypeRevenue, Credit: decimal.NewFromInt(10), Balance: decimal.NewFromInt(10)},
		},
		TotalDebit:  decimal.NewFromInt(10),
		TotalCredit: decimal.NewFromInt(10),
		Balanced:    true,
	}, nil
}

func TestReportHandler_BalanceSheet(t *testing.T) {
	rec := httptest.NewRecorder()
	NewReportHandler(&reportServiceStub{}).BalanceSheet(rec, httptest.NewRequest(http.MethodGet, "/reports/balance-sheet", nil))

	var resp dto.BalanceSheetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Balanced || resp.Assets.Current.Lines[0].Code != "1101" || resp.CurrentEarnings != "100.00" {
		t.Fatalf("unexpected balance sheet %+v", resp)
	}
}

func TestReportHandler_IncomeStatementPeriod(t *testing.T) {
	stub := &reportServiceStub{}
	h := NewReportHandler(stub)

	rec := httptest.NewRecorder()
	h.IncomeStatement(rec, httptest.NewRequest(http.MethodGet, "/reports/income-statement?from=2024-01-01&to=2024-03-31", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.from.Format(time.DateOnly) != "2024-01-01" || stub.to.Format(time.DateOnly) != "2024-03-31" {
		t.Fatalf("unexpected period %v - %v", stub.from, stub.to)
	}

	rec = httptest.NewRecorder()
	h.IncomeStatement(rec, httptest.NewRequest(http.MethodGet, "/reports/income-statement?from=yesterday", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a bad date, got %d", rec.Code)
	}
}

func TestReportHandler_TrialBalanceFormats(t *testing.T) {
	h := NewReportHandler(&reportServiceStub{})

	rec := httptest.NewRecorder()
	h.TrialBalance(rec, httptest.NewRequest(http.MethodGet, "/reports/trial-balance", nil))
	var resp dto.TrialBalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Lines) != 2 || resp.TotalDebit != "10.00" || !resp.Balanced {
		t.Fatalf("unexpected trial balance %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.TrialBalance(rec, httptest.NewRequest(http.MethodGet, "/reports/trial-balance?format=csv", nil))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if rec.Header().Get("Content-Type") != "text/csv" || len(lines) != 4 {
		t.Fatalf("unexpected CSV:\n%s", rec.Body.String())
	}
	if lines[3] != ",Total,,10.00,10.00" {
		t.Fatalf("unexpected totals row %q", lines[3])
	}
}

type reconcilerStub struct {
	report *usecase.ReconciliationReport
	err    error
}

func (s reconcilerStub) GenerateReconciliationReport(context.Context) (*usecase.ReconciliationReport, error) {
	return s.report, s.err
}

type rebuilderStub struct{ calls int }

func (s *rebuilderStub) Rebuild(context.Context) error {
	s.calls++
	return nil
}

func TestLedgerHandler_CheckConsistency(t *testing.T) {
	tests := []struct {
		name   string
		stub   reconcilerStub
		status int
	}{
		{"consistent", reconcilerStub{report: &usecase.ReconciliationReport{TotalAccounts: 3, ReconciledAccounts: 3, LedgerConsistent: true}}, http.StatusOK},
		{"inconsistent report", reconcilerStub{report: &usecase.ReconciliationReport{LedgerConsistent: false}}, http.StatusConflict},
		{"inconsistent ledger", reconcilerStub{err: usecase.ErrInconsistentLedger}, http.StatusConflict},
		{"failure", reconcilerStub{err: errors.New("disk")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewLedgerHandler(tt.stub, &rebuilderStub{}).CheckConsistency(rec, httptest.NewRequest(http.MethodGet, "/ledger/consistency", nil))
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestLedgerHandler_Rebuild(t *testing.T) {
	rebuilder := &rebuilderStub{}
	rec := httptest.NewRecorder()
	NewLedgerHandler(reconcilerStub{}, rebuilder).Rebuild(rec, httptest.NewRequest(http.MethodPost, "/ledger/rebuild", nil))

	if rec.Code != http.StatusOK || rebuilder.calls != 1 {
		t.Fatalf("expected one rebuild, got %d calls (status %d)", rebuilder.calls, rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	healthy := NewHealthHandler(map[string]Pinger{"database": func(context.Context) error { return nil }})
	rec := httptest.NewRecorder()
	healthy.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	failing := NewHealthHandler(map[string]Pinger{"redis": func(context.Context) error { return errors.New("refused") }})
	rec = httptest.NewRecorder()
	failing.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
