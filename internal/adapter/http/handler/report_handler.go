package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/iho/gobooks/internal/adapter/csvchart"
	"github.com/iho/gobooks/internal/adapter/http/dto"
	"github.com/iho/gobooks/internal/domain"
)

// ReportService builds financial statements. *usecase.BalanceEngine
// satisfies it.
type ReportService interface {
	BalanceSheet(ctx context.Context) (*domain.BalanceSheet, error)
	IncomeStatement(ctx context.Context, from, to time.Time) (*domain.IncomeStatement, error)
	TrialBalance(ctx context.Context) (*domain.TrialBalance, error)
}

// ReportHandler serves financial statements.
type ReportHandler struct {
	reports ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// BalanceSheet returns the current balance sheet.
func (h *ReportHandler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.reports.BalanceSheet(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to build balance sheet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceSheetFromDomain(sheet))
}

// IncomeStatement returns the income statement for [from, to].
func (h *ReportHandler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateQuery(r, "from")
	if err != nil {
		writeDomainError(w, r, "invalid period", err)
		return
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		writeDomainError(w, r, "invalid period", err)
		return
	}

	statement, err := h.reports.IncomeStatement(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, r, "failed to build income statement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.IncomeStatementFromDomain(statement))
}

// TrialBalance returns debit and credit totals per account, as JSON or CSV.
func (h *ReportHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	tb, err := h.reports.TrialBalance(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to build trial balance", err)
		return
	}

	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv")
		if err := csvchart.WriteTrialBalance(w, tb); err != nil {
			writeDomainError(w, r, "failed to write trial balance", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.TrialBalanceFromDomain(tb))
}
