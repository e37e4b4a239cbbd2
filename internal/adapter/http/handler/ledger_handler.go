package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/iho/gobooks/internal/adapter/http/dto"
	"github.com/iho/gobooks/internal/usecase"
)

// ReconciliationService checks the journal against cached balances.
type ReconciliationService interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// BalanceRebuilder refolds balances from the journal.
type BalanceRebuilder interface {
	Rebuild(ctx context.Context) error
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	reconciler ReconciliationService
	rebuilder  BalanceRebuilder
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(reconciler ReconciliationService, rebuilder BalanceRebuilder) *LedgerHandler {
	return &LedgerHandler{reconciler: reconciler, rebuilder: rebuilder}
}

// CheckConsistency reconciles every account and checks that the journal
// balances. An inconsistent journal answers 409.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.GenerateReconciliationReport(r.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrInconsistentLedger) {
			writeError(w, http.StatusConflict, "ledger is inconsistent", err.Error())
			return
		}
		writeDomainError(w, r, "failed to check consistency", err)
		return
	}

	status := http.StatusOK
	if !report.LedgerConsistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ReconciliationFromUseCase(report))
}

// Rebuild recomputes every balance from the journal.
func (h *LedgerHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if err := h.rebuilder.Rebuild(r.Context()); err != nil {
		writeDomainError(w, r, "failed to rebuild balances", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
}
