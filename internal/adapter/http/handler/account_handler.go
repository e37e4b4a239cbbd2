package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/adapter/csvchart"
	"github.com/iho/gobooks/internal/adapter/http/dto"
	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

// AccountService defines the chart operations needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	UpdateAccount(ctx context.Context, code string, input usecase.UpdateAccountInput) (*domain.Account, error)
	DeactivateOrDelete(ctx context.Context, code string) (*usecase.DeactivateResult, error)
	GetAccount(ctx context.Context, code string) (*domain.Account, error)
	ListAccounts(ctx context.Context, filter usecase.AccountFilter) ([]*domain.Account, error)
}

// BalanceReader returns the signed balance of an account.
type BalanceReader interface {
	AccountBalance(ctx context.Context, code string) (decimal.Decimal, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accounts AccountService
	balances BalanceReader
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts AccountService, balances BalanceReader) *AccountHandler {
	return &AccountHandler{accounts: accounts, balances: balances}
}

// Create adds an account to the chart.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, "invalid account", err)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by code.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetAccount(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, r, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts sorted by code, optionally filtered by type.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAccounts(r.Context(), usecase.AccountFilter{
		Type:       domain.AccountType(r.URL.Query().Get("type")),
		ActiveOnly: parseBoolQuery(r, "active_only"),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    len(accounts),
	})
}

// Update changes the fields present in the body.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, "invalid account update", err)
		return
	}

	account, err := h.accounts.UpdateAccount(r.Context(), chi.URLParam(r, "code"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to update account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Delete removes an unused account or deactivates one with postings.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	result, err := h.accounts.DeactivateOrDelete(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, r, "failed to delete account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DeleteAccountResponse{
		Account: dto.AccountFromDomain(result.Account),
		Deleted: result.Deleted,
	})
}

// Balance returns the signed balance of an account.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	account, err := h.accounts.GetAccount(r.Context(), code)
	if err != nil {
		writeDomainError(w, r, "failed to get account", err)
		return
	}

	balance, err := h.balances.AccountBalance(r.Context(), code)
	if err != nil {
		writeDomainError(w, r, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountBalanceResponse{
		Code:    account.Code,
		Name:    account.Name,
		Type:    string(account.Type),
		Balance: dto.Amount(balance),
	})
}

// Export writes the chart as CSV.
func (h *AccountHandler) Export(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAccounts(r.Context(), usecase.AccountFilter{})
	if err != nil {
		writeDomainError(w, r, "failed to list accounts", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="accounts.csv"`)
	if err := csvchart.WriteAccounts(w, accounts); err != nil {
		writeDomainError(w, r, "failed to write accounts", err)
	}
}
