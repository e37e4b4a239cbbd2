package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/adapter/http/dto"
	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

type accountServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	updateFn func(ctx context.Context, code string, input usecase.UpdateAccountInput) (*domain.Account, error)
	deleteFn func(ctx context.Context, code string) (*usecase.DeactivateResult, error)
	getFn    func(ctx context.Context, code string) (*domain.Account, error)
	listFn   func(ctx context.Context, filter usecase.AccountFilter) ([]*domain.Account, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) UpdateAccount(ctx context.Context, code string, input usecase.UpdateAccountInput) (*domain.Account, error) {
	return s.updateFn(ctx, code, input)
}

func (s *accountServiceStub) DeactivateOrDelete(ctx context.Context, code string) (*usecase.DeactivateResult, error) {
	return s.deleteFn(ctx, code)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, code string) (*domain.Account, error) {
	return s.getFn(ctx, code)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, filter usecase.AccountFilter) ([]*domain.Account, error) {
	return s.listFn(ctx, filter)
}

type balanceReaderStub map[string]decimal.Decimal

func (s balanceReaderStub) AccountBalance(_ context.Context, code string) (decimal.Decimal, error) {
	return s[code], nil
}

var cash = &domain.Account{
	Code:     "1101",
	Name:     "Cash and Banks",
	Type:     domain.AccountTypeAsset,
	Category: domain.CategoryCurrent,
	Active:   true,
}

func TestAccountHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return cash, nil
		},
	}, nil)

	body, _ := json.Marshal(dto.CreateAccountRequest{
		Code:     "1101",
		Name:     "Cash and Banks",
		Type:     "asset",
		Category: "current",
	})

	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.Code != "1101" || captured.Type != domain.AccountTypeAsset || captured.Category != domain.CategoryCurrent {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "1101" || !resp.Active {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"code":`, http.StatusBadRequest},
		{"unknown field", `{"code":"1101","name":"Cash","type":"asset","currency":"USD"}`, http.StatusBadRequest},
		{"bad code", `{"code":"11","name":"Cash","type":"asset"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"code":"1101","name":"Cash","type":"money"}`, http.StatusUnprocessableEntity},
	}

	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Create(rec, httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader(tt.body)))
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAccountHandler_Create_Duplicate(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			return nil, domain.ErrDuplicateAccountCode
		},
	}, nil)

	body := `{"code":"1101","name":"Cash","type":"asset"}`
	rec := httptest.NewRecorder()
	handler.Create(rec, httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader(body)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAccountHandler_Get_NotFound(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, code string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	}, nil)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/accounts/9999", nil), "code", "9999")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAccountHandler_List_Filters(t *testing.T) {
	var captured usecase.AccountFilter
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, filter usecase.AccountFilter) ([]*domain.Account, error) {
			captured = filter
			return []*domain.Account{cash}, nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/accounts?type=asset&active_only=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Type != domain.AccountTypeAsset || !captured.ActiveOnly {
		t.Fatalf("unexpected filter %+v", captured)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 || resp.Accounts[0].Code != "1101" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Update_PassesPresentFields(t *testing.T) {
	var captured usecase.UpdateAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		updateFn: func(ctx context.Context, code string, input usecase.UpdateAccountInput) (*domain.Account, error) {
			captured = input
			return cash, nil
		},
	}, nil)

	req := withURLParams(httptest.NewRequest(http.MethodPatch, "/accounts/1101", strings.NewReader(`{"active":false}`)), "code", "1101")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Name != nil || captured.Active == nil || *captured.Active {
		t.Fatalf("expected only active=false, got %+v", captured)
	}
}

func TestAccountHandler_Delete(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		deleteFn: func(ctx context.Context, code string) (*usecase.DeactivateResult, error) {
			return &usecase.DeactivateResult{Account: cash, Deleted: false}, nil
		},
	}, nil)

	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/accounts/1101", nil), "code", "1101")
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	var resp dto.DeleteAccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Deleted || resp.Account.Code != "1101" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Balance(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, code string) (*domain.Account, error) { return cash, nil },
	}, balanceReaderStub{"1101": decimal.RequireFromString("250.5")})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/accounts/1101/balance", nil), "code", "1101")
	rec := httptest.NewRecorder()
	handler.Balance(rec, req)

	var resp dto.AccountBalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Balance != "250.50" || resp.Type != "asset" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Export(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, filter usecase.AccountFilter) ([]*domain.Account, error) {
			return []*domain.Account{cash}, nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	handler.Export(rec, httptest.NewRequest(http.MethodGet, "/accounts/export", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %s", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "1101,Cash and Banks,asset") {
		t.Fatalf("unexpected CSV:\n%s", rec.Body.String())
	}
}
