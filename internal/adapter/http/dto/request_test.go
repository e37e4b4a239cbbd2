package dto

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateAccountRequest{
		Code:       "1102",
		Name:       "Petty cash",
		Type:       "asset",
		Category:   "current",
		ParentCode: "1101",
	}

	if err := Validate(req); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	got := req.ToUseCaseInput()
	want := usecase.CreateAccountInput{
		Code:       "1102",
		Name:       "Petty cash",
		Type:       domain.AccountTypeAsset,
		Category:   domain.CategoryCurrent,
		ParentCode: "1101",
	}

	if got != want {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	req := &CreateAccountRequest{Code: "11", Type: "income"}

	err := Validate(req)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}

	fields := map[string]string{}
	for _, d := range reqErr.Details {
		fields[d.Field] = d.Reason
	}

	for _, f := range []string{"code", "name", "type"} {
		if _, ok := fields[f]; !ok {
			t.Fatalf("expected a problem for %q, got %+v", f, reqErr.Details)
		}
	}
	if fields["name"] != "is required" {
		t.Fatalf("unexpected reason for name: %q", fields["name"])
	}
}

func TestUpdateAccountRequest_ToUseCaseInput(t *testing.T) {
	category := "fixed"
	active := false
	req := &UpdateAccountRequest{Category: &category, Active: &active}

	got := req.ToUseCaseInput()
	if got.Name != nil || got.Category == nil || *got.Category != domain.CategoryFixed || *got.Active {
		t.Fatalf("unexpected input: %+v", got)
	}
}

func TestPostEntryRequest_ToProposedEntry(t *testing.T) {
	tests := []struct {
		name        string
		request     *PostEntryRequest
		expectError bool
	}{
		{
			name: "valid entry",
			request: &PostEntryRequest{
				Date:      "2024-03-01",
				Reference: "F-1",
				Lines: []LineRequest{
					{AccountCode: "1201", Debit: decimal.RequireFromString("119")},
					{AccountCode: "4101", Credit: decimal.RequireFromString("119")},
				},
			},
		},
		{
			name:        "bad date",
			request:     &PostEntryRequest{Date: "01/03/2024"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.ToProposedEntry()
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Date.Format(DateLayout) != tt.request.Date || len(got.Lines) != 2 {
				t.Fatalf("unexpected entry: %+v", got)
			}
			if !got.Lines[0].Debit.Equal(decimal.NewFromInt(119)) || !got.Lines[0].Credit.IsZero() {
				t.Fatalf("unexpected first line: %+v", got.Lines[0])
			}
		})
	}
}

func TestPostEntryRequest_ValidateDivesIntoLines(t *testing.T) {
	req := &PostEntryRequest{
		Date:  "2024-03-01",
		Lines: []LineRequest{{Debit: decimal.NewFromInt(1)}},
	}

	var reqErr *RequestError
	if err := Validate(req); !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.Details[0].Field != "lines[0].account_code" {
		t.Fatalf("unexpected field: %q", reqErr.Details[0].Field)
	}
}

func TestReverseEntryRequest_ReversalDate(t *testing.T) {
	req := &ReverseEntryRequest{}
	if d, err := req.ReversalDate(); err != nil || d.IsZero() {
		t.Fatalf("expected today, got %v %v", d, err)
	}

	req.Date = "2024-12-31"
	d, err := req.ReversalDate()
	if err != nil || d.Format(DateLayout) != "2024-12-31" {
		t.Fatalf("expected requested date, got %v %v", d, err)
	}
}

func TestEventRequests_ToEvent(t *testing.T) {
	inv := &PurchaseInvoiceApprovedRequest{
		Number: "P-1",
		Date:   "2024-03-05",
		Items: []PurchaseItemRequest{
			{Description: "steel sheets", Amount: decimal.NewFromInt(100)},
		},
		Tax: decimal.NewFromInt(19),
	}
	if err := Validate(inv); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	ev, err := inv.ToEvent()
	if err != nil || len(ev.Items) != 1 || ev.Items[0].Description != "steel sheets" {
		t.Fatalf("unexpected event: %+v %v", ev, err)
	}

	mov := &InventoryMovementRequest{Reference: "M-1", Kind: "loss", SKU: "A", Date: "2024-03-05"}
	if err := Validate(mov); err == nil {
		t.Fatalf("expected unknown movement kind to fail validation")
	}

	open := &OpeningBalancesRequest{Reference: "O-1", Date: "2024-01-01"}
	if err := Validate(open); err == nil {
		t.Fatalf("expected missing balances to fail validation")
	}
}

func TestValidateReferenceLength(t *testing.T) {
	tests := []struct {
		name    string
		req     any
		field   string
		wantErr bool
	}{
		{"entry at limit", &PostEntryRequest{Date: "2024-01-01", Reference: strings.Repeat("r", domain.MaxReferenceLength)}, "reference", false},
		{"entry over limit", &PostEntryRequest{Date: "2024-01-01", Reference: strings.Repeat("r", domain.MaxReferenceLength+1)}, "reference", true},
		{"invoice number over limit", &InvoiceIssuedRequest{Number: strings.Repeat("9", domain.MaxReferenceLength+1), Date: "2024-01-01"}, "number", true},
		{"payment reference over limit", &InvoicePaidRequest{Number: "F-1", Reference: strings.Repeat("t", domain.MaxReferenceLength+1), Date: "2024-01-01"}, "reference", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected validation error: %v", err)
				}
				return
			}

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected RequestError, got %v", err)
			}
			if len(reqErr.Details) != 1 || reqErr.Details[0].Field != tt.field {
				t.Fatalf("expected one problem on %q, got %+v", tt.field, reqErr.Details)
			}
			if reqErr.Details[0].Reason != "must be at most 64 characters" {
				t.Fatalf("unexpected reason: %q", reqErr.Details[0].Reason)
			}
		})
	}
}
