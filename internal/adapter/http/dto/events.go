package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/translator"
)

// InvoiceIssuedRequest is the body of POST /events/invoice_issued.
type InvoiceIssuedRequest struct {
	Number   string          `json:"number"   validate:"required,reference"`
	Date     string          `json:"date"     validate:"required,datetime=2006-01-02"`
	Customer string          `json:"customer" validate:"max=255"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func (r *InvoiceIssuedRequest) ToEvent() (translator.InvoiceIssued, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return translator.InvoiceIssued{}, err
	}
	return translator.InvoiceIssued{
		Number:   r.Number,
		Date:     date,
		Customer: r.Customer,
		Subtotal: r.Subtotal,
		Tax:      r.Tax,
		Total:    r.Total,
	}, nil
}

// InvoicePaidRequest is the body of POST /events/invoice_paid.
type InvoicePaidRequest struct {
	Number    string          `json:"number"    validate:"required,reference"`
	Reference string          `json:"reference" validate:"reference"`
	Date      string          `json:"date"      validate:"required,datetime=2006-01-02"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"    validate:"max=64"`
}

func (r *InvoicePaidRequest) ToEvent() (translator.InvoicePaid, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return translator.InvoicePaid{}, err
	}
	return translator.InvoicePaid{
		Number:    r.Number,
		Reference: r.Reference,
		Date:      date,
		Amount:    r.Amount,
		Method:    r.Method,
	}, nil
}

// PurchaseOrderReceivedRequest is the body of POST /events/purchase_order_received.
type PurchaseOrderReceivedRequest struct {
	Number   string          `json:"number"   validate:"required,reference"`
	Date     string          `json:"date"     validate:"required,datetime=2006-01-02"`
	Supplier string          `json:"supplier" validate:"max=255"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func (r *PurchaseOrderReceivedRequest) ToEvent() (translator.PurchaseOrderReceived, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return translator.PurchaseOrderReceived{}, err
	}
	return translator.PurchaseOrderReceived{
		Number:   r.Number,
		Date:     date,
		Supplier: r.Supplier,
		Subtotal: r.Subtotal,
		Tax:      r.Tax,
		Total:    r.Total,
	}, nil
}

// SupplierPaidRequest is the body of POST /events/supplier_paid.
type SupplierPaidRequest struct {
	Reference string          `json:"reference" validate:"required,reference"`
	Date      string          `json:"date"      validate:"required,datetime=2006-01-02"`
	Supplier  string          `json:"supplier"  validate:"max=255"`
	Amount    decimal.Decimal `json:"amount"`
}

func (r *SupplierPaidRequest) ToEvent() (translator.SupplierPaid, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return translator.SupplierPaid{}, err
	}
	return translator.SupplierPaid{Reference: r.Reference, Date: date, Supplier: r.Supplier, Amount: r.Amount}, nil
}

// InventoryMovementRequest is the body of POST /events/inventory_movement.
type InventoryMovementRequest struct {
	Reference  string          `json:"reference"    validate:"required,reference"`
	Kind       string          `json:"kind"         validate:"required,oneof=purchase sale adjustment"`
	SKU        string          `json:"sku"          validate:"required,max=64"`
	Date       string          `json:"date"         validate:"required,datetime=2006-01-02"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	PaidInCash bool            `json:"paid_in_cash"`
}

func (r *InventoryMovementRequest) ToEvent() (translator.InventoryMovement, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return translator.InventoryMovement{}, err
	}
	return translator.InventoryMovement{
		Reference:  r.Reference,
		Kind:       translator.MovementKind(r.Kind),
		SKU:        r.SKU,
		Date:       date,
		Quantity:   r.Quantity,
		UnitCost:   r.UnitCost,
		PaidInCash: r.PaidInCash,
	}, nil
}

// ExpenseRequest is the body of POST /events/expense.
type ExpenseRequest struct {
	Reference   string          `json:"reference"    validate:"required,reference"`
	Date        string          `json:"date"         validate:"required,datetime=2006-01-02"`
	Description string          `json:"description"  validate:"max=1000"`
	AccountCode string          `json:"account_code" validate:"omitempty,len=4,numeric"`
	Amount      decimal.Decimal `json:"amount"`
	Tax         decimal.Decimal `json:"tax"`
	PaidInCash  bool            `json:"paid_in_cash"`
}

func (r *ExpenseRequest) ToEvent() (translator.Expense, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return translator.Expense{}, err
	}
	return translator.Expense{
		Reference:   r.Reference,
		Date:        date,
		Description: r.Description,
		AccountCode: r.AccountCode,
		Amount:      r.Amount,
		Tax:         r.Tax,
		PaidInCash:  r.PaidInCash,
	}, nil
}

// PurchaseItemRequest is one supplier invoice line.
type PurchaseItemRequest struct {
	Description string          `json:"description"  validate:"max=1000"`
	AccountCode string          `json:"account_code" validate:"omitempty,len=4,numeric"`
	Amount      decimal.Decimal `json:"amount"`
}

// PurchaseInvoiceApprovedRequest is the body of POST /events/purchase_invoice_approved.
type PurchaseInvoiceApprovedRequest struct {
	Number   string                `json:"number"   validate:"required,reference"`
	Date     string                `json:"date"     validate:"required,datetime=2006-01-02"`
	Supplier string                `json:"supplier" validate:"max=255"`
	Items    []PurchaseItemRequest `json:"items"    validate:"required,min=1,dive"`
	Tax      decimal.Decimal       `json:"tax"`
}

func (r *PurchaseInvoiceApprovedRequest) ToEvent() (translator.PurchaseInvoiceApproved, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return translator.PurchaseInvoiceApproved{}, err
	}
	items := make([]translator.PurchaseItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = translator.PurchaseItem{Description: it.Description, AccountCode: it.AccountCode, Amount: it.Amount}
	}
	return translator.PurchaseInvoiceApproved{
		Number:   r.Number,
		Date:     date,
		Supplier: r.Supplier,
		Items:    items,
		Tax:      r.Tax,
	}, nil
}

// OpeningBalanceRequest is the starting balance of one account.
type OpeningBalanceRequest struct {
	AccountCode string          `json:"account_code" validate:"required,len=4,numeric"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// OpeningBalancesRequest is the body of POST /events/opening_balances.
type OpeningBalancesRequest struct {
	Reference string                  `json:"reference" validate:"required,reference"`
	Date      string                  `json:"date"      validate:"required,datetime=2006-01-02"`
	Balances  []OpeningBalanceRequest `json:"balances"  validate:"required,min=1,dive"`
}

func (r *OpeningBalancesRequest) ToEvent() (translator.OpeningBalances, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return translator.OpeningBalances{}, err
	}
	balances := make([]translator.OpeningBalance, len(r.Balances))
	for i, b := range r.Balances {
		balances[i] = translator.OpeningBalance{AccountCode: b.AccountCode, Debit: b.Debit, Credit: b.Credit}
	}
	return translator.OpeningBalances{Reference: r.Reference, Date: date, Balances: balances}, nil
}
