// Package translator turns business events into balanced journal entries.
// Every translator is pure: it reads only its event and the account map.
package translator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/domain"
)

// ErrInvalidEvent is returned for events that cannot produce an entry.
var ErrInvalidEvent = errors.New("invalid event")

// Event kinds, also used as the source id namespace.
const (
	KindInvoiceIssued           = "invoice_issued"
	KindInvoicePaid             = "invoice_paid"
	KindPurchaseOrderReceived   = "purchase_order_received"
	KindSupplierPaid            = "supplier_paid"
	KindInventoryMovement       = "inventory_movement"
	KindExpense                 = "expense"
	KindPurchaseInvoiceApproved = "purchase_invoice_approved"
	KindOpeningBalances         = "opening_balances"
)

var sourceNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("gobooks.translator"))

// SourceID returns the deterministic source id for an event of kind
// identified by key.
func SourceID(kind, key string) string {
	return uuid.NewSHA1(sourceNamespace, []byte(strings.ToUpper(kind)+":"+key)).String()
}

// InvoiceIssued is a sales invoice sent to a customer. Total may be left
// zero; when set it must equal Subtotal+Tax.
type InvoiceIssued struct {
	Number   string
	Date     time.Time
	Customer string
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// InvoicePaid is a customer payment against an issued invoice. Reference
// identifies the payment so an invoice can be settled in parts; without it
// the invoice takes a single payment.
type InvoicePaid struct {
	Number    string
	Reference string
	Date      time.Time
	Amount    decimal.Decimal
	Method    string
}

// PurchaseOrderReceived is goods received into stock against a purchase order.
type PurchaseOrderReceived struct {
	Number   string
	Date     time.Time
	Supplier string
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// SupplierPaid is a payment made to a supplier.
type SupplierPaid struct {
	Reference string
	Date      time.Time
	Supplier  string
	Amount    decimal.Decimal
}

// MovementKind classifies an inventory movement.
type MovementKind string

const (
	MovementPurchase   MovementKind = "purchase"
	MovementSale       MovementKind = "sale"
	MovementAdjustment MovementKind = "adjustment"
)

// InventoryMovement is a stock change valued at UnitCost. Adjustments use a
// signed Quantity: positive for a gain, negative for a loss.
type InventoryMovement struct {
	Reference  string
	Kind       MovementKind
	SKU        string
	Date       time.Time
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	PaidInCash bool
}

// Expense is a generic expense. AccountCode overrides the general expense
// account.
type Expense struct {
	Reference   string
	Date        time.Time
	Description string
	AccountCode string
	Amount      decimal.Decimal
	Tax         decimal.Decimal
	PaidInCash  bool
}

// PurchaseItem is one line of a supplier invoice.
type PurchaseItem struct {
	Description string
	AccountCode string
	Amount      decimal.Decimal
}

// PurchaseInvoiceApproved is a supplier invoice approved for payment.
type PurchaseInvoiceApproved struct {
	Number   string
	Date     time.Time
	Supplier string
	Items    []PurchaseItem
	Tax      decimal.Decimal
}

// OpeningBalance is the starting balance of one account, given on its
// natural side.
type OpeningBalance struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// OpeningBalances starts the books at Date.
type OpeningBalances struct {
	Reference string
	Date      time.Time
	Balances  []OpeningBalance
}

// Translator maps events to entries using a fixed account map.
type Translator struct {
	accounts   AccountMap
	classifier *Classifier
}

// New creates a translator. A nil classifier uses the default rules.
func New(accounts AccountMap, classifier *Classifier) *Translator {
	if classifier == nil {
		classifier = NewClassifier(accounts, nil)
	}
	return &Translator{accounts: accounts, classifier: classifier}
}

// Accounts returns the account map in use.
func (t *Translator) Accounts() AccountMap {
	return t.accounts
}

// Classifier returns the classifier used for purchase items.
func (t *Translator) Classifier() *Classifier {
	return t.classifier
}

// InvoiceIssued books the receivable, the sale and the VAT owed.
func (t *Translator) InvoiceIssued(e InvoiceIssued) (domain.ProposedEntry, error) {
	if err := requireHeader(e.Number, e.Date); err != nil {
		return domain.ProposedEntry{}, err
	}
	subtotal, tax, total, err := invoiceFigures(e.Subtotal, e.Tax, e.Total)
	if err != nil {
		return domain.ProposedEntry{}, err
	}

	desc := describe("Invoice", e.Number, e.Customer)
	lines := []domain.Line{
		debitLine(t.accounts.Receivables, total, desc),
		creditLine(t.accounts.Sales, subtotal, desc),
	}
	lines = appendNonZero(lines, creditLine(t.accounts.VATDebit, tax, "VAT "+e.Number))

	return proposed(KindInvoiceIssued, e.Number, e.Number, e.Date, desc, lines), nil
}

// InvoicePaid books a customer payment into cash.
func (t *Translator) InvoicePaid(e InvoicePaid) (domain.ProposedEntry, error) {
	if err := requireHeader(e.Number, e.Date); err != nil {
		return domain.ProposedEntry{}, err
	}
	amount, err := positive("amount", e.Amount)
	if err != nil {
		return domain.ProposedEntry{}, err
	}

	desc := "Payment for invoice " + e.Number
	if e.Method != "" {
		desc += " (" + e.Method + ")"
	}
	lines := []domain.Line{
		debitLine(t.accounts.Cash, amount, desc),
		creditLine(t.accounts.Receivables, amount, desc),
	}
	key := e.Number
	if e.Reference != "" {
		key += ":" + e.Reference
	}
	return proposed(KindInvoicePaid, key, "PAY-"+e.Number, e.Date, desc, lines), nil
}

// PurchaseOrderReceived books received goods into inventory on credit.
func (t *Translator) PurchaseOrderReceived(e PurchaseOrderReceived) (domain.ProposedEntry, error) {
	if err := requireHeader(e.Number, e.Date); err != nil {
		return domain.ProposedEntry{}, err
	}
	subtotal, tax, total, err := invoiceFigures(e.Subtotal, e.Tax, e.Total)
	if err != nil {
		return domain.ProposedEntry{}, err
	}

	desc := describe("Goods received", e.Number, e.Supplier)
	lines := []domain.Line{debitLine(t.accounts.Inventory, subtotal, desc)}
	lines = appendNonZero(lines, debitLine(t.accounts.VATCredit, tax, "VAT "+e.Number))
	lines = append(lines, creditLine(t.accounts.Payables, total, desc))

	return proposed(KindPurchaseOrderReceived, e.Number, "GRN-"+e.Number, e.Date, desc, lines), nil
}

// SupplierPaid settles a payable from cash.
func (t *Translator) SupplierPaid(e SupplierPaid) (domain.ProposedEntry, error) {
	if err := requireHeader(e.Reference, e.Date); err != nil {
		return domain.ProposedEntry{}, err
	}
	amount, err := positive("amount", e.Amount)
	if err != nil {
		return domain.ProposedEntry{}, err
	}

	desc := describe("Supplier payment", e.Reference, e.Supplier)
	lines := []domain.Line{
		debitLine(t.accounts.Payables, amount, desc),
		creditLine(t.accounts.Cash, amount, desc),
	}
	return proposed(KindSupplierPaid, e.Reference, "APPAY-"+e.Reference, e.Date, desc, lines), nil
}

// InventoryMovement books a purchase, sale or count adjustment of stock.
func (t *Translator) InventoryMovement(e InventoryMovement) (domain.ProposedEntry, error) {
	if err := requireHeader(e.Reference, e.Date); err != nil {
		return domain.ProposedEntry{}, err
	}
	if e.SKU == "" {
		return domain.ProposedEntry{}, fmt.Errorf("%w: sku is required", ErrInvalidEvent)
	}
	if _, err := positive("unit cost", e.UnitCost); err != nil {
		return domain.ProposedEntry{}, err
	}

	qty := e.Quantity
	if e.Kind != MovementAdjustment {
		if _, err := positive("quantity", qty); err != nil {
			return domain.ProposedEntry{}, err
		}
	} else if qty.IsZero() {
		return domain.ProposedEntry{}, fmt.Errorf("%w: adjustment quantity must not be zero", ErrInvalidEvent)
	}

	value := round2(qty.Abs().Mul(e.UnitCost))
	if !value.IsPositive() {
		return domain.ProposedEntry{}, fmt.Errorf("%w: movement value rounds to zero", ErrInvalidEvent)
	}

	desc := fmt.Sprintf("Inventory %s %s x%s", e.Kind, e.SKU, qty.String())
	var lines []domain.Line
	var prefix string
	switch e.Kind {
	case MovementPurchase:
		settle := t.accounts.Payables
		if e.PaidInCash {
			settle = t.accounts.Cash
		}
		lines = []domain.Line{debitLine(t.accounts.Inventory, value, desc), creditLine(settle, value, desc)}
		prefix = "INV-IN-"
	case MovementSale:
		lines = []domain.Line{debitLine(t.accounts.CostOfSales, value, desc), creditLine(t.accounts.Inventory, value, desc)}
		prefix = "INV-OUT-"
	case MovementAdjustment:
		if qty.IsPositive() {
			lines = []domain.Line{debitLine(t.accounts.Inventory, value, desc), creditLine(t.accounts.InventoryGain, value, desc)}
		} else {
			lines = []domain.Line{debitLine(t.accounts.InventoryLoss, value, desc), creditLine(t.accounts.Inventory, value, desc)}
		}
		prefix = "ADJ-"
	default:
		return domain.ProposedEntry{}, fmt.Errorf("%w: unknown movement kind %q", ErrInvalidEvent, e.Kind)
	}

	key := string(e.Kind) + ":" + e.Reference + ":" + e.SKU
	return proposed(KindInventoryMovement, key, prefix+e.Reference, e.Date, desc, lines), nil
}

// Expense books an expense paid in cash or owed to a supplier.
func (t *Translator) Expense(e Expense) (domain.ProposedEntry, error) {
	if err := requireHeader(e.Reference, e.Date); err != nil {
		return domain.ProposedEntry{}, err
	}
	amount, err := positive("amount", e.Amount)
	if err != nil {
		return domain.ProposedEntry{}, err
	}
	tax, err := nonNegative("tax", e.Tax)
	if err != nil {
		return domain.ProposedEntry{}, err
	}

	account := e.AccountCode
	if account == "" {
		account = t.accounts.GeneralExpense
	}
	settle := t.accounts.Payables
	if e.PaidInCash {
		settle = t.accounts.Cash
	}

	desc := e.Description
	if desc == "" {
		desc = "Expense " + e.Reference
	}
	lines := []domain.Line{debitLine(account, amount, desc)}
	lines = appendNonZero(lines, debitLine(t.accounts.VATCredit, tax, "VAT "+e.Reference))
	lines = append(lines, creditLine(settle, amount.Add(tax), desc))

	return proposed(KindExpense, e.Reference, "EXP-"+e.Reference, e.Date, desc, lines), nil
}

// PurchaseInvoiceApproved books a supplier invoice, one debit per item.
// Items without an account code are classified by description; the
// returned suggestions line up with e.Items.
func (t *Translator) PurchaseInvoiceApproved(e PurchaseInvoiceApproved) (domain.ProposedEntry, []Suggestion, error) {
	if err := requireHeader(e.Number, e.Date); err != nil {
		return domain.ProposedEntry{}, nil, err
	}
	if len(e.Items) == 0 {
		return domain.ProposedEntry{}, nil, fmt.Errorf("%w: invoice has no items", ErrInvalidEvent)
	}
	tax, err := nonNegative("tax", e.Tax)
	if err != nil {
		return domain.ProposedEntry{}, nil, err
	}

	desc := describe("Supplier invoice", e.Number, e.Supplier)
	lines := make([]domain.Line, 0, len(e.Items)+2)
	suggestions := make([]Suggestion, 0, len(e.Items))
	total := decimal.Zero
	for i, item := range e.Items {
		amount, err := positive(fmt.Sprintf("item %d amount", i), item.Amount)
		if err != nil {
			return domain.ProposedEntry{}, nil, err
		}
		code, s := t.classifier.ResolveItemAccount(item.AccountCode, item.Description)
		suggestions = append(suggestions, s)

		lineDesc := item.Description
		if lineDesc == "" {
			lineDesc = desc
		}
		lines = append(lines, debitLine(code, amount, lineDesc))
		total = total.Add(amount)
	}
	lines = appendNonZero(lines, debitLine(t.accounts.VATCredit, tax, "VAT "+e.Number))
	lines = append(lines, creditLine(t.accounts.Payables, total.Add(tax), desc))

	return proposed(KindPurchaseInvoiceApproved, e.Number, "APINV-"+e.Number, e.Date, desc, lines), suggestions, nil
}

// OpeningBalances books starting balances against the opening equity
// account, which absorbs the difference between the two sides.
func (t *Translator) OpeningBalances(e OpeningBalances) (domain.ProposedEntry, error) {
	if err := requireHeader(e.Reference, e.Date); err != nil {
		return domain.ProposedEntry{}, err
	}
	if len(e.Balances) == 0 {
		return domain.ProposedEntry{}, fmt.Errorf("%w: no balances given", ErrInvalidEvent)
	}

	desc := "Opening balances " + e.Reference
	lines := make([]domain.Line, 0, len(e.Balances)+1)
	net := decimal.Zero
	for i, b := range e.Balances {
		if b.AccountCode == t.accounts.OpeningEquity {
			return domain.ProposedEntry{}, fmt.Errorf("%w: balance %d targets the opening equity account", ErrInvalidEvent, i)
		}
		debit, err := nonNegative("debit", b.Debit)
		if err != nil {
			return domain.ProposedEntry{}, err
		}
		credit, err := nonNegative("credit", b.Credit)
		if err != nil {
			return domain.ProposedEntry{}, err
		}
		if debit.IsPositive() == credit.IsPositive() {
			return domain.ProposedEntry{}, fmt.Errorf("%w: balance %d needs exactly one of debit or credit", ErrInvalidEvent, i)
		}
		lines = append(lines, domain.Line{AccountCode: b.AccountCode, Debit: debit, Credit: credit, Description: desc})
		net = net.Add(debit).Sub(credit)
	}

	switch {
	case net.IsPositive():
		lines = append(lines, creditLine(t.accounts.OpeningEquity, net, desc))
	case net.IsNegative():
		lines = append(lines, debitLine(t.accounts.OpeningEquity, net.Neg(), desc))
	}

	return proposed(KindOpeningBalances, e.Reference, "OPEN-"+e.Reference, e.Date, desc, lines), nil
}

func proposed(kind, key, reference string, date time.Time, desc string, lines []domain.Line) domain.ProposedEntry {
	return domain.ProposedEntry{
		Date:        domain.NormalizeDate(date),
		Reference:   reference,
		Description: desc,
		SourceID:    SourceID(kind, key),
		Lines:       lines,
	}
}

func requireHeader(number string, date time.Time) error {
	if strings.TrimSpace(number) == "" {
		return fmt.Errorf("%w: number is required", ErrInvalidEvent)
	}
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidEvent)
	}
	return nil
}

// invoiceFigures rounds the invoice amounts and derives the total when it
// was not supplied.
func invoiceFigures(subtotal, tax, total decimal.Decimal) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	s, err := positive("subtotal", subtotal)
	if err != nil {
		return s, s, s, err
	}
	tx, err := nonNegative("tax", tax)
	if err != nil {
		return s, tx, tx, err
	}
	sum := s.Add(tx)
	if total.IsZero() {
		return s, tx, sum, nil
	}
	if !domain.WithinTolerance(round2(total), sum) {
		return s, tx, total, fmt.Errorf("%w: total %s does not match subtotal+tax %s", ErrInvalidEvent, total.StringFixed(2), sum.StringFixed(2))
	}
	return s, tx, sum, nil
}

func positive(field string, d decimal.Decimal) (decimal.Decimal, error) {
	r := round2(d)
	if !r.IsPositive() {
		return r, fmt.Errorf("%w: %s must be positive", ErrInvalidEvent, field)
	}
	return r, nil
}

func nonNegative(field string, d decimal.Decimal) (decimal.Decimal, error) {
	r := round2(d)
	if r.IsNegative() {
		return r, fmt.Errorf("%w: %s must not be negative", ErrInvalidEvent, field)
	}
	return r, nil
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(domain.AmountPrecision)
}

func describe(what, number, party string) string {
	if party == "" {
		return what + " " + number
	}
	return what + " " + number + " - " + party
}

func debitLine(code string, amount decimal.Decimal, desc string) domain.Line {
	return domain.Line{AccountCode: code, Debit: amount, Credit: decimal.Zero, Description: desc}
}

func creditLine(code string, amount decimal.Decimal, desc string) domain.Line {
	return domain.Line{AccountCode: code, Debit: decimal.Zero, Credit: amount, Description: desc}
}

func appendNonZero(lines []domain.Line, l domain.Line) []domain.Line {
	if l.Amount().IsZero() {
		return lines
	}
	return append(lines, l)
}
