package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobooks/internal/adapter/http/dto"
	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/translator"
	"github.com/iho/gobooks/internal/usecase"
)

// IntegrationService posts business events as journal entries.
// *usecase.IntegrationUseCase satisfies it.
type IntegrationService interface {
	InvoiceIssued(ctx context.Context, e translator.InvoiceIssued) (*domain.JournalEntry, error)
	InvoicePaid(ctx context.Context, e translator.InvoicePaid) (*domain.JournalEntry, error)
	PurchaseOrderReceived(ctx context.Context, e translator.PurchaseOrderReceived) (*domain.JournalEntry, error)
	SupplierPaid(ctx context.Context, e translator.SupplierPaid) (*domain.JournalEntry, error)
	InventoryMovement(ctx context.Context, e translator.InventoryMovement) (*domain.JournalEntry, error)
	Expense(ctx context.Context, e translator.Expense) (*domain.JournalEntry, error)
	OpeningBalances(ctx context.Context, e translator.OpeningBalances) (*domain.JournalEntry, error)
	PurchaseInvoiceApproved(ctx context.Context, e translator.PurchaseInvoiceApproved) (*usecase.PurchasePosting, error)
	Classify(description string) translator.Suggestion
}

// EventHandler accepts business events from upstream systems.
type EventHandler struct {
	integration IntegrationService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(integration IntegrationService) *EventHandler {
	return &EventHandler{integration: integration}
}

// Post translates and posts the event named by the kind path parameter.
func (h *EventHandler) Post(w http.ResponseWriter, r *http.Request) {
	s := h.integration
	switch kind := chi.URLParam(r, "kind"); kind {
	case translator.KindInvoiceIssued:
		postEvent[translator.InvoiceIssued, dto.InvoiceIssuedRequest](w, r, s.InvoiceIssued)
	case translator.KindInvoicePaid:
		postEvent[translator.InvoicePaid, dto.InvoicePaidRequest](w, r, s.InvoicePaid)
	case translator.KindPurchaseOrderReceived:
		postEvent[translator.PurchaseOrderReceived, dto.PurchaseOrderReceivedRequest](w, r, s.PurchaseOrderReceived)
	case translator.KindSupplierPaid:
		postEvent[translator.SupplierPaid, dto.SupplierPaidRequest](w, r, s.SupplierPaid)
	case translator.KindInventoryMovement:
		postEvent[translator.InventoryMovement, dto.InventoryMovementRequest](w, r, s.InventoryMovement)
	case translator.KindExpense:
		postEvent[translator.Expense, dto.ExpenseRequest](w, r, s.Expense)
	case translator.KindOpeningBalances:
		postEvent[translator.OpeningBalances, dto.OpeningBalancesRequest](w, r, s.OpeningBalances)
	case translator.KindPurchaseInvoiceApproved:
		h.purchaseInvoiceApproved(w, r)
	default:
		writeError(w, http.StatusNotFound, "unknown event kind", kind)
	}
}

func (h *EventHandler) purchaseInvoiceApproved(w http.ResponseWriter, r *http.Request) {
	var req dto.PurchaseInvoiceApprovedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, "invalid event", err)
		return
	}
	event, err := req.ToEvent()
	if err != nil {
		writeDomainError(w, r, "invalid event", err)
		return
	}

	posting, err := h.integration.PurchaseInvoiceApproved(r.Context(), event)
	if err != nil {
		writeDomainError(w, r, "failed to post event", err)
		return
	}

	suggestions := make([]dto.SuggestionResponse, len(posting.Suggestions))
	for i, s := range posting.Suggestions {
		suggestions[i] = dto.SuggestionFromTranslator(s)
	}

	writeJSON(w, http.StatusCreated, dto.PurchasePostingResponse{
		Entry:       dto.EntryFromDomain(posting.Entry),
		Suggestions: suggestions,
	})
}

// Classify suggests an account for a free-text description.
func (h *EventHandler) Classify(w http.ResponseWriter, r *http.Request) {
	description := strings.TrimSpace(r.URL.Query().Get("description"))
	if description == "" {
		writeDomainError(w, r, "invalid description", &dto.RequestError{
			Details: []dto.ErrorDetail{{Field: "description", Reason: "is required"}},
		})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuggestionFromTranslator(h.integration.Classify(description)))
}

// eventRequest is a request body that converts into event E.
type eventRequest[E any] interface {
	ToEvent() (E, error)
}

func postEvent[E any, R any, PR interface {
	*R
	eventRequest[E]
}](w http.ResponseWriter, r *http.Request, post func(context.Context, E) (*domain.JournalEntry, error)) {
	req := PR(new(R))
	if err := decodeJSON(w, r, req); err != nil {
		writeDomainError(w, r, "invalid event", err)
		return
	}

	event, err := req.ToEvent()
	if err != nil {
		writeDomainError(w, r, "invalid event", err)
		return
	}

	entry, err := post(r.Context(), event)
	if err != nil {
		writeDomainError(w, r, "failed to post event", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}
