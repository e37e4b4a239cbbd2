package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/translator"
)

// IntegrationUseCase turns business events into posted journal entries.
type IntegrationUseCase struct {
	translator *translator.Translator
	poster     EntryPoster
	logger     zerolog.Logger
}

// NewIntegrationUseCase creates the event integration use case.
func NewIntegrationUseCase(t *translator.Translator, poster EntryPoster, logger zerolog.Logger) *IntegrationUseCase {
	return &IntegrationUseCase{
		translator: t,
		poster:     poster,
		logger:     logger,
	}
}

// PurchasePosting is the result of posting a supplier invoice.
type PurchasePosting struct {
	Entry       *domain.JournalEntry
	Suggestions []translator.Suggestion
}

func (uc *IntegrationUseCase) InvoiceIssued(ctx context.Context, e translator.InvoiceIssued) (*domain.JournalEntry, error) {
	p, err := uc.translator.InvoiceIssued(e)
	return uc.post(ctx, translator.KindInvoiceIssued, p, err)
}

func (uc *IntegrationUseCase) InvoicePaid(ctx context.Context, e translator.InvoicePaid) (*domain.JournalEntry, error) {
	p, err := uc.translator.InvoicePaid(e)
	return uc.post(ctx, translator.KindInvoicePaid, p, err)
}

func (uc *IntegrationUseCase) PurchaseOrderReceived(ctx context.Context, e translator.PurchaseOrderReceived) (*domain.JournalEntry, error) {
	p, err := uc.translator.PurchaseOrderReceived(e)
	return uc.post(ctx, translator.KindPurchaseOrderReceived, p, err)
}

func (uc *IntegrationUseCase) SupplierPaid(ctx context.Context, e translator.SupplierPaid) (*domain.JournalEntry, error) {
	p, err := uc.translator.SupplierPaid(e)
	return uc.post(ctx, translator.KindSupplierPaid, p, err)
}

func (uc *IntegrationUseCase) InventoryMovement(ctx context.Context, e translator.InventoryMovement) (*domain.JournalEntry, error) {
	p, err := uc.translator.InventoryMovement(e)
	return uc.post(ctx, translator.KindInventoryMovement, p, err)
}

func (uc *IntegrationUseCase) Expense(ctx context.Context, e translator.Expense) (*domain.JournalEntry, error) {
	p, err := uc.translator.Expense(e)
	return uc.post(ctx, translator.KindExpense, p, err)
}

func (uc *IntegrationUseCase) OpeningBalances(ctx context.Context, e translator.OpeningBalances) (*domain.JournalEntry, error) {
	p, err := uc.translator.OpeningBalances(e)
	return uc.post(ctx, translator.KindOpeningBalances, p, err)
}

// PurchaseInvoiceApproved posts a supplier invoice and reports how each item
// without an explicit account was classified.
func (uc *IntegrationUseCase) PurchaseInvoiceApproved(ctx context.Context, e translator.PurchaseInvoiceApproved) (*PurchasePosting, error) {
	p, suggestions, err := uc.translator.PurchaseInvoiceApproved(e)
	entry, err := uc.post(ctx, translator.KindPurchaseInvoiceApproved, p, err)
	if err != nil {
		return nil, err
	}

	for i, s := range suggestions {
		if s.Confidence < 1 {
			uc.logger.Debug().
				Str("invoice", e.Number).
				Int("item", i).
				Str("category", string(s.Category)).
				Float64("confidence", s.Confidence).
				Msg("purchase item classified")
		}
	}
	return &PurchasePosting{Entry: entry, Suggestions: suggestions}, nil
}

// Classify suggests an account for a purchase description.
func (uc *IntegrationUseCase) Classify(description string) translator.Suggestion {
	return uc.translator.Classifier().Classify(description)
}

func (uc *IntegrationUseCase) post(ctx context.Context, kind string, p domain.ProposedEntry, err error) (*domain.JournalEntry, error) {
	if err != nil {
		uc.logger.Debug().Err(err).Str("kind", kind).Msg("event rejected")
		return nil, err
	}

	entry, err := uc.poster.Post(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", kind, err)
	}

	uc.logger.Info().Str("kind", kind).Int64("entry_id", entry.ID).Str("reference", entry.Reference).Msg("event posted")
	return entry, nil
}
