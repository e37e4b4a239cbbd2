package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobooks/internal/adapter/http/dto"
	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

// EntryService defines the journal operations needed by EntryHandler.
// *usecase.Ledger satisfies it.
type EntryService interface {
	Post(ctx context.Context, proposed domain.ProposedEntry) (*domain.JournalEntry, error)
	Reverse(ctx context.Context, id int64, date time.Time, description string) (*domain.JournalEntry, error)
	Get(ctx context.Context, id int64) (*domain.JournalEntry, error)
	List(ctx context.Context, f usecase.EntryFilter) []*domain.JournalEntry
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	ledger EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(ledger EntryService) *EntryHandler {
	return &EntryHandler{ledger: ledger}
}

// Post validates and appends a journal entry.
func (h *EntryHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req dto.PostEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, "invalid journal entry", err)
		return
	}

	proposed, err := req.ToProposedEntry()
	if err != nil {
		writeDomainError(w, r, "invalid journal entry", err)
		return
	}

	entry, err := h.ledger.Post(r.Context(), proposed)
	if err != nil {
		writeDomainError(w, r, "failed to post entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Get retrieves an entry by id.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	entry, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// List lists entries filtered by account and date range.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("account"))
}

// ListByAccount lists entries that post to the account in the path.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, chi.URLParam(r, "code"))
}

func (h *EntryHandler) list(w http.ResponseWriter, r *http.Request, account string) {
	from, err := parseDateQuery(r, "from")
	if err != nil {
		writeDomainError(w, r, "invalid filter", err)
		return
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		writeDomainError(w, r, "invalid filter", err)
		return
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		writeDomainError(w, r, "invalid filter", domain.ErrInvalidPeriod)
		return
	}

	limit, offset, _ := domain.ValidatePagination(parseIntQuery(r, "limit", 0), parseIntQuery(r, "offset", 0))

	entries := h.ledger.List(r.Context(), usecase.EntryFilter{AccountCode: account, From: from, To: to})
	total := len(entries)

	start := min(offset, total)
	page := entries[start : start+min(limit, total-start)]

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(page),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// Reverse posts an entry that offsets the entry in the path.
func (h *EntryHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	var req dto.ReverseEntryRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeDomainError(w, r, "invalid reversal", err)
			return
		}
	}

	date, err := req.ReversalDate()
	if err != nil {
		writeDomainError(w, r, "invalid reversal", err)
		return
	}

	entry, err := h.ledger.Reverse(r.Context(), id, date, req.Description)
	if err != nil {
		writeDomainError(w, r, "failed to reverse entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

func entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid entry id", chi.URLParam(r, "id"))
		return 0, false
	}
	return id, true
}
