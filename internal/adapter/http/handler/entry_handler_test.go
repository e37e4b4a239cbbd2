package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobooks/internal/adapter/http/dto"
	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/usecase"
)

type entryServiceStub struct {
	postFn    func(ctx context.Context, proposed domain.ProposedEntry) (*domain.JournalEntry, error)
	reverseFn func(ctx context.Context, id int64, date time.Time, description string) (*domain.JournalEntry, error)
	getFn     func(ctx context.Context, id int64) (*domain.JournalEntry, error)
	listFn    func(ctx context.Context, f usecase.EntryFilter) []*domain.JournalEntry
}

func (s *entryServiceStub) Post(ctx context.Context, proposed domain.ProposedEntry) (*domain.JournalEntry, error) {
	return s.postFn(ctx, proposed)
}

func (s *entryServiceStub) Reverse(ctx context.Context, id int64, date time.Time, description string) (*domain.JournalEntry, error) {
	return s.reverseFn(ctx, id, date, description)
}

func (s *entryServiceStub) Get(ctx context.Context, id int64) (*domain.JournalEntry, error) {
	return s.getFn(ctx, id)
}

func (s *entryServiceStub) List(ctx context.Context, f usecase.EntryFilter) []*domain.JournalEntry {
	return s.listFn(ctx, f)
}

func postedEntry(id int64) *domain.JournalEntry {
	return &domain.JournalEntry{
		ID:   id,
		Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Lines: []domain.Line{
			{AccountCode: "1101", Debit: decimal.NewFromInt(10)},
			{AccountCode: "4101", Credit: decimal.NewFromInt(10)},
		},
	}
}

func TestEntryHandler_Post(t *testing.T) {
	var captured domain.ProposedEntry
	handler := NewEntryHandler(&entryServiceStub{
		postFn: func(ctx context.Context, proposed domain.ProposedEntry) (*domain.JournalEntry, error) {
			captured = proposed
			return postedEntry(1), nil
		},
	})

	body := `{"date":"2024-01-02","reference":"S-1","lines":[
		{"account_code":"1101","debit":"10"},
		{"account_code":"4101","credit":"10"}]}`
	rec := httptest.NewRecorder()
	handler.Post(rec, httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Reference != "S-1" || len(captured.Lines) != 2 || !captured.Lines[0].Debit.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected proposed entry %+v", captured)
	}
	if captured.Date.Format(time.DateOnly) != "2024-01-02" {
		t.Fatalf("unexpected date %v", captured.Date)
	}
}

func TestEntryHandler_Post_MissingLines(t *testing.T) {
	handler := NewEntryHandler(&entryServiceStub{})

	rec := httptest.NewRecorder()
	handler.Post(rec, httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(`{"date":"2024-13-01"}`)))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Details) == 0 || resp.Details[0].Field != "date" {
		t.Fatalf("expected date detail, got %+v", resp.Details)
	}
}

func TestEntryHandler_Get(t *testing.T) {
	handler := NewEntryHandler(&entryServiceStub{
		getFn: func(ctx context.Context, id int64) (*domain.JournalEntry, error) {
			if id != 7 {
				return nil, domain.ErrEntryNotFound
			}
			return postedEntry(7), nil
		},
	})

	tests := []struct {
		id     string
		status int
	}{
		{"7", http.StatusOK},
		{"8", http.StatusNotFound},
		{"abc", http.StatusBadRequest},
		{"0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			req := withURLParams(httptest.NewRequest(http.MethodGet, "/entries/"+tt.id, nil), "id", tt.id)
			rec := httptest.NewRecorder()
			handler.Get(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestEntryHandler_List_Paginates(t *testing.T) {
	var captured usecase.EntryFilter
	handler := NewEntryHandler(&entryServiceStub{
		listFn: func(ctx context.Context, f usecase.EntryFilter) []*domain.JournalEntry {
			captured = f
			return []*domain.JournalEntry{postedEntry(1), postedEntry(2), postedEntry(3)}
		},
	})

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/entries?account=1101&from=2024-01-01&to=2024-12-31&limit=2&offset=1", nil))

	if captured.AccountCode != "1101" || captured.From.Year() != 2024 || captured.To.Month() != time.December {
		t.Fatalf("unexpected filter %+v", captured)
	}

	var resp dto.ListEntriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 3 || len(resp.Entries) != 2 || resp.Entries[0].ID != 2 {
		t.Fatalf("unexpected page %+v", resp)
	}
}

func TestEntryHandler_List_OffsetBeyondEnd(t *testing.T) {
	handler := NewEntryHandler(&entryServiceStub{
		listFn: func(ctx context.Context, f usecase.EntryFilter) []*domain.JournalEntry {
			return []*domain.JournalEntry{postedEntry(1), postedEntry(2), postedEntry(3)}
		},
	})

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"max int offset", "offset=9223372036854775807&limit=10", 0},
		{"offset past total", "offset=5&limit=2", 0},
		{"last page short", "offset=2&limit=1000", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.List(rec, httptest.NewRequest(http.MethodGet, "/entries?"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var resp dto.ListEntriesResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Total != 3 || len(resp.Entries) != tt.want {
				t.Fatalf("expected %d of 3 entries, got %+v", tt.want, resp)
			}
		})
	}
}

func TestEntryHandler_List_InvertedPeriod(t *testing.T) {
	handler := NewEntryHandler(&entryServiceStub{})

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/entries?from=2024-02-01&to=2024-01-01", nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestEntryHandler_ListByAccount(t *testing.T) {
	var captured usecase.EntryFilter
	handler := NewEntryHandler(&entryServiceStub{
		listFn: func(ctx context.Context, f usecase.EntryFilter) []*domain.JournalEntry {
			captured = f
			return nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/accounts/4101/entries", nil), "code", "4101")
	rec := httptest.NewRecorder()
	handler.ListByAccount(rec, req)

	if rec.Code != http.StatusOK || captured.AccountCode != "4101" {
		t.Fatalf("expected 200 for account 4101, got %d %+v", rec.Code, captured)
	}
}

func TestEntryHandler_Reverse(t *testing.T) {
	var (
		gotID   int64
		gotDate time.Time
	)
	handler := NewEntryHandler(&entryServiceStub{
		reverseFn: func(ctx context.Context, id int64, date time.Time, description string) (*domain.JournalEntry, error) {
			gotID, gotDate = id, date
			if id == 2 {
				return nil, domain.ErrDuplicateSource
			}
			return postedEntry(9), nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodPost, "/entries/1/reverse", strings.NewReader(`{"date":"2024-03-01"}`)), "id", "1")
	rec := httptest.NewRecorder()
	handler.Reverse(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotID != 1 || gotDate.Format(time.DateOnly) != "2024-03-01" {
		t.Fatalf("unexpected reversal args %d %v", gotID, gotDate)
	}

	req = withURLParams(httptest.NewRequest(http.MethodPost, "/entries/2/reverse", nil), "id", "2")
	rec = httptest.NewRecorder()
	handler.Reverse(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a second reversal, got %d", rec.Code)
	}
}
