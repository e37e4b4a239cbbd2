package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/gobooks/internal/infrastructure/config"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		StorageDriver:    driver,
		HTTPPort:         "0",
		IdempotencyTTL:   time.Minute,
		CostCodePrefixes: []string{"5"},
		SeedDefaultChart: true,
		ReportCacheTTL:   time.Minute,
		OutboxInterval:   time.Second,
		OutboxBatchSize:  10,
	}
}

func postEntry(t *testing.T, h http.Handler) {
	t.Helper()
	body := `{"date":"2024-01-02","lines":[{"account_code":"1101","debit":"10"},{"account_code":"3101","credit":"10"}]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/entries/", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewApp_MemoryStorage(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(config.StorageMemory), zerolog.Nop(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rec.Code)
	}

	postEntry(t, a.handler)
}

func TestNewApp_BoltJournalSurvivesRestart(t *testing.T) {
	cfg := testConfig(config.StorageBolt)
	cfg.BoltPath = filepath.Join(t.TempDir(), "books.db")

	first, err := newApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	postEntry(t, first.handler)
	first.Close()

	second, err := newApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	rec := httptest.NewRecorder()
	second.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/1101/balance", nil))
	if !strings.Contains(rec.Body.String(), `"balance":"10.00"`) {
		t.Fatalf("expected balance restored from the journal, got %s", rec.Body.String())
	}
}

func TestNewApp_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(config.StorageMemory)
	cfg.RedisURL = "redis://" + mr.Addr()

	a, err := newApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"redis":"ok"`) {
		t.Fatalf("expected redis readiness, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestNewApp_UnknownDriver(t *testing.T) {
	if _, err := newApp(context.Background(), testConfig("sqlite"), zerolog.Nop(), prometheus.NewRegistry()); err == nil {
		t.Fatal("expected an error for an unknown storage driver")
	}
}

func TestNewApp_MissingAccountMap(t *testing.T) {
	cfg := testConfig(config.StorageMemory)
	cfg.AccountMapPath = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := newApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry()); err == nil {
		t.Fatal("expected an error for a missing account map")
	}
}

func TestEveryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- every(ctx, time.Millisecond, func(context.Context) {
			if ticks.Add(1) == 3 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("every did not stop after cancel")
	}
}
