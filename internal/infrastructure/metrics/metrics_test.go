package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/gobooks/internal/usecase"
)

var _ usecase.Metrics = (*Metrics)(nil)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.EntriesPosted == nil || m.HTTPRequests == nil || m.BalanceRebuilds == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.EntryRejected("unbalanced")
	m.AccountChanged("create")
	m.BalancesRebuilt("drift")
	m.ObserveHTTP(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(registry)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected duplicate registration to panic")
		}
	}()
	New(registry)
}

func TestRecorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.EntryPosted(3, 20*time.Millisecond)
	m.EntryPosted(2, time.Millisecond)
	if got := testutil.ToFloat64(m.EntriesPosted); got != 2 {
		t.Fatalf("expected 2 posted entries, got %v", got)
	}

	m.EntryRejected("unbalanced")
	m.EntryRejected("unbalanced")
	if got := testutil.ToFloat64(m.EntriesRejected.WithLabelValues("unbalanced")); got != 2 {
		t.Fatalf("expected 2 rejections, got %v", got)
	}

	m.BalanceDrift(4)
	m.BalanceDrift(0)
	if got := testutil.ToFloat64(m.DriftedAccounts); got != 0 {
		t.Fatalf("expected drift gauge to be reset, got %v", got)
	}

	m.EventPublished(nil)
	m.EventPublished(errors.New("down"))
	if testutil.ToFloat64(m.EventsPublished) != 1 || testutil.ToFloat64(m.PublishFailures) != 1 {
		t.Fatalf("expected one success and one failure")
	}

	m.InFlight(1)
	m.InFlight(-1)
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
		t.Fatalf("expected in-flight gauge 0, got %v", got)
	}
}
