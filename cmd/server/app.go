package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/gobooks/internal/adapter/http"
	"github.com/iho/gobooks/internal/adapter/http/handler"
	"github.com/iho/gobooks/internal/adapter/http/middleware"
	"github.com/iho/gobooks/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gobooks/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gobooks/internal/adapter/repository/redis"
	"github.com/iho/gobooks/internal/domain"
	"github.com/iho/gobooks/internal/infrastructure/config"
	"github.com/iho/gobooks/internal/infrastructure/eventpublisher"
	"github.com/iho/gobooks/internal/infrastructure/metrics"
	"github.com/iho/gobooks/internal/infrastructure/redis"
	"github.com/iho/gobooks/internal/translator"
	"github.com/iho/gobooks/internal/usecase"
)

// limiterIdle is how long a client may stay silent before its rate limiter
// is dropped.
const limiterIdle = 10 * time.Minute

// app holds the wired service and its background workers.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	handler     http.Handler
	reconciler  *usecase.ReconciliationUseCase
	publisher   *eventpublisher.EventPublisher
	rateLimiter *middleware.RateLimiter
	closers     []func()
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.close)

	m := metrics.New(reg)
	idGen := postgresRepo.NewEventIDGenerator()

	// Translator account map
	accountMap := translator.DefaultAccountMap()
	var keywords map[translator.Category][]string
	if cfg.AccountMapPath != "" {
		file, err := translator.LoadMappingFile(cfg.AccountMapPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		accountMap, keywords = file.Accounts, file.Keywords
		logger.Info().Str("path", cfg.AccountMapPath).Msg("loaded account map")
	}

	// Core use cases
	ledger := usecase.NewLedger(store.entries, usecase.NewEntryValidator(store.accounts), logger).
		WithOutbox(store.outbox, idGen).
		WithMetrics(m)
	balances := usecase.NewBalanceEngine(store.accounts, ledger, logger).
		WithCostPrefixes(cfg.CostCodePrefixes).
		WithMetrics(m)
	ledger.Observe(balances)
	chart := usecase.NewChartOfAccounts(store.accounts, ledger, logger).
		WithOutbox(store.outbox, idGen).
		WithMetrics(m).
		Observe(balances)

	if cfg.SeedDefaultChart {
		n, err := chart.SeedAccounts(ctx, domain.DefaultChart())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to seed chart of accounts: %w", err)
		}
		if n > 0 {
			logger.Info().Int("accounts", n).Msg("seeded default chart of accounts")
		}
	}

	if err := ledger.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}

	integration := usecase.NewIntegrationUseCase(
		translator.New(accountMap, translator.NewClassifier(accountMap, keywords)), ledger, logger)
	a.reconciler = usecase.NewReconciliationUseCase(store.accounts, ledger, balances, logger)

	// Redis backs idempotency, the report cache and event fan-out when configured
	var (
		idempotency usecase.IdempotencyStore = memory.NewIdempotencyStore()
		publisher   eventpublisher.Publisher = eventpublisher.NewLogPublisher(logger)
	)
	checks := store.checks
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		logger.Info().Msg("connected to redis")

		idempotency = redisRepo.NewIdempotencyStore(client)
		publisher = redisRepo.NewPublisher(client, "gobooks")
		balances.WithReportCache(redisRepo.NewCache(client), cfg.ReportCacheTTL)
		checks["redis"] = pingRedis(client)
	}

	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: store.outbox,
		Publisher:  publisher,
		Observer:   m,
		Logger:     logger.With().Str("component", "outbox").Logger(),
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})

	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	var metricsHandler http.Handler = promhttp.Handler()
	if g, ok := reg.(prometheus.Gatherer); ok {
		metricsHandler = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(chart, balances),
		EntryHandler:     handler.NewEntryHandler(ledger),
		ReportHandler:    handler.NewReportHandler(balances),
		LedgerHandler:    handler.NewLedgerHandler(a.reconciler, balances),
		EventHandler:     handler.NewEventHandler(integration),
		HealthHandler:    handler.NewHealthHandler(checks),
		IdempotencyStore: idempotency,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      a.rateLimiter,
		Metrics:          m,
		MetricsHandler:   metricsHandler,
		Logger:           logger,
	})

	logger.Info().
		Str("storage", cfg.StorageDriver).
		Int("entries", ledger.Count()).
		Bool("redis", cfg.RedisURL != "").
		Msg("ledger ready")

	return a, nil
}

// Run serves HTTP and runs the background workers until ctx is cancelled
// or one of them fails.
func (a *app) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         ":" + a.cfg.HTTPPort,
		Handler:      a.handler,
		ReadTimeout:  a.cfg.HTTPReadTimeout,
		WriteTimeout: a.cfg.HTTPWriteTimeout,
		IdleTimeout:  a.cfg.HTTPIdleTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("port", a.cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return ignoreCanceled(a.publisher.Start(ctx))
	})

	if a.cfg.ReconcileInterval > 0 {
		g.Go(func() error {
			return every(ctx, a.cfg.ReconcileInterval, a.reconcile)
		})
	}

	if a.rateLimiter != nil {
		g.Go(func() error {
			return every(ctx, limiterIdle, func(context.Context) {
				if n := a.rateLimiter.CleanupLimiters(limiterIdle); n > 0 {
					a.logger.Debug().Int("removed", n).Msg("dropped idle rate limiters")
				}
			})
		})
	}

	return g.Wait()
}

// reconcile compares incremental balances with the journal. Drift is
// repaired by the reconciler and only logged here.
func (a *app) reconcile(ctx context.Context) {
	report, err := a.reconciler.GenerateReconciliationReport(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("periodic reconciliation failed")
		return
	}

	event := a.logger.Info()
	if len(report.Discrepancies) > 0 || !report.LedgerConsistent {
		event = a.logger.Warn()
	}
	event.
		Int("accounts", report.TotalAccounts).
		Int("discrepancies", len(report.Discrepancies)).
		Bool("consistent", report.LedgerConsistent).
		Bool("rebuilt", report.Rebuilt).
		Msg("periodic reconciliation finished")
}

// Close releases storage and client connections in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// every runs fn on each tick until ctx is cancelled.
func every(ctx context.Context, interval time.Duration, fn func(context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func pingRedis(client *goredis.Client) handler.Pinger {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
