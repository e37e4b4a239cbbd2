package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/gobooks/internal/adapter/http/handler"
	boltRepo "github.com/iho/gobooks/internal/adapter/repository/bolt"
	"github.com/iho/gobooks/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gobooks/internal/adapter/repository/postgres"
	"github.com/iho/gobooks/internal/infrastructure/config"
	"github.com/iho/gobooks/internal/infrastructure/postgres"
	"github.com/iho/gobooks/internal/usecase"
)

// storage is the persistence selected by STORAGE_DRIVER.
type storage struct {
	accounts usecase.AccountRepository
	entries  usecase.EntryStore
	outbox   usecase.OutboxRepository
	checks   map[string]handler.Pinger
	close    func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn().Msg("using in-memory storage, the journal is lost on restart")
		return &storage{
			accounts: memory.NewAccountRepository(),
			entries:  memory.NewEntryStore(),
			outbox:   memory.NewOutboxRepository(),
			checks:   map[string]handler.Pinger{},
			close:    func() {},
		}, nil

	case config.StorageBolt:
		db, err := boltRepo.Open(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt database: %w", err)
		}
		logger.Info().Str("path", cfg.BoltPath).Msg("opened bolt database")
		return &storage{
			accounts: boltRepo.NewAccountRepository(db),
			entries:  boltRepo.NewEntryStore(db),
			outbox:   memory.NewOutboxRepository(),
			checks:   map[string]handler.Pinger{},
			close: func() {
				if err := db.Close(); err != nil {
					logger.Error().Err(err).Msg("failed to close bolt database")
				}
			},
		}, nil

	case config.StoragePostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return nil, err
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		logger.Info().Msg("connected to postgres")

		txManager := postgresRepo.NewTxManager(pool, postgresRepo.NewRetrier(logger))
		return &storage{
			accounts: postgresRepo.NewAccountRepository(pool),
			entries:  postgresRepo.NewEntryStore(pool, txManager),
			outbox:   postgresRepo.NewOutboxRepository(pool),
			checks:   map[string]handler.Pinger{"postgres": pool.Ping},
			close:    pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
