package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	mutualledger "mutua/contexts/insurance-core/mutual-ledger"
	"mutua/contexts/insurance-core/mutual-ledger/adapters/memory"
	postgresadapter "mutua/contexts/insurance-core/mutual-ledger/adapters/postgres"
	workerapp "mutua/contexts/insurance-core/mutual-ledger/application/workers"
	"mutua/contexts/insurance-core/mutual-ledger/ports"
	platformclock "mutua/internal/platform/clock"
	"mutua/internal/platform/config"
	"mutua/internal/platform/db"
	"mutua/internal/platform/httpserver"
	"mutua/internal/platform/messaging"
	"mutua/internal/platform/metrics"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	ledgerClock, manual := buildClock(cfg)

	var (
		pg     *db.Postgres
		module mutualledger.Module
	)
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		if err := repo.Migrate(context.Background()); err != nil {
			_ = pg.Close()
			return nil, err
		}
		module = mutualledger.NewModule(mutualledger.Dependencies{
			Products:  repo,
			Policies:  repo,
			Claims:    repo,
			Votes:     repo,
			Sequences: repo,
			Outbox:    repo,
			Clock:     ledgerClock,
			Transfer:  memory.NewTreasury(),
			Logger:    logger,
		})
	} else {
		module = mutualledger.NewInMemoryModule(ledgerClock, logger)
	}

	if err := seedProducts(module, cfg.ProductSeeds, logger); err != nil {
		if pg != nil {
			_ = pg.Close()
		}
		return nil, err
	}

	server := httpserver.New(
		module,
		metrics.New(),
		manual,
		cfg.OwnerID,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	ledgerClock, _ := buildClock(cfg)
	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: messaging.NewBus(logger),
			Clock:     ledgerClock,
			BatchSize: cfg.RelayBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.RelayPollInterval,
		logger:       logger,
	}, nil
}

func buildClock(cfg config.Config) (ports.Clock, *platformclock.Manual) {
	if cfg.ClockMode != "manual" {
		return platformclock.System{}, nil
	}
	start := time.Unix(cfg.ClockStartUnix, 0).UTC()
	if cfg.ClockStartUnix <= 0 {
		start = time.Now().UTC()
	}
	manual := platformclock.NewManual(start)
	return manual, manual
}

func seedProducts(module mutualledger.Module, seeds []config.ProductSeed, logger *slog.Logger) error {
	ctx := context.Background()
	for _, seed := range seeds {
		if _, found, err := module.Registry.Lookup(ctx, seed.Alias); err != nil {
			return err
		} else if found {
			continue
		}
		product, err := module.Registry.AddProduct(
			ctx,
			seed.Alias,
			seed.Price,
			time.Duration(seed.PeriodSeconds)*time.Second,
		)
		if err != nil {
			return err
		}
		logger.Info("product seeded",
			"event", "bootstrap_product_seeded",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"alias", product.Alias,
			"price", product.Price,
		)
	}
	return nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.Start()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	}
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
