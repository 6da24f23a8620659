package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	consensusengine "tribunal/contexts/governance/consensus-engine"
	badgeradapter "tribunal/contexts/governance/consensus-engine/adapters/badger"
	"tribunal/contexts/governance/consensus-engine/adapters/memory"
	postgresadapter "tribunal/contexts/governance/consensus-engine/adapters/postgres"
	"tribunal/contexts/governance/consensus-engine/ports"
	"tribunal/internal/platform/config"
	"tribunal/internal/platform/db"
	"tribunal/internal/platform/httpserver"
	"tribunal/internal/platform/logging"
	"tribunal/internal/platform/messaging"
	"tribunal/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server  *httpserver.Server
	workers *workerLoop
	bus     *messaging.Bus
	closers []io.Closer
	logger  *slog.Logger
}

type WorkerApp struct {
	workers *workerLoop
	bus     *messaging.Bus
	closers []io.Closer
	logger  *slog.Logger
}

// workerLoop drives the outbox relay and the deadline sweeper on a ticker.
type workerLoop struct {
	module       consensusengine.Module
	pollInterval time.Duration
	logger       *slog.Logger
}

// runtime is what both processes share: logger, ledger, bus and module.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	bus      *messaging.Bus
	module   consensusengine.Module
	closers  []io.Closer
}

func BuildAPI(cfg config.Config) (*APIApp, error) {
	rt, err := buildRuntime(cfg, "api")
	if err != nil {
		return nil, err
	}
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler = promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{Registry: rt.registry})
	}
	server := httpserver.New(rt.module, rt.logger, httpserver.Options{
		Addr: normalizeAddr(cfg.HTTPPort),
		Auth: httpserver.Authenticator{
			TrustCallerHeader: cfg.TrustCallerHeader,
			MaxSkew:           cfg.SignatureMaxSkew,
		},
		Events:         rt.bus,
		MetricsHandler: metricsHandler,
		SwaggerEnabled: cfg.SwaggerEnabled,
	})
	if cfg.TrustCallerHeader {
		rt.logger.Warn("caller header trusted without signature",
			"event", "bootstrap_trust_caller_header",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	app := &APIApp{
		server:  server,
		bus:     rt.bus,
		closers: rt.closers,
		logger:  rt.logger,
	}
	if cfg.EmbeddedWorkers {
		app.workers = rt.workerLoop()
	}
	return app, nil
}

func BuildWorker(cfg config.Config) (*WorkerApp, error) {
	rt, err := buildRuntime(cfg, "worker")
	if err != nil {
		return nil, err
	}
	if cfg.Ledger == config.LedgerMemory {
		rt.logger.Warn("worker process on a memory ledger sees no api state",
			"event", "bootstrap_worker_memory_ledger",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return &WorkerApp{
		workers: rt.workerLoop(),
		bus:     rt.bus,
		closers: rt.closers,
		logger:  rt.logger,
	}, nil
}

func buildRuntime(cfg config.Config, process string) (*runtime, error) {
	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	baseLogger, logCloser := logging.New(logging.Options{Level: level, File: cfg.LogFile})
	logger := baseLogger.With("service", cfg.ServiceName, "process", process)
	closers := []io.Closer{logCloser}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	bus := messaging.NewBus(cfg.WorkerBatchSize, logger)
	registry.MustRegister(bus.Collectors()...)

	ledger, clock, idGen, ledgerCloser, err := openLedger(cfg, logger)
	if err != nil {
		closeAll(closers, logger)
		return nil, err
	}
	if ledgerCloser != nil {
		closers = append(closers, ledgerCloser)
	}

	module := consensusengine.NewModule(consensusengine.Dependencies{
		Ledger:    ledger,
		Clock:     clock,
		IDGen:     idGen,
		Publisher: bus,
		Metrics:   recorder,
		BatchSize: cfg.WorkerBatchSize,
		Logger:    logger,
	})
	logger.Info("runtime built",
		"event", "bootstrap_runtime_built",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"ledger", cfg.Ledger,
	)
	return &runtime{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		bus:      bus,
		module:   module,
		closers:  closers,
	}, nil
}

// openLedger selects the storage backend. The returned closer is nil for
// backends that hold no resources.
func openLedger(cfg config.Config, logger *slog.Logger) (ports.Ledger, ports.Clock, ports.IDGenerator, io.Closer, error) {
	clock := postgresadapter.SystemClock{}
	idGen := postgresadapter.UUIDGenerator{}
	switch cfg.Ledger {
	case config.LedgerMemory:
		store := memory.NewStore()
		return store, store, store, nil, nil
	case config.LedgerBadger:
		ledger, err := badgeradapter.Open(cfg.BadgerDir, logger)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return ledger, clock, idGen, ledger, nil
	case config.LedgerPostgres, config.LedgerSQLite:
		var (
			database *db.Database
			err      error
		)
		if cfg.Ledger == config.LedgerPostgres {
			database, err = db.ConnectPostgres(cfg.PostgresDSN, cfg.Debug)
		} else {
			database, err = db.OpenSQLite(cfg.SQLitePath, cfg.Debug)
		}
		if err != nil {
			return nil, nil, nil, nil, err
		}
		repo := postgresadapter.NewRepository(database.DB, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := repo.Migrate(ctx); err != nil {
			_ = database.Close()
			return nil, nil, nil, nil, err
		}
		return repo, clock, idGen, database, nil
	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger)
	}
}

func (rt *runtime) workerLoop() *workerLoop {
	return &workerLoop{
		module:       rt.module,
		pollInterval: rt.cfg.WorkerPollInterval,
		logger:       rt.logger,
	}
}

func (a *APIApp) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.workers != nil {
		go func() {
			if err := a.workers.Run(ctx); err != nil {
				a.logger.Error("embedded workers stopped",
					"event", "bootstrap_embedded_workers_stopped",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}()
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = a.server.Shutdown(shutdownCtx)
	}()

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"embedded_workers", a.workers != nil,
	)
	return a.server.Start()
}

func (a *APIApp) Close() error {
	return closeAll(a.closers, a.logger)
}

// Run logs every relayed event and drives the workers until ctx is done.
func (w *WorkerApp) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := w.bus.Subscribe(ctx, messaging.AllTopics, "worker-event-log", func(_ context.Context, event ports.EventEnvelope) error {
		w.logger.Info("event relayed",
			"event", "worker_event_relayed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"partition_key", event.PartitionKey,
		)
		return nil
	})
	err := w.workers.Run(ctx)
	cancel()
	<-done
	return err
}

func (w *WorkerApp) Close() error {
	return closeAll(w.closers, w.logger)
}

func (l *workerLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	l.logger.Info("worker loop started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", l.pollInterval.String(),
	)

	for {
		l.tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// tick runs one sweep and one relay pass. Failures are logged and retried on
// the next tick.
func (l *workerLoop) tick(ctx context.Context) {
	if _, err := l.module.Sweeper.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.logger.Warn("deadline sweep failed",
			"event", "bootstrap_sweep_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
	if _, err := l.module.Relay.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.logger.Warn("outbox relay failed",
			"event", "bootstrap_relay_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}

func closeAll(closers []io.Closer, logger *slog.Logger) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if err != nil && logger != nil {
		logger.Warn("shutdown close failed",
			"event", "bootstrap_close_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
	return err
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
