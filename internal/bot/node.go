// internal/bot/node.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/curve-launchpad/internal/config"
	"github.com/rovshanmuradov/curve-launchpad/internal/custody"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
	"github.com/rovshanmuradov/curve-launchpad/internal/metrics"
	"github.com/rovshanmuradov/curve-launchpad/internal/migration"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/memory"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/models"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/postgres"
	"github.com/rovshanmuradov/curve-launchpad/internal/venue"
)

// Node собирает все сервисы лаунчпада поверх одного хранилища и одной
// шины событий.
type Node struct {
	Store     *postgres.Store
	Ledger    *custody.Ledger
	Bus       *events.Bus
	Registry  *prometheus.Registry
	Metrics   *metrics.Collector
	Launchpad *launchpad.Launchpad
	Venue     *venue.Venue
	Migrator  *migration.Migrator

	config   *config.Config
	logger   *zap.Logger
	shutdown *ShutdownHandler
}

// NewNode opens storage and wires the launchpad, venue and migrator.
func NewNode(cfg *config.Config, logger *zap.Logger) (*Node, error) {
	logger = logger.Named("node")
	logger.Info("🚀 Initializing launchpad node")

	global, err := cfg.GlobalConfig()
	if err != nil {
		return nil, err
	}

	n := &Node{
		config:   cfg,
		logger:   logger,
		shutdown: NewShutdownHandler(logger),
	}

	if n.Store, err = openStore(cfg, logger); err != nil {
		return nil, err
	}
	n.shutdown.Add("storage", n.Store)
	if err := n.Store.RunMigrations(); err != nil {
		_ = n.shutdown.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	n.Registry = prometheus.NewRegistry()
	n.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	n.Metrics = metrics.New(n.Registry)

	n.Ledger = custody.NewLedger(logger)
	n.Bus = events.NewBus(logger, cfg.EventBufferSize)
	// шина закрывается раньше хранилища: очередь дописывает сделки
	n.shutdown.AddFunc("event_bus", n.Bus.Shutdown)

	// Резервы кривых живут рядом с внутрипроцессным реестром активов:
	// после рестарта реестр пуст, и кривые из базы ничем бы не были обеспечены.
	// В базе остаются история сделок и миграций.
	n.Launchpad, err = launchpad.New(
		launchpad.Config{ProgramID: cfg.ProgramPublicKey(), Global: global},
		memory.NewCurveStore(),
		n.Ledger,
		n.Bus,
		logger,
		launchpad.WithMetrics(n.Metrics),
	)
	if err != nil {
		_ = n.shutdown.Shutdown(context.Background())
		return nil, err
	}

	n.Venue, err = venue.New(cfg.VenueProgramPublicKey(), n.Ledger, cfg.VenueFeeBasisPoints, logger)
	if err != nil {
		_ = n.shutdown.Shutdown(context.Background())
		return nil, err
	}

	n.Migrator = migration.New(
		migration.Config{
			MaxTries:        cfg.Migration.MaxTries,
			InitialInterval: cfg.Migration.InitialInterval,
			MaxInterval:     cfg.Migration.MaxInterval,
		},
		n.Launchpad,
		n.Venue,
		n.Ledger,
		n.Store,
		n.Bus,
		n.Metrics,
		logger,
	)

	n.Migrator.Attach(n.Bus)
	storage.NewRecorder(n.Store, logger).Attach(n.Bus)

	logger.Info("✅ Launchpad node ready",
		zap.String("program_id", cfg.ProgramID),
		zap.String("fee_recipient", global.FeeRecipient.String()),
		zap.Uint32("fee_basis_points", global.FeeBasisPoints))

	return n, nil
}

func openStore(cfg *config.Config, logger *zap.Logger) (*postgres.Store, error) {
	if cfg.PostgresURL != "" {
		logger.Info("Using PostgreSQL storage")
		return postgres.NewStorage(cfg.PostgresURL, logger)
	}
	logger.Info("Using SQLite storage", zap.String("path", cfg.SQLitePath))
	return postgres.Open(sqlite.Open(cfg.SQLitePath+"?_pragma=busy_timeout(5000)"), logger)
}

// Serve exposes /metrics and runs the periodic migration sweep until ctx is
// done. Both are optional: an empty metrics address or a zero sweep interval
// disables them.
func (n *Node) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if n.config.MetricsAddr != "" {
		g.Go(func() error { return n.serveMetrics(ctx) })
	}
	if n.config.SweepInterval > 0 {
		g.Go(func() error { return n.sweepLoop(ctx) })
	}

	<-ctx.Done()
	return g.Wait()
}

func (n *Node) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(n.Registry, promhttp.HandlerOpts{Registry: n.Registry}))

	srv := &http.Server{
		Addr:              n.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		n.logger.Info("📈 Serving metrics", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (n *Node) sweepLoop(ctx context.Context) error {
	ticker := time.NewTicker(n.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n.Sweep(ctx)
		}
	}
}

// Sweep migrates completed curves that are still waiting for their venue.
// Failures are logged; the next sweep retries them.
func (n *Node) Sweep(ctx context.Context) int {
	migrated, err := n.Migrator.Sweep(ctx)
	if err != nil {
		n.logger.Warn("Migration sweep incomplete", zap.Int("migrated", migrated), zap.Error(err))
	} else if migrated > 0 {
		n.logger.Info("Migration sweep finished", zap.Int("migrated", migrated))
	}
	return migrated
}

// Trades returns every recorded trade in execution order.
func (n *Node) Trades(ctx context.Context) ([]*models.Trade, error) {
	return n.Store.ListTrades(ctx, "", 0, 0)
}

// Close drains the event bus and closes storage.
func (n *Node) Close(ctx context.Context) error {
	return n.shutdown.Shutdown(ctx)
}
