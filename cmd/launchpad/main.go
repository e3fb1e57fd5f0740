// ====================================
// File: cmd/launchpad/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/bot"
	"github.com/rovshanmuradov/curve-launchpad/internal/config"
	"github.com/rovshanmuradov/curve-launchpad/internal/export"
	"github.com/rovshanmuradov/curve-launchpad/internal/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the launchpad configuration")
	scenarioPath := flag.String("tasks", "configs/tasks.yaml", "path to the trading scenario")
	exportDir := flag.String("export", "", "directory for the trade export, empty to skip")
	exportFormat := flag.String("format", "csv", "trade export format: csv or json")
	flag.Parse()

	if err := run(*configPath, *scenarioPath, *exportDir, export.ExportFormat(*exportFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "launchpad: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, scenarioPath, exportDir string, format export.ExportFormat) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting curve launchpad")

	node, err := bot.NewNode(cfg, log.WithComponent("launchpad"))
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := node.Close(ctx); err != nil {
			log.Error("Shutdown error", zap.Error(err))
		}
	}()

	done := log.TrackPerformance("scenario")
	report, err := bot.NewRunner(cfg, node, log.Logger).Run(context.Background(), scenarioPath)
	if err != nil {
		return err
	}
	done()

	for _, cr := range report.Curves {
		log.Info("Curve summary",
			zap.String("symbol", cr.Symbol),
			zap.String("mint", cr.Curve.Mint.String()),
			zap.String("progress_percent", cr.Progress.String()),
			zap.String("spot_price_sol", cr.Curve.SpotPrice().String()),
			zap.String("market_cap_sol", cr.Curve.MarketCap().String()),
			zap.Bool("migrated", cr.Migrated),
			zap.String("pool", cr.Pool.String()))
	}
	log.Info("Scenario finished",
		zap.Int("executed", report.Count(bot.StatusExecuted)),
		zap.Int("rejected", report.Count(bot.StatusRejected)),
		zap.Int("failed", report.Count(bot.StatusFailed)))

	if exportDir == "" {
		return nil
	}

	// сделки пишутся шиной асинхронно: дожидаемся очереди перед выгрузкой
	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := node.Bus.Shutdown(drainCtx); err != nil {
		return err
	}

	trades, err := node.Trades(context.Background())
	if err != nil {
		return err
	}
	path, err := export.NewTradeExporter(log.Logger).ExportTrades(trades, export.ExportOptions{
		Format:    format,
		OutputDir: exportDir,
	})
	if err != nil {
		return err
	}
	log.Info("Trades exported", zap.String("file", path))
	return nil
}
