// internal/bot/runner.go
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/config"
	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
	"github.com/rovshanmuradov/curve-launchpad/internal/task"
)

// CurveReport is the final state of one launched curve.
type CurveReport struct {
	Symbol   string
	Curve    curve.BondingCurve
	Progress decimal.Decimal
	Migrated bool
	Pool     solana.PublicKey
}

// Report summarises a scenario run.
type Report struct {
	Launches []TaskOutcome
	Trades   []TaskOutcome
	Curves   []CurveReport
}

// Count returns the number of trade outcomes with status.
func (r *Report) Count(status string) int {
	n := 0
	for _, o := range r.Trades {
		if o.Status == status {
			n++
		}
	}
	return n
}

type Runner struct {
	logger      *zap.Logger
	config      *config.Config
	node        *Node
	taskManager *task.Manager
	shutdownCh  chan os.Signal
}

// NewRunner: принимает cfg, собранный node и logger
func NewRunner(cfg *config.Config, node *Node, logger *zap.Logger) *Runner {
	return &Runner{
		logger:      logger.Named("runner"),
		config:      cfg,
		node:        node,
		taskManager: task.NewManager(logger),
		shutdownCh:  make(chan os.Signal, 1),
	}
}

// Run loads the scenario at path and executes it while the node serves
// metrics and sweeps migrations. SIGINT and SIGTERM cancel the run.
func (r *Runner) Run(ctx context.Context, path string) (*Report, error) {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(r.shutdownCh)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("📡 Signal received: " + sig.String())
			cancel()
		case <-runCtx.Done():
		}
	}()

	scenario, err := r.taskManager.LoadScenario(path)
	if err != nil {
		return nil, err
	}

	serveCtx, stopServe := context.WithCancel(runCtx)
	served := make(chan error, 1)
	go func() { served <- r.node.Serve(serveCtx) }()

	report, err := r.RunScenario(runCtx, scenario)

	stopServe()
	if serveErr := <-served; serveErr != nil {
		r.logger.Error("Node services stopped with error", zap.Error(serveErr))
	}
	return report, err
}

// RunScenario funds the scenario wallets, launches its curves one by one and
// hands the trades to the worker pool. Completed curves are swept into their
// venue before the report is built.
func (r *Runner) RunScenario(ctx context.Context, scenario *task.Scenario) (*Report, error) {
	for _, w := range scenario.Wallets {
		if err := r.node.Ledger.Deposit(w.PublicKey, w.Funding()); err != nil {
			return nil, fmt.Errorf("failed to fund wallet %s: %w", w.Name, err)
		}
	}

	report := &Report{}
	mints := make(map[string]solana.PublicKey)
	symbols := make(map[solana.PublicKey]string)
	for _, t := range scenario.Launches() {
		outcome := r.launch(ctx, t, scenario.Wallets, mints)
		if outcome.Status == StatusExecuted {
			symbols[outcome.Mint] = t.Symbol
		}
		report.Launches = append(report.Launches, outcome)
	}

	trades := scenario.Trades()
	r.logger.Info(fmt.Sprintf("📋 Loaded %d trading tasks", len(trades)))

	numWorkers := r.config.Workers
	if numWorkers <= 0 {
		numWorkers = 1
	}
	r.logger.Info(fmt.Sprintf("🚀 Starting execution with %d workers", numWorkers))

	workerPool := NewWorkerPool(ctx, r.logger, r.node, scenario.Wallets, mints, trades)
	workerPool.Start(numWorkers)
	report.Trades = workerPool.Wait()
	r.logger.Info("✅ All workers finished")

	if err := ctx.Err(); err != nil {
		return report, err
	}

	r.node.Sweep(ctx)

	curves, err := r.node.Launchpad.Curves(ctx)
	if err != nil {
		return report, err
	}
	for _, bc := range curves {
		symbol, ok := symbols[bc.Mint]
		if !ok {
			continue
		}
		cr := CurveReport{Symbol: symbol, Curve: bc, Progress: bc.Progress()}
		if h, ok := r.node.Migrator.Handle(bc.Mint); ok {
			cr.Migrated = true
			cr.Pool = h.Pool
		}
		report.Curves = append(report.Curves, cr)
	}
	return report, nil
}

func (r *Runner) launch(ctx context.Context, t *task.Task, wallets map[string]*task.Wallet, mints map[string]solana.PublicKey) TaskOutcome {
	outcome := TaskOutcome{Task: t}
	if _, exists := mints[t.Symbol]; exists {
		return failed(outcome, fmt.Errorf("symbol %q launched twice", t.Symbol))
	}

	var creator solana.PublicKey
	if w := wallets[t.WalletName]; w != nil {
		creator = w.PublicKey
	}
	mint := solana.NewWallet().PublicKey()

	if _, err := r.node.Launchpad.Create(ctx, launchpad.CreateParams{
		Mint:    mint,
		Creator: creator,
		Name:    t.TaskName,
		Symbol:  t.Symbol,
	}); err != nil {
		r.logger.Error("Launch failed", zap.String("symbol", t.Symbol), zap.Error(err))
		return failed(outcome, err)
	}

	mints[t.Symbol] = mint
	outcome.Mint = mint
	outcome.Status = StatusExecuted
	return outcome
}
