// internal/bot/worker.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
	"github.com/rovshanmuradov/curve-launchpad/internal/task"
)

// Статусы выполнения задач сценария
const (
	StatusExecuted = "executed"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
)

// TaskOutcome is the result of one scenario task.
type TaskOutcome struct {
	Task   *task.Task
	Status string
	// Reason is the rejection label or the error text
	Reason string
	Mint   solana.PublicKey
	Result *launchpad.TradeResult
}

// WorkerPool executes trading tasks. Tasks of one wallet always land on the
// same worker and run in scenario order.
type WorkerPool struct {
	wg      sync.WaitGroup
	ctx     context.Context
	tasks   []*task.Task
	logger  *zap.Logger
	node    *Node
	wallets map[string]*task.Wallet
	mints   map[string]solana.PublicKey

	mu       sync.Mutex
	outcomes []TaskOutcome
}

func NewWorkerPool(
	ctx context.Context,
	logger *zap.Logger,
	node *Node,
	wallets map[string]*task.Wallet,
	mints map[string]solana.PublicKey,
	tasks []*task.Task,
) *WorkerPool {
	return &WorkerPool{
		ctx:     ctx,
		logger:  logger,
		node:    node,
		wallets: wallets,
		mints:   mints,
		tasks:   tasks,
	}
}

// Start распределяет задачи по n очередям и запускает воркеры.
func (wp *WorkerPool) Start(n int) {
	if n <= 0 {
		n = 1
	}
	lanes := make([]chan *task.Task, n)
	for i := range lanes {
		lanes[i] = make(chan *task.Task, len(wp.tasks))
	}
	for _, t := range wp.tasks {
		lanes[laneOf(t.WalletName, n)] <- t
	}
	for i, lane := range lanes {
		close(lane)
		wp.wg.Add(1)
		go wp.worker(i+1, lane)
	}
}

func laneOf(wallet string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(wallet))
	return int(h.Sum32() % uint32(n))
}

func (wp *WorkerPool) Wait() []TaskOutcome {
	wp.wg.Wait()
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return append([]TaskOutcome(nil), wp.outcomes...)
}

func (wp *WorkerPool) worker(id int, tasks <-chan *task.Task) {
	defer wp.wg.Done()
	logger := wp.logger.With(zap.Int("worker_id", id))
	logger.Debug("Worker started")

	for {
		select {
		case <-wp.ctx.Done():
			logger.Info("Worker shutting down due to context cancellation")
			return
		case t, ok := <-tasks:
			if !ok {
				logger.Debug("Task channel closed")
				return
			}
			wp.record(wp.handleTask(wp.ctx, t, logger))
		}
	}
}

func (wp *WorkerPool) record(o TaskOutcome) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.outcomes = append(wp.outcomes, o)
}

func (wp *WorkerPool) handleTask(ctx context.Context, t *task.Task, logger *zap.Logger) TaskOutcome {
	outcome := TaskOutcome{Task: t}

	w := wp.wallets[t.WalletName]
	if w == nil {
		logger.Warn("Skipping task - no wallet found", zap.String("wallet", t.WalletName))
		return failed(outcome, fmt.Errorf("unknown wallet %q", t.WalletName))
	}
	mint, ok := wp.mints[t.Symbol]
	if !ok {
		logger.Warn("Skipping task - symbol was not launched", zap.String("symbol", t.Symbol))
		return failed(outcome, fmt.Errorf("symbol %q was not launched", t.Symbol))
	}
	outcome.Mint = mint

	logger.Info("Executing task",
		zap.String("task", t.TaskName),
		zap.String("operation", string(t.Operation)),
		zap.String("wallet", t.WalletName),
		zap.String("mint", mint.String()),
	)

	var (
		res *launchpad.TradeResult
		err error
	)
	switch t.Operation {
	case task.OperationBuy:
		res, err = wp.buy(ctx, t, w, mint)
	case task.OperationBuyOut:
		res, err = wp.buyOut(ctx, t, w, mint)
	case task.OperationSell:
		res, err = wp.sell(ctx, t, w, mint)
	default:
		err = fmt.Errorf("unsupported operation: %s", t.Operation)
	}

	var tradeErr *launchpad.TradeError
	switch {
	case err == nil:
		outcome.Status = StatusExecuted
		outcome.Result = res
		logger.Info("Task executed successfully", zap.String("task", t.TaskName))
		if res.MigrationError != nil {
			logger.Warn("Migration request not delivered, sweep will retry",
				zap.String("mint", mint.String()),
				zap.Error(res.MigrationError))
		}
		return outcome
	case errors.As(err, &tradeErr):
		outcome.Status = StatusRejected
		outcome.Reason = launchpad.Reason(err)
		logger.Warn("Task rejected", zap.String("task", t.TaskName), zap.String("reason", outcome.Reason))
		return outcome
	default:
		logger.Error("Task execution failed", zap.String("task", t.TaskName), zap.Error(err))
		return failed(outcome, err)
	}
}

func failed(o TaskOutcome, err error) TaskOutcome {
	o.Status = StatusFailed
	o.Reason = err.Error()
	return o
}

// Котировка задаёт границу проскальзывания. Если котировка невозможна, сделка
// всё равно отправляется без границы и отклоняется лаунчпадом с причиной.

func (wp *WorkerPool) buy(ctx context.Context, t *task.Task, w *task.Wallet, mint solana.PublicKey) (*launchpad.TradeResult, error) {
	lp := wp.node.Launchpad
	amount := t.Lamports()

	var minTokens uint64
	if q, err := lp.QuoteBuy(ctx, mint, amount); err == nil {
		minTokens = t.Slippage().MinAmountOut(q.TokenAmount)
	}

	return lp.Buy(ctx, launchpad.BuyRequest{
		Mint:         mint,
		User:         w.PublicKey,
		FeeRecipient: lp.Global().FeeRecipient,
		SettlementIn: amount,
		MinTokensOut: minTokens,
	})
}

func (wp *WorkerPool) buyOut(ctx context.Context, t *task.Task, w *task.Wallet, mint solana.PublicKey) (*launchpad.TradeResult, error) {
	lp := wp.node.Launchpad
	bc, err := lp.Curve(ctx, mint)
	if err != nil {
		return nil, err
	}

	// Без котировки ошибку вернет сама сделка на этапе ценообразования
	maxCost := launchpad.NoSettlementLimit
	if q, err := lp.QuoteBuyExactTokens(ctx, mint, bc.RealTokenReserves); err == nil {
		maxCost = t.Slippage().MaxAmountIn(q.NetSettlement)
	}

	return lp.BuyExactTokens(ctx, launchpad.BuyExactRequest{
		Mint:              mint,
		User:              w.PublicKey,
		FeeRecipient:      lp.Global().FeeRecipient,
		TokensOut:         bc.RealTokenReserves,
		MaxSettlementCost: maxCost,
	})
}

func (wp *WorkerPool) sell(ctx context.Context, t *task.Task, w *task.Wallet, mint solana.PublicKey) (*launchpad.TradeResult, error) {
	lp := wp.node.Launchpad
	held, err := wp.node.Ledger.TokenBalance(ctx, mint, w.PublicKey)
	if err != nil {
		return nil, err
	}
	amount := t.Share(held)

	var minOut uint64
	if q, err := lp.QuoteSell(ctx, mint, amount); err == nil {
		minOut = t.Slippage().MinAmountOut(q.NetSettlement)
	}

	return lp.Sell(ctx, launchpad.SellRequest{
		Mint:             mint,
		User:             w.PublicKey,
		FeeRecipient:     lp.Global().FeeRecipient,
		TokensIn:         amount,
		MinSettlementOut: minOut,
	})
}
