// =============================================
// File: internal/task/task.go
// =============================================
package task

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
)

// OperationType defines the supported operation types
type OperationType string

const (
	// OperationLaunch creates a curve for Symbol
	OperationLaunch OperationType = "launch"
	// OperationBuy spends AmountSol on the curve
	OperationBuy OperationType = "buy"
	// OperationBuyOut buys every remaining real token and completes the curve
	OperationBuyOut OperationType = "buy_out"
	// OperationSell sells PercentToSell of the wallet's tokens
	OperationSell OperationType = "sell"
)

// Task is one step of a trading scenario
type Task struct {
	ID            int
	TaskName      string
	WalletName    string
	Operation     OperationType
	Symbol        string
	AmountSol     float64
	PercentToSell float64
	SlippageBps   uint64
	CreatedAt     time.Time
}

// Validate checks if the task has valid parameters
func (t *Task) Validate() error {
	if t.TaskName == "" {
		return fmt.Errorf("task name cannot be empty")
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}

	switch t.Operation {
	case OperationLaunch:
		return nil
	case OperationBuy:
		if t.AmountSol <= 0 {
			return fmt.Errorf("amount must be greater than zero")
		}
	case OperationSell:
		if t.PercentToSell <= 0 || t.PercentToSell > 100 {
			return fmt.Errorf("percent_to_sell must be in (0, 100]")
		}
	case OperationBuyOut:
	default:
		return fmt.Errorf("invalid operation: %s", t.Operation)
	}

	if t.WalletName == "" {
		return fmt.Errorf("wallet name cannot be empty")
	}
	if t.SlippageBps > curve.MaxFeeBasisPoints {
		return fmt.Errorf("slippage_bps must not exceed %d", curve.MaxFeeBasisPoints)
	}
	return nil
}

// IsTrade reports whether the task trades on an existing curve.
func (t *Task) IsTrade() bool {
	return t.Operation != OperationLaunch
}

// Lamports returns AmountSol in lamports, truncated.
func (t *Task) Lamports() uint64 {
	return SolToLamports(t.AmountSol)
}

// Share returns PercentToSell of held, truncated.
func (t *Task) Share(held uint64) uint64 {
	return decimal.NewFromUint64(held).
		Mul(decimal.NewFromFloat(t.PercentToSell)).
		Div(decimal.NewFromInt(100)).
		BigInt().Uint64()
}

// Slippage returns the tolerance of the task in basis points.
func (t *Task) Slippage() curve.SlippageConfig {
	return curve.SlippageConfig{Type: curve.SlippageBps, Value: t.SlippageBps}
}

// SolToLamports converts a SOL amount to lamports, truncated.
func SolToLamports(sol float64) uint64 {
	if sol <= 0 {
		return 0
	}
	return decimal.NewFromFloat(sol).Shift(curve.SolDecimals).BigInt().Uint64()
}
