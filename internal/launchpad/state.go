// internal/launchpad/state.go
package launchpad

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
)

// Direction of a trade.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// TradeState is the position of a trade in its state machine:
// Idle -> Validating -> Pricing -> Settling -> Completed | Rejected.
type TradeState int

const (
	StateIdle TradeState = iota
	StateValidating
	StatePricing
	StateSettling
	StateCompleted
	StateRejected
)

func (s TradeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StatePricing:
		return "pricing"
	case StateSettling:
		return "settling"
	case StateCompleted:
		return "completed"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TradeError is a rejected trade. Nothing was mutated. Err wraps one of the
// curve.Err* sentinels.
type TradeError struct {
	Direction Direction
	Mint      solana.PublicKey
	// State the trade was in when it was rejected.
	State TradeState
	Err   error
}

func (e *TradeError) Error() string {
	return fmt.Sprintf("%s %s rejected while %s: %v", e.Direction, e.Mint, e.State, e.Err)
}

func (e *TradeError) Unwrap() error {
	return e.Err
}

// Reason returns a short label of the rejection cause for logs and metrics.
func Reason(err error) string {
	reasons := []struct {
		target error
		label  string
	}{
		{curve.ErrCurveCompleted, "curve_completed"},
		{curve.ErrZeroAmount, "zero_amount"},
		{curve.ErrInsufficientBalance, "insufficient_balance"},
		{curve.ErrInsufficientLiquidity, "insufficient_liquidity"},
		{curve.ErrInvalidFeeRecipient, "invalid_fee_recipient"},
		{curve.ErrSlippageExceeded, "slippage_exceeded"},
		{curve.ErrTransferFailed, "transfer_failed"},
		{curve.ErrOverflow, "overflow"},
		{curve.ErrNotInitialized, "not_initialized"},
		{curve.ErrCurveNotFound, "curve_not_found"},
		{curve.ErrStaleCurve, "stale_curve"},
	}
	for _, r := range reasons {
		if errors.Is(err, r.target) {
			return r.label
		}
	}
	return "internal"
}
