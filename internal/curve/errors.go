// =============================
// File: internal/curve/errors.go
// =============================
package curve

import "errors"

// Trade and configuration failures. Every one of them is detected before
// any reserve is mutated.
var (
	ErrNotInitialized        = errors.New("global configuration is not initialized")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrInvalidFeeRecipient   = errors.New("invalid fee recipient")
	ErrZeroAmount            = errors.New("amount must be greater than zero")
	ErrSlippageExceeded      = errors.New("slippage exceeded")
	ErrCurveCompleted        = errors.New("bonding curve is complete")
	ErrTransferFailed        = errors.New("asset transfer failed")
	ErrOverflow              = errors.New("arithmetic overflow")

	ErrInvalidFeeBasisPoints = errors.New("fee basis points out of range")
	ErrInvalidConfig         = errors.New("invalid global configuration")
	ErrCurveNotFound         = errors.New("bonding curve not found")
	ErrCurveExists           = errors.New("bonding curve already exists")
	ErrStaleCurve            = errors.New("bonding curve version mismatch")
)
