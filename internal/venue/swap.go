// internal/venue/swap.go
package venue

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/custody"
)

// SwapRequest trades against a migrated pool. IsBuy swaps AmountIn of the
// settlement asset for tokens; otherwise AmountIn tokens are sold.
type SwapRequest struct {
	Mint         solana.PublicKey
	User         solana.PublicKey
	IsBuy        bool
	AmountIn     uint64
	MinAmountOut uint64
}

// SwapResult is a settled swap.
type SwapResult struct {
	AmountIn  uint64
	AmountOut uint64
	Fee       uint64
}

// Swap executes a constant-product swap. The fee is taken from the settlement
// leg and accrues to the receipt lock owner.
func (v *Venue) Swap(ctx context.Context, req SwapRequest) (SwapResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p, err := v.pool(req.Mint)
	if err != nil {
		return SwapResult{}, err
	}
	if req.AmountIn == 0 {
		return SwapResult{}, curve.ErrZeroAmount
	}

	var res SwapResult
	if req.IsBuy {
		res, err = v.quoteBuy(p, req.AmountIn)
	} else {
		res, err = v.quoteSell(p, req.AmountIn)
	}
	if err != nil {
		return SwapResult{}, err
	}
	if res.AmountOut < req.MinAmountOut {
		return SwapResult{}, fmt.Errorf("%w: %d out, minimum %d", curve.ErrSlippageExceeded, res.AmountOut, req.MinAmountOut)
	}

	pool := p.handle.Pool
	if req.IsBuy {
		if err := v.custody.TransferSettlement(ctx, custody.Transfer{From: req.User, To: pool, Amount: req.AmountIn}); err != nil {
			return SwapResult{}, fmt.Errorf("%w: %w", curve.ErrTransferFailed, err)
		}
		if err := v.custody.TransferToken(ctx, req.Mint, custody.Transfer{From: pool, To: req.User, Amount: res.AmountOut, Authority: p.auth}); err != nil {
			v.undo(ctx, custody.Transfer{From: pool, To: req.User, Amount: req.AmountIn, Authority: p.auth}, solana.PublicKey{})
			return SwapResult{}, fmt.Errorf("%w: %w", curve.ErrTransferFailed, err)
		}
		p.settlementReserve += req.AmountIn - res.Fee
		p.tokenReserve -= res.AmountOut
	} else {
		if err := v.custody.TransferToken(ctx, req.Mint, custody.Transfer{From: req.User, To: pool, Amount: req.AmountIn}); err != nil {
			return SwapResult{}, fmt.Errorf("%w: %w", curve.ErrTransferFailed, err)
		}
		if err := v.custody.TransferSettlement(ctx, custody.Transfer{From: pool, To: req.User, Amount: res.AmountOut, Authority: p.auth}); err != nil {
			v.undo(ctx, custody.Transfer{From: pool, To: req.User, Amount: req.AmountIn, Authority: p.auth}, req.Mint)
			return SwapResult{}, fmt.Errorf("%w: %w", curve.ErrTransferFailed, err)
		}
		p.tokenReserve += req.AmountIn
		p.settlementReserve -= res.AmountOut + res.Fee
	}
	p.accruedFees += res.Fee

	v.logger.Debug("Pool swap",
		zap.String("pool", pool.String()),
		zap.String("user", req.User.String()),
		zap.Bool("is_buy", req.IsBuy),
		zap.Uint64("amount_in", res.AmountIn),
		zap.Uint64("amount_out", res.AmountOut),
		zap.Uint64("fee", res.Fee))

	return res, nil
}

func (v *Venue) quoteBuy(p *pool, settlementIn uint64) (SwapResult, error) {
	fee, err := curve.CalculateFee(settlementIn, v.feeBps)
	if err != nil {
		return SwapResult{}, err
	}
	net := settlementIn - fee
	out, err := constantProductOut(p.settlementReserve, p.tokenReserve, net)
	if err != nil {
		return SwapResult{}, err
	}
	return SwapResult{AmountIn: settlementIn, AmountOut: out, Fee: fee}, nil
}

func (v *Venue) quoteSell(p *pool, tokensIn uint64) (SwapResult, error) {
	gross, err := constantProductOut(p.tokenReserve, p.settlementReserve, tokensIn)
	if err != nil {
		return SwapResult{}, err
	}
	fee, err := curve.CalculateFee(gross, v.feeBps)
	if err != nil {
		return SwapResult{}, err
	}
	return SwapResult{AmountIn: tokensIn, AmountOut: gross - fee, Fee: fee}, nil
}

// constantProductOut returns floor(reserveOut*in / (reserveIn+in)).
func constantProductOut(reserveIn, reserveOut, in uint64) (uint64, error) {
	num, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(reserveOut), uint256.NewInt(in))
	if overflow {
		return 0, curve.ErrOverflow
	}
	den := new(uint256.Int).Add(uint256.NewInt(reserveIn), uint256.NewInt(in))
	out := num.Div(num, den).Uint64()
	if out == 0 {
		return 0, fmt.Errorf("%w: swap of %d yields nothing", curve.ErrZeroAmount, in)
	}
	return out, nil
}
