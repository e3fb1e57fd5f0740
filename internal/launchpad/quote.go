// internal/launchpad/quote.go
package launchpad

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
)

// Quote is a read-only price of a trade against the current curve state.
type Quote struct {
	Direction        Direction
	SettlementAmount uint64
	TokenAmount      uint64
	Fee              uint64
	// NetSettlement is what the trader would pay (buy) or receive (sell).
	NetSettlement uint64
	Reserves      curve.Reserves
}

// QuoteBuy prices a settlement-denominated buy without executing it.
func (lp *Launchpad) QuoteBuy(ctx context.Context, mint solana.PublicKey, settlementIn uint64) (Quote, error) {
	amm, global, err := lp.quoteEngine(ctx, mint)
	if err != nil {
		return Quote{}, err
	}
	q, err := amm.QuoteBuy(settlementIn)
	if err != nil {
		return Quote{}, err
	}
	return buyQuote(q, global)
}

// QuoteBuyExactTokens prices the purchase of exactly tokensOut.
func (lp *Launchpad) QuoteBuyExactTokens(ctx context.Context, mint solana.PublicKey, tokensOut uint64) (Quote, error) {
	amm, global, err := lp.quoteEngine(ctx, mint)
	if err != nil {
		return Quote{}, err
	}
	q, err := amm.QuoteBuyExactTokens(tokensOut)
	if err != nil {
		return Quote{}, err
	}
	return buyQuote(q, global)
}

// QuoteSell prices a sell of tokensIn.
func (lp *Launchpad) QuoteSell(ctx context.Context, mint solana.PublicKey, tokensIn uint64) (Quote, error) {
	amm, global, err := lp.quoteEngine(ctx, mint)
	if err != nil {
		return Quote{}, err
	}
	q, err := amm.QuoteSell(tokensIn)
	if err != nil {
		return Quote{}, err
	}
	fee, err := curve.CalculateFee(q.SettlementOut, global.FeeBasisPoints)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Direction:        Sell,
		SettlementAmount: q.SettlementOut,
		TokenAmount:      q.TokensIn,
		Fee:              fee,
		NetSettlement:    q.SettlementOut - fee,
		Reserves:         q.Reserves,
	}, nil
}

func (lp *Launchpad) quoteEngine(ctx context.Context, mint solana.PublicKey) (curve.AMM, curve.GlobalConfig, error) {
	bc, err := lp.store.Get(ctx, mint)
	if err != nil {
		return curve.AMM{}, curve.GlobalConfig{}, err
	}
	if bc.Complete {
		return curve.AMM{}, curve.GlobalConfig{}, fmt.Errorf("%w: %s", curve.ErrCurveCompleted, mint)
	}
	return curve.NewAMM(bc.Reserves()), lp.Global(), nil
}

func buyQuote(q curve.BuyQuote, global curve.GlobalConfig) (Quote, error) {
	fee, err := curve.CalculateFee(q.SettlementIn, global.FeeBasisPoints)
	if err != nil {
		return Quote{}, err
	}
	total := q.SettlementIn + fee
	if total < fee {
		return Quote{}, curve.ErrOverflow
	}
	return Quote{
		Direction:        Buy,
		SettlementAmount: q.SettlementIn,
		TokenAmount:      q.TokensOut,
		Fee:              fee,
		NetSettlement:    total,
		Reserves:         q.Reserves,
	}, nil
}
