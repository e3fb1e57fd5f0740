// =============================================
// File: internal/curve/amm.go
// =============================================
package curve

import (
	"fmt"

	"github.com/holiman/uint256"
)

// BuyQuote is the outcome of buying tokens with the settlement asset.
// Reserves is the state the curve moves to; the fee is not part of it.
type BuyQuote struct {
	SettlementIn uint64
	TokensOut    uint64
	Reserves     Reserves
}

// SellQuote is the outcome of selling tokens for the settlement asset.
type SellQuote struct {
	TokensIn      uint64
	SettlementOut uint64
	Reserves      Reserves
}

// AMM prices trades on the constant product of the virtual reserves. It is a
// value over a snapshot and never mutates anything.
type AMM struct {
	reserves Reserves
}

// NewAMM builds a pricing engine over a reserve snapshot.
func NewAMM(r Reserves) AMM {
	return AMM{reserves: r}
}

// Reserves returns the snapshot the engine prices against.
func (a AMM) Reserves() Reserves {
	return a.reserves
}

// QuoteBuy returns the tokens released for settlementIn:
//
//	tokensOut = floor(vT*settlementIn / (vS + settlementIn)) = vT - ceil(vS*vT / (vS + settlementIn))
//
// Округление в пользу кривой: k после сделки не меньше, чем до неё.
func (a AMM) QuoteBuy(settlementIn uint64) (BuyQuote, error) {
	if settlementIn == 0 {
		return BuyQuote{}, ErrZeroAmount
	}
	r := a.reserves

	newVirtualSol, err := add64(r.VirtualSol, settlementIn)
	if err != nil {
		return BuyQuote{}, err
	}
	numerator, err := product(r.VirtualToken, settlementIn)
	if err != nil {
		return BuyQuote{}, err
	}
	// settlementIn < vS + settlementIn, so the quotient is below vT.
	tokensOut := new(uint256.Int).Div(numerator, uint256.NewInt(newVirtualSol)).Uint64()

	if tokensOut == 0 {
		return BuyQuote{}, fmt.Errorf("%w: buy of %d yields no tokens", ErrZeroAmount, settlementIn)
	}
	if tokensOut > r.RealToken {
		return BuyQuote{}, fmt.Errorf("%w: buy needs %d tokens, %d available",
			ErrInsufficientLiquidity, tokensOut, r.RealToken)
	}

	realSol, err := add64(r.RealSol, settlementIn)
	if err != nil {
		return BuyQuote{}, err
	}

	return BuyQuote{
		SettlementIn: settlementIn,
		TokensOut:    tokensOut,
		Reserves: Reserves{
			VirtualSol:   newVirtualSol,
			VirtualToken: r.VirtualToken - tokensOut,
			RealSol:      realSol,
			RealToken:    r.RealToken - tokensOut,
		},
	}, nil
}

// QuoteBuyExactTokens returns the settlement needed to take exactly
// tokensOut off the curve:
//
//	settlementIn = ceil(vS*vT / (vT - tokensOut)) - vS
func (a AMM) QuoteBuyExactTokens(tokensOut uint64) (BuyQuote, error) {
	if tokensOut == 0 {
		return BuyQuote{}, ErrZeroAmount
	}
	r := a.reserves

	if tokensOut > r.RealToken || tokensOut >= r.VirtualToken {
		return BuyQuote{}, fmt.Errorf("%w: requested %d tokens, %d available",
			ErrInsufficientLiquidity, tokensOut, r.RealToken)
	}

	k, err := product(r.VirtualSol, r.VirtualToken)
	if err != nil {
		return BuyQuote{}, err
	}
	newVirtualToken := r.VirtualToken - tokensOut

	q, m := new(uint256.Int).DivMod(k, uint256.NewInt(newVirtualToken), new(uint256.Int))
	if !m.IsZero() {
		q.AddUint64(q, 1)
	}
	if !q.IsUint64() {
		return BuyQuote{}, fmt.Errorf("%w: virtual sol reserves after buy", ErrOverflow)
	}
	newVirtualSol := q.Uint64()
	// q >= k/vT = vS and strictly greater since newVirtualToken < vT.
	settlementIn := newVirtualSol - r.VirtualSol

	realSol, err := add64(r.RealSol, settlementIn)
	if err != nil {
		return BuyQuote{}, err
	}

	return BuyQuote{
		SettlementIn: settlementIn,
		TokensOut:    tokensOut,
		Reserves: Reserves{
			VirtualSol:   newVirtualSol,
			VirtualToken: newVirtualToken,
			RealSol:      realSol,
			RealToken:    r.RealToken - tokensOut,
		},
	}, nil
}

// QuoteSell returns the settlement released for tokensIn:
//
//	settlementOut = floor(vS - vS*vT / (vT + tokensIn)) = floor(vS*tokensIn / (vT + tokensIn))
func (a AMM) QuoteSell(tokensIn uint64) (SellQuote, error) {
	if tokensIn == 0 {
		return SellQuote{}, ErrZeroAmount
	}
	r := a.reserves

	newVirtualToken, err := add64(r.VirtualToken, tokensIn)
	if err != nil {
		return SellQuote{}, err
	}
	numerator, err := product(r.VirtualSol, tokensIn)
	if err != nil {
		return SellQuote{}, err
	}
	// tokensIn < vT + tokensIn, so the quotient is below vS.
	settlementOut := new(uint256.Int).Div(numerator, uint256.NewInt(newVirtualToken)).Uint64()

	if settlementOut == 0 {
		return SellQuote{}, fmt.Errorf("%w: sell of %d yields no settlement", ErrZeroAmount, tokensIn)
	}
	if settlementOut > r.RealSol {
		return SellQuote{}, fmt.Errorf("%w: sell pays %d, %d held",
			ErrInsufficientLiquidity, settlementOut, r.RealSol)
	}

	realToken, err := add64(r.RealToken, tokensIn)
	if err != nil {
		return SellQuote{}, err
	}

	return SellQuote{
		TokensIn:      tokensIn,
		SettlementOut: settlementOut,
		Reserves: Reserves{
			VirtualSol:   r.VirtualSol - settlementOut,
			VirtualToken: newVirtualToken,
			RealSol:      r.RealSol - settlementOut,
			RealToken:    realToken,
		},
	}, nil
}

// product returns x*y in 256 bits.
func product(x, y uint64) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(x), uint256.NewInt(y))
	if overflow {
		return nil, fmt.Errorf("%w: %d * %d", ErrOverflow, x, y)
	}
	return z, nil
}

// add64 returns x+y or ErrOverflow when the sum leaves the stored domain.
func add64(x, y uint64) (uint64, error) {
	z, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(x), uint256.NewInt(y))
	if overflow || !z.IsUint64() {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, x, y)
	}
	return z.Uint64(), nil
}
