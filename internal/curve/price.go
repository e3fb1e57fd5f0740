// internal/curve/price.go
package curve

import (
	"github.com/shopspring/decimal"
)

const (
	// Стандартные десятичные знаки для SOL и токенов кривой
	SolDecimals   = 9
	TokenDecimals = 6
)

// LamportsToSol переводит lamports в SOL.
func LamportsToSol(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Shift(-SolDecimals)
}

// TokenUnitsToTokens переводит минимальные единицы токена в полные токены.
func TokenUnitsToTokens(units uint64) decimal.Decimal {
	return decimal.NewFromUint64(units).Shift(-TokenDecimals)
}

// SpotPrice рассчитывает текущую цену токена в SOL по виртуальным резервам.
// Формула: Price = (VirtualSol / 10^9) / (VirtualToken / 10^6)
func (c BondingCurve) SpotPrice() decimal.Decimal {
	if c.VirtualTokenReserves == 0 {
		return decimal.Zero
	}
	return LamportsToSol(c.VirtualSolReserves).
		DivRound(TokenUnitsToTokens(c.VirtualTokenReserves), 18)
}

// MarketCap возвращает капитализацию в SOL: цена * общее предложение.
func (c BondingCurve) MarketCap() decimal.Decimal {
	return c.SpotPrice().Mul(TokenUnitsToTokens(c.TokenTotalSupply))
}

// Progress возвращает процент проданных реальных токенов (0-100).
func (c BondingCurve) Progress() decimal.Decimal {
	if c.InitialRealTokens == 0 {
		return decimal.Zero
	}
	if c.RealTokenReserves >= c.InitialRealTokens {
		return decimal.Zero
	}
	sold := decimal.NewFromUint64(c.InitialRealTokens - c.RealTokenReserves)
	return sold.Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromUint64(c.InitialRealTokens), 4)
}
