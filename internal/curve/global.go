// =============================================
// File: internal/curve/global.go
// =============================================
package curve

import (
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
)

// GlobalConfig holds the parameters shared by every curve. A value is an
// immutable snapshot: a trade loads one snapshot and uses it throughout.
type GlobalConfig struct {
	Version                     uint64
	Initialized                 bool
	Authority                   solana.PublicKey
	FeeRecipient                solana.PublicKey
	FeeBasisPoints              uint32
	InitialVirtualSolReserves   uint64
	InitialVirtualTokenReserves uint64
	InitialRealTokenReserves    uint64
	InitialTokenSupply          uint64
}

// DefaultGlobalConfig returns the pump-style launch parameters
// (30 SOL virtual, 1.073B virtual tokens, 793.1M real tokens, 1B supply,
// 6 decimals, 1% fee). The fee recipient is left empty.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		Version:                     1,
		Initialized:                 true,
		FeeBasisPoints:              100,
		InitialVirtualSolReserves:   30_000_000_000,
		InitialVirtualTokenReserves: 1_073_000_000_000_000,
		InitialRealTokenReserves:    793_100_000_000_000,
		InitialTokenSupply:          1_000_000_000_000_000,
	}
}

// MaxStoredAmount is the largest reserve or supply value a curve may start
// from. Persisted amounts live in signed 64-bit columns.
const MaxStoredAmount = math.MaxInt64

// Validate checks the parameters a curve is seeded from.
func (g GlobalConfig) Validate() error {
	if g.FeeBasisPoints > MaxFeeBasisPoints {
		return fmt.Errorf("%w: fee_basis_points %d", ErrInvalidFeeBasisPoints, g.FeeBasisPoints)
	}
	if g.FeeRecipient.IsZero() {
		return fmt.Errorf("%w: fee recipient is not set", ErrInvalidConfig)
	}
	if g.InitialVirtualSolReserves == 0 || g.InitialVirtualTokenReserves == 0 {
		return fmt.Errorf("%w: virtual reserves must be positive", ErrInvalidConfig)
	}
	if g.InitialRealTokenReserves == 0 {
		return fmt.Errorf("%w: initial real token reserves must be positive", ErrInvalidConfig)
	}
	if g.InitialVirtualTokenReserves < g.InitialRealTokenReserves {
		return fmt.Errorf("%w: virtual token reserves %d below real token reserves %d",
			ErrInvalidConfig, g.InitialVirtualTokenReserves, g.InitialRealTokenReserves)
	}
	if g.InitialTokenSupply < g.InitialRealTokenReserves {
		return fmt.Errorf("%w: token supply %d below real token reserves %d",
			ErrInvalidConfig, g.InitialTokenSupply, g.InitialRealTokenReserves)
	}
	// Хранилище держит резервы в знаковых 64-битных колонках
	for name, v := range map[string]uint64{
		"virtual sol reserves":   g.InitialVirtualSolReserves,
		"virtual token reserves": g.InitialVirtualTokenReserves,
		"real token reserves":    g.InitialRealTokenReserves,
		"token supply":           g.InitialTokenSupply,
	} {
		if v > MaxStoredAmount {
			return fmt.Errorf("%w: %s %d exceeds %d", ErrInvalidConfig, name, v, uint64(MaxStoredAmount))
		}
	}
	return nil
}

// NewCurve seeds a curve for mint from the snapshot.
func (g GlobalConfig) NewCurve(mint, address solana.PublicKey) (BondingCurve, error) {
	if !g.Initialized {
		return BondingCurve{}, ErrNotInitialized
	}
	if err := g.Validate(); err != nil {
		return BondingCurve{}, err
	}

	return BondingCurve{
		Mint:                 mint,
		Address:              address,
		VirtualSolReserves:   g.InitialVirtualSolReserves,
		VirtualTokenReserves: g.InitialVirtualTokenReserves,
		RealSolReserves:      0,
		RealTokenReserves:    g.InitialRealTokenReserves,
		TokenTotalSupply:     g.InitialTokenSupply,
		InitialRealTokens:    g.InitialRealTokenReserves,
		Complete:             false,
	}, nil
}
