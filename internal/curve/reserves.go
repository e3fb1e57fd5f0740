// =============================================
// File: internal/curve/reserves.go
// =============================================
package curve

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
)

// CompletionThreshold is the real token reserve at which a curve completes.
const CompletionThreshold uint64 = 0

// Reserves is the four-field reserve state a quote moves between.
type Reserves struct {
	VirtualSol   uint64
	VirtualToken uint64
	RealSol      uint64
	RealToken    uint64
}

// Check verifies that virtual reserves cover real reserves on both sides.
func (r Reserves) Check() error {
	if r.VirtualSol < r.RealSol {
		return fmt.Errorf("virtual sol reserves %d below real sol reserves %d", r.VirtualSol, r.RealSol)
	}
	if r.VirtualToken < r.RealToken {
		return fmt.Errorf("virtual token reserves %d below real token reserves %d", r.VirtualToken, r.RealToken)
	}
	return nil
}

// BondingCurve is the reserve model of one tradable token.
type BondingCurve struct {
	Mint    solana.PublicKey
	Address solana.PublicKey

	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64
	TokenTotalSupply     uint64
	// Real token reserves at creation, kept for progress reporting.
	InitialRealTokens uint64
	Complete          bool

	Version   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reserves returns the reserve part of the curve.
func (c BondingCurve) Reserves() Reserves {
	return Reserves{
		VirtualSol:   c.VirtualSolReserves,
		VirtualToken: c.VirtualTokenReserves,
		RealSol:      c.RealSolReserves,
		RealToken:    c.RealTokenReserves,
	}
}

// WithReserves returns a copy of c carrying r. Complete is set once the real
// token reserve reaches CompletionThreshold and never cleared.
func (c BondingCurve) WithReserves(r Reserves) BondingCurve {
	c.VirtualSolReserves = r.VirtualSol
	c.VirtualTokenReserves = r.VirtualToken
	c.RealSolReserves = r.RealSol
	c.RealTokenReserves = r.RealToken
	if r.RealToken == CompletionThreshold {
		c.Complete = true
	}
	return c
}

// ReachedCompletion reports whether the real token reserve is exhausted.
func (c BondingCurve) ReachedCompletion() bool {
	return c.RealTokenReserves == CompletionThreshold
}

// CheckInvariants validates the reserve model.
func (c BondingCurve) CheckInvariants() error {
	if err := c.Reserves().Check(); err != nil {
		return fmt.Errorf("curve %s: %w", c.Mint, err)
	}
	if c.RealTokenReserves > c.TokenTotalSupply {
		return fmt.Errorf("curve %s: real token reserves %d exceed total supply %d",
			c.Mint, c.RealTokenReserves, c.TokenTotalSupply)
	}
	if c.ReachedCompletion() && !c.Complete {
		return fmt.Errorf("curve %s: real token reserves exhausted but curve not complete", c.Mint)
	}
	return nil
}
