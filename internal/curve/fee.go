// =============================
// File: internal/curve/fee.go
// =============================
package curve

import (
	"fmt"

	"github.com/holiman/uint256"
)

// MaxFeeBasisPoints is 100% expressed in basis points.
const MaxFeeBasisPoints = 10_000

var u256BpsDenom = uint256.NewInt(MaxFeeBasisPoints)

// CalculateFee returns floor(amount * basisPoints / 10000).
func CalculateFee(amount uint64, basisPoints uint32) (uint64, error) {
	if basisPoints > MaxFeeBasisPoints {
		return 0, fmt.Errorf("%w: %d", ErrInvalidFeeBasisPoints, basisPoints)
	}

	// amount < 2^64 and bps <= 10^4, so the product always fits in 256 bits
	// and the quotient is never larger than amount.
	fee := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(uint64(basisPoints)))
	fee.Div(fee, u256BpsDenom)

	return fee.Uint64(), nil
}
