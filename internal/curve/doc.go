// Package curve implements the bonding-curve pricing core: the virtual/real
// reserve model, the constant-product buy and sell quotes, and the protocol
// fee calculation.
//
// Everything in this package is pure. An AMM is built from a reserve
// snapshot and returns quotes that carry the reserves the curve moves to;
// writing them back is the caller's job (see internal/launchpad).
//
// Key Types and Functions:
//
//   - GlobalConfig: immutable snapshot of the launch parameters; NewCurve seeds a curve.
//   - BondingCurve: reserve model of one token; CheckInvariants validates it.
//   - AMM: QuoteBuy, QuoteBuyExactTokens, QuoteSell.
//   - CalculateFee: floor(amount * bps / 10000).
//
// All products are evaluated in 256-bit integers (holiman/uint256), so the
// constant-product math cannot overflow for 64-bit reserves; results that do
// not fit back into 64 bits fail with ErrOverflow.
//
// Usage example:
//
//	cfg := curve.DefaultGlobalConfig()
//	cfg.FeeRecipient = feeRecipient
//	bc, err := cfg.NewCurve(mint, curveAddr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	quote, err := curve.NewAMM(bc.Reserves()).QuoteBuy(1_000_000_000)
//	fee, _ := curve.CalculateFee(quote.SettlementIn, cfg.FeeBasisPoints)
package curve
