// =============================
// File: internal/launchpad/interfaces.go
// =============================
package launchpad

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/custody"
)

// Custody moves and reports assets. Outflows from a curve account must carry
// the authority issued by Bind for that account.
type Custody interface {
	Bind(account solana.PublicKey) (*custody.Authority, error)
	TransferSettlement(ctx context.Context, t custody.Transfer) error
	TransferToken(ctx context.Context, mint solana.PublicKey, t custody.Transfer) error
	MintOrBurn(ctx context.Context, mint, account solana.PublicKey, amount uint64, dir custody.Direction, auth *custody.Authority) error
	SettlementBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	TokenBalance(ctx context.Context, mint, account solana.PublicKey) (uint64, error)
}

// CurveStore keeps the reserve model of every curve. Put replaces the whole
// record and fails with curve.ErrStaleCurve when the stored version is not
// expectedVersion.
type CurveStore interface {
	Get(ctx context.Context, mint solana.PublicKey) (curve.BondingCurve, error)
	Insert(ctx context.Context, bc curve.BondingCurve) error
	Put(ctx context.Context, bc curve.BondingCurve, expectedVersion uint64) error
	List(ctx context.Context) ([]curve.BondingCurve, error)
}

// Metrics receives trade outcomes. Implemented by internal/metrics.
type Metrics interface {
	CurveCreated()
	TradeExecuted(direction string, settlement, tokens, fee uint64)
	TradeRejected(direction, state, reason string)
	CurveCompleted()
}

type noopMetrics struct{}

func (noopMetrics) CurveCreated()                             {}
func (noopMetrics) TradeExecuted(string, uint64, uint64, uint64) {}
func (noopMetrics) TradeRejected(string, string, string)       {}
func (noopMetrics) CurveCompleted()                            {}
