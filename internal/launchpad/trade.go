// =============================
// File: internal/launchpad/trade.go
// =============================
package launchpad

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/custody"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
)

// BuyRequest spends SettlementIn (plus the fee) on tokens.
type BuyRequest struct {
	Mint         solana.PublicKey
	User         solana.PublicKey
	FeeRecipient solana.PublicKey
	SettlementIn uint64
	MinTokensOut uint64
}

// NoSettlementLimit lets an exact-token buy pay whatever the curve asks.
const NoSettlementLimit uint64 = math.MaxUint64

// BuyExactRequest buys exactly TokensOut, paying at most MaxSettlementCost
// including the fee. The cap is always enforced; a zero cap rejects every
// buy, pass NoSettlementLimit to lift it.
type BuyExactRequest struct {
	Mint              solana.PublicKey
	User              solana.PublicKey
	FeeRecipient      solana.PublicKey
	TokensOut         uint64
	MaxSettlementCost uint64
}

// SellRequest sells TokensIn for at least MinSettlementOut after the fee.
type SellRequest struct {
	Mint             solana.PublicKey
	User             solana.PublicKey
	FeeRecipient     solana.PublicKey
	TokensIn         uint64
	MinSettlementOut uint64
}

// TradeResult is a committed trade.
type TradeResult struct {
	ID        string
	Direction Direction
	State     TradeState
	Mint      solana.PublicKey
	User      solana.PublicKey

	// SettlementAmount is the settlement leg priced by the curve, fee excluded.
	SettlementAmount uint64
	TokenAmount      uint64
	Fee              uint64
	// NetSettlement is what the trader paid (buy) or received (sell).
	NetSettlement uint64

	Curve     curve.BondingCurve
	Completed bool
	// MigrationError is set when the curve completed but the migration request
	// could not be handed over. The trade itself is committed.
	MigrationError error
	Timestamp      time.Time
}

// Buy executes a settlement-denominated buy.
func (lp *Launchpad) Buy(ctx context.Context, req BuyRequest) (*TradeResult, error) {
	return lp.execute(ctx, order{
		direction:    Buy,
		mint:         req.Mint,
		user:         req.User,
		feeRecipient: req.FeeRecipient,
		amount:       req.SettlementIn,
		price: func(amm curve.AMM) (fill, error) {
			q, err := amm.QuoteBuy(req.SettlementIn)
			if err != nil {
				return fill{}, err
			}
			return fill{settlement: q.SettlementIn, tokens: q.TokensOut, reserves: q.Reserves}, nil
		},
		checkSlippage: func(f fill, fee uint64) error {
			if f.tokens < req.MinTokensOut {
				return fmt.Errorf("%w: %d tokens out, minimum %d", curve.ErrSlippageExceeded, f.tokens, req.MinTokensOut)
			}
			return nil
		},
	})
}

// BuyExactTokens buys a fixed token amount. It is the only way to take the
// last real tokens off a curve exactly.
func (lp *Launchpad) BuyExactTokens(ctx context.Context, req BuyExactRequest) (*TradeResult, error) {
	return lp.execute(ctx, order{
		direction:    Buy,
		exactTokens:  true,
		mint:         req.Mint,
		user:         req.User,
		feeRecipient: req.FeeRecipient,
		amount:       req.TokensOut,
		price: func(amm curve.AMM) (fill, error) {
			q, err := amm.QuoteBuyExactTokens(req.TokensOut)
			if err != nil {
				return fill{}, err
			}
			return fill{settlement: q.SettlementIn, tokens: q.TokensOut, reserves: q.Reserves}, nil
		},
		checkSlippage: func(f fill, fee uint64) error {
			cost := f.settlement + fee
			if cost < f.settlement || cost > req.MaxSettlementCost {
				return fmt.Errorf("%w: cost %d, maximum %d", curve.ErrSlippageExceeded, cost, req.MaxSettlementCost)
			}
			return nil
		},
	})
}

// Sell executes a token-denominated sell.
func (lp *Launchpad) Sell(ctx context.Context, req SellRequest) (*TradeResult, error) {
	return lp.execute(ctx, order{
		direction:    Sell,
		mint:         req.Mint,
		user:         req.User,
		feeRecipient: req.FeeRecipient,
		amount:       req.TokensIn,
		price: func(amm curve.AMM) (fill, error) {
			q, err := amm.QuoteSell(req.TokensIn)
			if err != nil {
				return fill{}, err
			}
			return fill{settlement: q.SettlementOut, tokens: q.TokensIn, reserves: q.Reserves}, nil
		},
		checkSlippage: func(f fill, fee uint64) error {
			if net := f.settlement - fee; net < req.MinSettlementOut {
				return fmt.Errorf("%w: %d out after fee, minimum %d", curve.ErrSlippageExceeded, net, req.MinSettlementOut)
			}
			return nil
		},
	})
}

type order struct {
	direction    Direction
	exactTokens  bool
	mint         solana.PublicKey
	user         solana.PublicKey
	feeRecipient solana.PublicKey
	// amount is the requested input: settlement for buys, tokens for sells
	// and exact-token buys.
	amount        uint64
	price         func(curve.AMM) (fill, error)
	checkSlippage func(f fill, fee uint64) error
}

// fill is a priced trade before the fee.
type fill struct {
	settlement uint64
	tokens     uint64
	reserves   curve.Reserves
}

// trade carries one order through the state machine.
type trade struct {
	order
	state  TradeState
	global curve.GlobalConfig
	before curve.BondingCurve
	auth   *custody.Authority
	fill   fill
	fee    uint64
}

func (lp *Launchpad) execute(ctx context.Context, o order) (*TradeResult, error) {
	unlock := lp.lock(o.mint)
	defer unlock()

	t := &trade{order: o, state: StateIdle, global: lp.Global()}

	t.state = StateValidating
	if err := lp.validate(ctx, t); err != nil {
		return nil, lp.reject(t, err)
	}

	t.state = StatePricing
	f, err := o.price(curve.NewAMM(t.before.Reserves()))
	if err != nil {
		return nil, lp.reject(t, err)
	}
	t.fill = f

	t.state = StateSettling
	after, err := lp.settle(ctx, t)
	if err != nil {
		return nil, lp.reject(t, err)
	}

	t.state = StateCompleted
	return lp.complete(t, after), nil
}

// validate loads the curve and checks the order against it. The checks run in
// a fixed order and the first failure wins.
func (lp *Launchpad) validate(ctx context.Context, t *trade) error {
	if !t.global.Initialized {
		return curve.ErrNotInitialized
	}

	bc, err := lp.store.Get(ctx, t.mint)
	if err != nil {
		return err
	}
	t.before = bc

	if bc.Complete {
		return fmt.Errorf("%w: %s", curve.ErrCurveCompleted, t.mint)
	}
	if t.amount == 0 {
		return curve.ErrZeroAmount
	}

	switch {
	case t.direction == Sell:
		held, err := lp.custody.TokenBalance(ctx, t.mint, t.user)
		if err != nil {
			return err
		}
		if held < t.amount {
			return fmt.Errorf("%w: trader holds %d tokens, selling %d", curve.ErrInsufficientBalance, held, t.amount)
		}
		pool, err := lp.custody.TokenBalance(ctx, t.mint, bc.Address)
		if err != nil {
			return err
		}
		if pool < t.amount {
			return fmt.Errorf("%w: curve token account holds %d, selling %d", curve.ErrInsufficientLiquidity, pool, t.amount)
		}
	case !t.exactTokens:
		fee, err := curve.CalculateFee(t.amount, t.global.FeeBasisPoints)
		if err != nil {
			return err
		}
		if err := lp.requireSettlement(ctx, t.user, t.amount, fee); err != nil {
			return err
		}
	}

	if t.feeRecipient != t.global.FeeRecipient {
		return fmt.Errorf("%w: %s", curve.ErrInvalidFeeRecipient, t.feeRecipient)
	}
	return nil
}

func (lp *Launchpad) requireSettlement(ctx context.Context, user solana.PublicKey, amount, fee uint64) error {
	need := amount + fee
	if need < amount {
		return fmt.Errorf("%w: %d + fee %d", curve.ErrOverflow, amount, fee)
	}
	held, err := lp.custody.SettlementBalance(ctx, user)
	if err != nil {
		return err
	}
	if held < need {
		return fmt.Errorf("%w: trader holds %d, needs %d", curve.ErrInsufficientBalance, held, need)
	}
	return nil
}

// settle applies the fee, slippage bound, transfers and reserve write. On
// any failure every applied transfer is reverted and nothing is written.
func (lp *Launchpad) settle(ctx context.Context, t *trade) (curve.BondingCurve, error) {
	fee, err := curve.CalculateFee(t.fill.settlement, t.global.FeeBasisPoints)
	if err != nil {
		return curve.BondingCurve{}, err
	}
	t.fee = fee

	if err := t.checkSlippage(t.fill, fee); err != nil {
		return curve.BondingCurve{}, err
	}
	if t.exactTokens {
		if err := lp.requireSettlement(ctx, t.user, t.fill.settlement, fee); err != nil {
			return curve.BondingCurve{}, err
		}
	}

	after := t.before.WithReserves(t.fill.reserves)
	after.Version = t.before.Version + 1
	after.UpdatedAt = lp.now().UTC()
	if err := after.CheckInvariants(); err != nil {
		return curve.BondingCurve{}, fmt.Errorf("%w: %w", curve.ErrOverflow, err)
	}

	t.auth = lp.authority(t.before.Address)
	if t.auth == nil {
		return curve.BondingCurve{}, fmt.Errorf("%w: no custody authority for curve %s", curve.ErrTransferFailed, t.before.Address)
	}

	j := &journal{custody: lp.custody, mint: t.mint, curveAccount: t.before.Address, auth: t.auth}
	if err := j.apply(ctx, t.transfers()); err != nil {
		lp.rollback(ctx, t, j)
		return curve.BondingCurve{}, fmt.Errorf("%w: %w", curve.ErrTransferFailed, err)
	}

	if err := lp.store.Put(ctx, after, t.before.Version); err != nil {
		lp.rollback(ctx, t, j)
		return curve.BondingCurve{}, err
	}

	return after, nil
}

// transfers lists the legs of a trade. The fee recipient is credited last, so
// a rollback never has to move funds out of it.
func (t *trade) transfers() []leg {
	curveAccount := t.before.Address
	switch t.direction {
	case Buy:
		return []leg{
			{asset: settlementAsset, from: t.user, to: curveAccount, amount: t.fill.settlement},
			{asset: tokenAsset, from: curveAccount, to: t.user, amount: t.fill.tokens},
			{asset: settlementAsset, from: t.user, to: t.feeRecipient, amount: t.fee},
		}
	default:
		return []leg{
			{asset: tokenAsset, from: t.user, to: curveAccount, amount: t.fill.tokens},
			{asset: settlementAsset, from: curveAccount, to: t.user, amount: t.fill.settlement - t.fee},
			{asset: settlementAsset, from: curveAccount, to: t.feeRecipient, amount: t.fee},
		}
	}
}

func (lp *Launchpad) rollback(ctx context.Context, t *trade, j *journal) {
	// Reverting must not be cut short by the caller's deadline.
	if err := j.revert(context.WithoutCancel(ctx)); err != nil {
		lp.logger.Error("Failed to revert trade transfers",
			zap.String("mint", t.mint.String()),
			zap.String("user", t.user.String()),
			zap.String("direction", string(t.direction)),
			zap.Error(err))
	}
}

// reject turns a failure into a TradeError and reports it.
func (lp *Launchpad) reject(t *trade, err error) error {
	failedIn := t.state
	t.state = StateRejected
	reason := Reason(err)

	lp.metrics.TradeRejected(string(t.direction), failedIn.String(), reason)
	lp.logger.Info("Trade rejected",
		zap.String("mint", t.mint.String()),
		zap.String("user", t.user.String()),
		zap.String("direction", string(t.direction)),
		zap.String("state", failedIn.String()),
		zap.String("reason", reason),
		zap.Error(err))

	_ = lp.publish(events.TradeRejectedEvent{
		BaseEvent: events.BaseEvent{EventType: events.TradeRejected, EventTime: lp.now().UTC()},
		Mint:      t.mint,
		User:      t.user,
		Direction: string(t.direction),
		State:     failedIn.String(),
		Reason:    err,
	})

	return &TradeError{Direction: t.direction, Mint: t.mint, State: failedIn, Err: err}
}

// complete emits the trade record and evaluates the migration trigger.
func (lp *Launchpad) complete(t *trade, after curve.BondingCurve) *TradeResult {
	res := &TradeResult{
		ID:               uuid.NewString(),
		Direction:        t.direction,
		State:            t.state,
		Mint:             t.mint,
		User:             t.user,
		SettlementAmount: t.fill.settlement,
		TokenAmount:      t.fill.tokens,
		Fee:              t.fee,
		Curve:            after,
		Completed:        after.Complete,
		Timestamp:        after.UpdatedAt,
	}
	if t.direction == Buy {
		res.NetSettlement = t.fill.settlement + t.fee
	} else {
		res.NetSettlement = t.fill.settlement - t.fee
	}

	lp.metrics.TradeExecuted(string(t.direction), t.fill.settlement, t.fill.tokens, t.fee)
	_ = lp.publish(events.TradeEvent{
		BaseEvent:            events.BaseEvent{EventType: events.TradeExecuted, EventTime: res.Timestamp},
		ID:                   res.ID,
		Mint:                 t.mint,
		User:                 t.user,
		SolAmount:            t.fill.settlement,
		TokenAmount:          t.fill.tokens,
		Fee:                  t.fee,
		IsBuy:                t.direction == Buy,
		VirtualSolReserves:   after.VirtualSolReserves,
		VirtualTokenReserves: after.VirtualTokenReserves,
		RealSolReserves:      after.RealSolReserves,
		RealTokenReserves:    after.RealTokenReserves,
		CurveVersion:         after.Version,
	})

	lp.logger.Info("Trade executed",
		zap.String("id", res.ID),
		zap.String("mint", t.mint.String()),
		zap.String("user", t.user.String()),
		zap.String("direction", string(t.direction)),
		zap.Uint64("settlement", t.fill.settlement),
		zap.Uint64("tokens", t.fill.tokens),
		zap.Uint64("fee", t.fee),
		zap.Uint64("real_token_reserves", after.RealTokenReserves))

	if !t.before.Complete && after.Complete {
		res.MigrationError = lp.requestMigration(t, after)
	}
	return res
}
