// =============================
// File: internal/venue/venue.go
// =============================
package venue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/custody"
)

var (
	ErrPoolNotFound   = errors.New("liquidity pool not found")
	ErrNotLocked      = errors.New("liquidity receipt is not locked")
	ErrAlreadyLocked  = errors.New("liquidity receipt is already locked")
	ErrNotLockOwner   = errors.New("caller does not own the locked receipt")
	ErrEmptyLiquidity = errors.New("pool needs liquidity on both sides")
)

// Seeds of the venue's program addresses.
const (
	PoolSeed       = "pool"
	LPMintSeed     = "lp-mint"
	LockEscrowSeed = "lock-escrow"
)

// Custody is the asset ledger the venue settles on.
type Custody interface {
	Bind(account solana.PublicKey) (*custody.Authority, error)
	TransferSettlement(ctx context.Context, t custody.Transfer) error
	TransferToken(ctx context.Context, mint solana.PublicKey, t custody.Transfer) error
	MintOrBurn(ctx context.Context, mint, account solana.PublicKey, amount uint64, dir custody.Direction, auth *custody.Authority) error
}

// Request seeds a pool for Mint with assets held by Source. Authority must
// be the custody capability of Source.
type Request struct {
	Mint             solana.PublicKey
	Source           solana.PublicKey
	Authority        *custody.Authority
	SettlementAmount uint64
	TokenAmount      uint64
}

// Handle identifies a seeded pool and the receipt minted for it.
type Handle struct {
	Pool     solana.PublicKey
	Mint     solana.PublicKey
	LPMint   solana.PublicKey
	LPAmount uint64
}

// PoolInfo is a point-in-time view of a pool.
type PoolInfo struct {
	Handle
	SettlementReserve uint64
	TokenReserve      uint64
	AccruedFees       uint64
	Locked            bool
	LockOwner         solana.PublicKey
}

// Price returns the settlement price of one whole token.
func (p PoolInfo) Price() decimal.Decimal {
	if p.TokenReserve == 0 {
		return decimal.Zero
	}
	sol := curve.LamportsToSol(p.SettlementReserve)
	tokens := curve.TokenUnitsToTokens(p.TokenReserve)
	return sol.Div(tokens)
}

type pool struct {
	handle     Handle
	auth       *custody.Authority
	escrow     solana.PublicKey
	escrowAuth *custody.Authority

	settlementReserve uint64
	tokenReserve      uint64
	accruedFees       uint64
	lockOwner         *custody.Authority
}

// Venue is a constant-product liquidity venue that completed curves migrate
// into. Swap fees accrue to whoever locked the pool's receipt.
type Venue struct {
	programID solana.PublicKey
	custody   Custody
	feeBps    uint32
	lpAuth    *custody.Authority
	logger    *zap.Logger

	mu       sync.Mutex
	pools    map[solana.PublicKey]*pool // by token mint
	accounts map[solana.PublicKey]*custody.Authority
}

// New creates a venue charging feeBps on the settlement leg of every swap.
func New(programID solana.PublicKey, cust Custody, feeBps uint32, logger *zap.Logger) (*Venue, error) {
	if feeBps > curve.MaxFeeBasisPoints {
		return nil, fmt.Errorf("%w: %d", curve.ErrInvalidFeeBasisPoints, feeBps)
	}
	lpAuthority, _, err := solana.FindProgramAddress([][]byte{[]byte("lp-authority")}, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive lp authority: %w", err)
	}
	lpAuth, err := cust.Bind(lpAuthority)
	if err != nil {
		return nil, fmt.Errorf("failed to bind lp authority: %w", err)
	}

	return &Venue{
		programID: programID,
		custody:   cust,
		feeBps:    feeBps,
		lpAuth:    lpAuth,
		logger:    logger.Named("venue"),
		pools:     make(map[solana.PublicKey]*pool),
		accounts:  make(map[solana.PublicKey]*custody.Authority),
	}, nil
}

// CreateLiquidityVenue moves the request's assets into a new pool and mints
// the LP receipt to the source account. Repeating the call for an existing
// pool returns its handle.
func (v *Venue) CreateLiquidityVenue(ctx context.Context, req Request) (Handle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if p, ok := v.pools[req.Mint]; ok {
		return p.handle, nil
	}
	if req.SettlementAmount == 0 || req.TokenAmount == 0 {
		return Handle{}, ErrEmptyLiquidity
	}

	poolAddr, err := v.derive(PoolSeed, req.Mint)
	if err != nil {
		return Handle{}, err
	}
	lpMint, err := v.derive(LPMintSeed, req.Mint)
	if err != nil {
		return Handle{}, err
	}
	escrow, err := v.derive(LockEscrowSeed, poolAddr)
	if err != nil {
		return Handle{}, err
	}

	lpAmount := new(uint256.Int).Mul(uint256.NewInt(req.SettlementAmount), uint256.NewInt(req.TokenAmount))
	lpAmount.Sqrt(lpAmount)

	p := &pool{
		handle: Handle{
			Pool:     poolAddr,
			Mint:     req.Mint,
			LPMint:   lpMint,
			LPAmount: lpAmount.Uint64(),
		},
		escrow: escrow,
	}

	if p.auth, err = v.bind(poolAddr); err != nil {
		return Handle{}, err
	}
	if p.escrowAuth, err = v.bind(escrow); err != nil {
		return Handle{}, err
	}

	if err := v.custody.TransferSettlement(ctx, custody.Transfer{
		From: req.Source, To: poolAddr, Amount: req.SettlementAmount, Authority: req.Authority,
	}); err != nil {
		return Handle{}, fmt.Errorf("failed to fund pool settlement: %w", err)
	}
	if err := v.custody.TransferToken(ctx, req.Mint, custody.Transfer{
		From: req.Source, To: poolAddr, Amount: req.TokenAmount, Authority: req.Authority,
	}); err != nil {
		v.undo(ctx, custody.Transfer{From: poolAddr, To: req.Source, Amount: req.SettlementAmount, Authority: p.auth}, solana.PublicKey{})
		return Handle{}, fmt.Errorf("failed to fund pool tokens: %w", err)
	}
	if err := v.custody.MintOrBurn(ctx, lpMint, req.Source, p.handle.LPAmount, custody.Mint, v.lpAuth); err != nil {
		v.undo(ctx, custody.Transfer{From: poolAddr, To: req.Source, Amount: req.TokenAmount, Authority: p.auth}, req.Mint)
		v.undo(ctx, custody.Transfer{From: poolAddr, To: req.Source, Amount: req.SettlementAmount, Authority: p.auth}, solana.PublicKey{})
		return Handle{}, fmt.Errorf("failed to mint lp receipt: %w", err)
	}

	p.settlementReserve = req.SettlementAmount
	p.tokenReserve = req.TokenAmount
	v.pools[req.Mint] = p

	v.logger.Info("Liquidity pool created",
		zap.String("mint", req.Mint.String()),
		zap.String("pool", poolAddr.String()),
		zap.Uint64("settlement", req.SettlementAmount),
		zap.Uint64("tokens", req.TokenAmount),
		zap.Uint64("lp_amount", p.handle.LPAmount))

	return p.handle, nil
}

// LockLiquidityReceipt moves the LP receipt held by owner into the pool's
// escrow. The owner keeps the right to claim swap fees.
func (v *Venue) LockLiquidityReceipt(ctx context.Context, h Handle, owner *custody.Authority) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	p, err := v.pool(h.Mint)
	if err != nil {
		return err
	}
	if p.lockOwner != nil {
		if p.lockOwner == owner {
			return nil
		}
		return ErrAlreadyLocked
	}
	if owner == nil {
		return ErrNotLockOwner
	}

	if err := v.custody.TransferToken(ctx, p.handle.LPMint, custody.Transfer{
		From: owner.Account(), To: p.escrow, Amount: p.handle.LPAmount, Authority: owner,
	}); err != nil {
		return fmt.Errorf("failed to lock lp receipt: %w", err)
	}
	p.lockOwner = owner

	v.logger.Info("Liquidity receipt locked",
		zap.String("pool", p.handle.Pool.String()),
		zap.String("owner", owner.Account().String()),
		zap.Uint64("lp_amount", p.handle.LPAmount))
	return nil
}

// ClaimFee pays the accrued swap fees of the pool to recipient. Only the
// owner of the locked receipt may claim.
func (v *Venue) ClaimFee(ctx context.Context, h Handle, owner *custody.Authority, recipient solana.PublicKey) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p, err := v.pool(h.Mint)
	if err != nil {
		return 0, err
	}
	if p.lockOwner == nil {
		return 0, ErrNotLocked
	}
	if owner != p.lockOwner {
		return 0, ErrNotLockOwner
	}

	amount := p.accruedFees
	if amount == 0 {
		return 0, nil
	}
	if err := v.custody.TransferSettlement(ctx, custody.Transfer{
		From: p.handle.Pool, To: recipient, Amount: amount, Authority: p.auth,
	}); err != nil {
		return 0, fmt.Errorf("failed to pay fees: %w", err)
	}
	p.accruedFees = 0

	v.logger.Info("Pool fees claimed",
		zap.String("pool", p.handle.Pool.String()),
		zap.String("recipient", recipient.String()),
		zap.Uint64("amount", amount))
	return amount, nil
}

// Pool returns the state of the pool for mint.
func (v *Venue) Pool(mint solana.PublicKey) (PoolInfo, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p, err := v.pool(mint)
	if err != nil {
		return PoolInfo{}, err
	}
	info := PoolInfo{
		Handle:            p.handle,
		SettlementReserve: p.settlementReserve,
		TokenReserve:      p.tokenReserve,
		AccruedFees:       p.accruedFees,
		Locked:            p.lockOwner != nil,
	}
	if p.lockOwner != nil {
		info.LockOwner = p.lockOwner.Account()
	}
	return info, nil
}

func (v *Venue) pool(mint solana.PublicKey) (*pool, error) {
	p, ok := v.pools[mint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, mint)
	}
	return p, nil
}

// bind must be called with v.mu held. Accounts stay bound when a creation
// fails half way, so a retry reuses them.
func (v *Venue) bind(account solana.PublicKey) (*custody.Authority, error) {
	if auth, ok := v.accounts[account]; ok {
		return auth, nil
	}
	auth, err := v.custody.Bind(account)
	if err != nil {
		return nil, err
	}
	v.accounts[account] = auth
	return auth, nil
}

func (v *Venue) derive(seed string, key solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(seed), key.Bytes()}, v.programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive %s address: %w", seed, err)
	}
	return addr, nil
}

// undo reverses a transfer. A zero mint means the settlement asset.
func (v *Venue) undo(ctx context.Context, t custody.Transfer, mint solana.PublicKey) {
	var err error
	if mint.IsZero() {
		err = v.custody.TransferSettlement(ctx, t)
	} else {
		err = v.custody.TransferToken(ctx, mint, t)
	}
	if err != nil {
		v.logger.Error("Failed to revert pool transfer",
			zap.String("from", t.From.String()),
			zap.String("to", t.To.String()),
			zap.Uint64("amount", t.Amount),
			zap.Error(err))
	}
}
