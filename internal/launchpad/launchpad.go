// =============================
// File: internal/launchpad/launchpad.go
// =============================
package launchpad

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/custody"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
)

// ErrCurveNotComplete is returned when the migration authority of a curve
// that is still trading is requested.
var ErrCurveNotComplete = errors.New("bonding curve is not complete")

// Config is the launchpad program setup.
type Config struct {
	ProgramID solana.PublicKey
	Global    curve.GlobalConfig
}

// Option customises a Launchpad.
type Option func(*Launchpad)

// WithMetrics reports trade outcomes to m.
func WithMetrics(m Metrics) Option {
	return func(lp *Launchpad) {
		if m != nil {
			lp.metrics = m
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(lp *Launchpad) {
		if now != nil {
			lp.now = now
		}
	}
}

// Launchpad owns the bonding curves of one program and executes trades on
// them.
type Launchpad struct {
	programID     solana.PublicKey
	global        atomic.Pointer[curve.GlobalConfig]
	mintAuthority *custody.Authority

	store     CurveStore
	custody   Custody
	publisher events.Publisher
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time

	locks sync.Map // mint -> *sync.Mutex

	authMu      sync.RWMutex
	authorities map[solana.PublicKey]*custody.Authority
}

// New creates a launchpad over the given collaborators. The mint authority
// of the program is bound in custody here.
func New(
	cfg Config,
	store CurveStore,
	cust Custody,
	publisher events.Publisher,
	logger *zap.Logger,
	opts ...Option,
) (*Launchpad, error) {
	if store == nil || cust == nil {
		return nil, errors.New("launchpad: curve store and custody are required")
	}
	if cfg.Global.Initialized {
		if err := cfg.Global.Validate(); err != nil {
			return nil, fmt.Errorf("launchpad: %w", err)
		}
	}

	mintAuthority, err := curve.DeriveMintAuthority(cfg.ProgramID)
	if err != nil {
		return nil, err
	}
	mintAuth, err := cust.Bind(mintAuthority)
	if err != nil {
		return nil, fmt.Errorf("failed to bind mint authority: %w", err)
	}

	lp := &Launchpad{
		programID:     cfg.ProgramID,
		mintAuthority: mintAuth,
		store:         store,
		custody:       cust,
		publisher:     publisher,
		metrics:       noopMetrics{},
		logger:        logger.Named("launchpad"),
		now:           time.Now,
		authorities:   make(map[solana.PublicKey]*custody.Authority),
	}
	global := cfg.Global
	lp.global.Store(&global)

	for _, opt := range opts {
		opt(lp)
	}

	return lp, nil
}

// Global returns the configuration snapshot trades are priced with.
func (lp *Launchpad) Global() curve.GlobalConfig {
	return *lp.global.Load()
}

// ProgramID returns the program the curve addresses are derived from.
func (lp *Launchpad) ProgramID() solana.PublicKey {
	return lp.programID
}

// CreateParams describes a token launch.
type CreateParams struct {
	Mint    solana.PublicKey
	Creator solana.PublicKey
	Name    string
	Symbol  string
	URI     string
}

// Create launches a bonding curve for p.Mint, seeded from the current global
// snapshot. The whole token supply is minted into the curve token account.
func (lp *Launchpad) Create(ctx context.Context, p CreateParams) (curve.BondingCurve, error) {
	if p.Mint.IsZero() {
		return curve.BondingCurve{}, errors.New("mint is required")
	}

	unlock := lp.lock(p.Mint)
	defer unlock()

	global := lp.Global()
	if !global.Initialized {
		return curve.BondingCurve{}, curve.ErrNotInitialized
	}

	if _, err := lp.store.Get(ctx, p.Mint); err == nil {
		return curve.BondingCurve{}, fmt.Errorf("%w: %s", curve.ErrCurveExists, p.Mint)
	} else if !errors.Is(err, curve.ErrCurveNotFound) {
		return curve.BondingCurve{}, err
	}

	address, err := curve.DeriveBondingCurveAddress(lp.programID, p.Mint)
	if err != nil {
		return curve.BondingCurve{}, err
	}

	bc, err := global.NewCurve(p.Mint, address)
	if err != nil {
		return curve.BondingCurve{}, err
	}
	now := lp.now().UTC()
	bc.Version = 1
	bc.CreatedAt = now
	bc.UpdatedAt = now

	if _, err := lp.bindCurve(address); err != nil {
		return curve.BondingCurve{}, err
	}

	if err := lp.custody.MintOrBurn(ctx, p.Mint, address, global.InitialTokenSupply, custody.Mint, lp.mintAuthority); err != nil {
		return curve.BondingCurve{}, fmt.Errorf("failed to mint initial supply: %w", err)
	}

	if err := lp.store.Insert(ctx, bc); err != nil {
		if burnErr := lp.custody.MintOrBurn(ctx, p.Mint, address, global.InitialTokenSupply, custody.Burn, lp.authority(address)); burnErr != nil {
			lp.logger.Error("Failed to burn supply of unsaved curve",
				zap.String("mint", p.Mint.String()),
				zap.Error(burnErr))
		}
		return curve.BondingCurve{}, fmt.Errorf("failed to save bonding curve: %w", err)
	}

	lp.metrics.CurveCreated()
	_ = lp.publish(events.CreateEvent{
		BaseEvent:    events.BaseEvent{EventType: events.CurveCreated, EventTime: now},
		Name:         p.Name,
		Symbol:       p.Symbol,
		URI:          p.URI,
		Mint:         p.Mint,
		BondingCurve: address,
		Creator:      p.Creator,
	})

	lp.logger.Info("Bonding curve created",
		zap.String("mint", p.Mint.String()),
		zap.String("bonding_curve", address.String()),
		zap.String("symbol", p.Symbol),
		zap.Uint64("virtual_sol_reserves", bc.VirtualSolReserves),
		zap.Uint64("virtual_token_reserves", bc.VirtualTokenReserves),
		zap.Uint64("real_token_reserves", bc.RealTokenReserves))

	return bc, nil
}

// Curve returns the current state of the curve for mint.
func (lp *Launchpad) Curve(ctx context.Context, mint solana.PublicKey) (curve.BondingCurve, error) {
	return lp.store.Get(ctx, mint)
}

// Curves returns every curve of the program.
func (lp *Launchpad) Curves(ctx context.Context) ([]curve.BondingCurve, error) {
	return lp.store.List(ctx)
}

// IsComplete reports whether the curve for mint has completed.
func (lp *Launchpad) IsComplete(ctx context.Context, mint solana.PublicKey) (bool, error) {
	bc, err := lp.store.Get(ctx, mint)
	if err != nil {
		return false, err
	}
	return bc.Complete, nil
}

// MigrationAuthority releases the custody authority of a completed curve to
// the migrator.
func (lp *Launchpad) MigrationAuthority(ctx context.Context, mint solana.PublicKey) (*custody.Authority, error) {
	bc, err := lp.store.Get(ctx, mint)
	if err != nil {
		return nil, err
	}
	if !bc.Complete {
		return nil, fmt.Errorf("%w: %s", ErrCurveNotComplete, mint)
	}
	auth := lp.authority(bc.Address)
	if auth == nil {
		return nil, fmt.Errorf("no custody authority for curve %s", bc.Address)
	}
	return auth, nil
}

// bindCurve returns the authority of a curve account, binding it on first
// use.
func (lp *Launchpad) bindCurve(address solana.PublicKey) (*custody.Authority, error) {
	lp.authMu.Lock()
	defer lp.authMu.Unlock()

	if auth, ok := lp.authorities[address]; ok {
		return auth, nil
	}
	auth, err := lp.custody.Bind(address)
	if err != nil {
		return nil, fmt.Errorf("failed to bind curve account: %w", err)
	}
	lp.authorities[address] = auth
	return auth, nil
}

func (lp *Launchpad) authority(address solana.PublicKey) *custody.Authority {
	lp.authMu.RLock()
	defer lp.authMu.RUnlock()
	return lp.authorities[address]
}

// lock serialises all mutations of one curve.
func (lp *Launchpad) lock(mint solana.PublicKey) func() {
	v, _ := lp.locks.LoadOrStore(mint, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// publish is fire-and-forget. Failures are logged and returned for callers
// that report them.
func (lp *Launchpad) publish(event events.Event) error {
	if lp.publisher == nil {
		return nil
	}
	if err := lp.publisher.Publish(event); err != nil {
		lp.logger.Error("Failed to publish event",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
		return err
	}
	return nil
}
