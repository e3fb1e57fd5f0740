// =============================
// File: internal/migration/migrator.go
// =============================
package migration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/custody"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/models"
	"github.com/rovshanmuradov/curve-launchpad/internal/venue"
)

// ErrNotMigrated is returned for fee claims against a curve that has no
// venue yet.
var ErrNotMigrated = errors.New("curve has not been migrated")

// Launchpad is the part of the launchpad the migrator reads.
type Launchpad interface {
	Global() curve.GlobalConfig
	Curve(ctx context.Context, mint solana.PublicKey) (curve.BondingCurve, error)
	Curves(ctx context.Context) ([]curve.BondingCurve, error)
	MigrationAuthority(ctx context.Context, mint solana.PublicKey) (*custody.Authority, error)
}

// Venue creates and locks liquidity pools.
type Venue interface {
	CreateLiquidityVenue(ctx context.Context, req venue.Request) (venue.Handle, error)
	LockLiquidityReceipt(ctx context.Context, h venue.Handle, owner *custody.Authority) error
	ClaimFee(ctx context.Context, h venue.Handle, owner *custody.Authority, recipient solana.PublicKey) (uint64, error)
}

// Balances reads what a curve account holds.
type Balances interface {
	TokenBalance(ctx context.Context, mint, account solana.PublicKey) (uint64, error)
}

// Store persists migration records.
type Store interface {
	SaveMigration(ctx context.Context, m *models.Migration) error
	GetMigration(ctx context.Context, mint string) (*models.Migration, error)
}

// Metrics receives migration outcomes.
type Metrics interface {
	MigrationSucceeded()
	MigrationFailed()
	MigrationRetried()
	FeesClaimed(amount uint64)
}

// Config bounds the venue hand-off retries.
type Config struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig returns the retry policy used when none is configured.
func DefaultConfig() Config {
	return Config{
		MaxTries:        5,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Migrator moves completed curves into their liquidity venue.
type Migrator struct {
	cfg       Config
	launchpad Launchpad
	venue     Venue
	balances  Balances
	store     Store
	publisher events.Publisher
	metrics   Metrics
	logger    *zap.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	handles map[solana.PublicKey]venue.Handle
}

// New creates a migrator. publisher and metrics may be nil.
func New(
	cfg Config,
	lp Launchpad,
	v Venue,
	balances Balances,
	store Store,
	publisher events.Publisher,
	metrics Metrics,
	logger *zap.Logger,
) *Migrator {
	if cfg.MaxTries == 0 {
		cfg.MaxTries = DefaultConfig().MaxTries
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultConfig().InitialInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = cfg.InitialInterval * 10
	}

	return &Migrator{
		cfg:       cfg,
		launchpad: lp,
		venue:     v,
		balances:  balances,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("migrator"),
		handles:   make(map[solana.PublicKey]venue.Handle),
	}
}

// Subscriber is the part of the event bus the migrator listens on.
type Subscriber interface {
	Subscribe(eventType events.EventType, handler events.Handler) events.Subscription
}

// Attach makes the migrator consume migration requests from bus.
func (m *Migrator) Attach(bus Subscriber) events.Subscription {
	return bus.Subscribe(events.MigrationRequested, events.On(func(ctx context.Context, e events.MigrationRequestedEvent) error {
		_, err := m.Migrate(ctx, e.Mint)
		return err
	}))
}

// Migrate hands the curve for mint over to its venue. It is idempotent:
// concurrent and repeated calls share one migration.
func (m *Migrator) Migrate(ctx context.Context, mint solana.PublicKey) (venue.Handle, error) {
	if h, ok := m.handle(mint); ok {
		return h, nil
	}

	v, err, _ := m.group.Do(mint.String(), func() (interface{}, error) {
		return m.migrate(ctx, mint)
	})
	if err != nil {
		return venue.Handle{}, err
	}
	return v.(venue.Handle), nil
}

func (m *Migrator) migrate(ctx context.Context, mint solana.PublicKey) (venue.Handle, error) {
	if h, ok := m.handle(mint); ok {
		return h, nil
	}

	record, err := m.store.GetMigration(ctx, mint.String())
	switch {
	case err == nil && record.Status == models.MigrationCompleted:
		h, err := handleFromRecord(record)
		if err != nil {
			return venue.Handle{}, err
		}
		m.remember(mint, h)
		return h, nil
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		record = nil
	default:
		return venue.Handle{}, fmt.Errorf("failed to load migration record: %w", err)
	}

	auth, err := m.launchpad.MigrationAuthority(ctx, mint)
	if err != nil {
		return venue.Handle{}, err
	}
	bc, err := m.launchpad.Curve(ctx, mint)
	if err != nil {
		return venue.Handle{}, err
	}
	tokens, err := m.balances.TokenBalance(ctx, mint, bc.Address)
	if err != nil {
		return venue.Handle{}, err
	}

	if record == nil {
		record = &models.Migration{
			Mint:         mint.String(),
			BondingCurve: bc.Address.String(),
		}
	}
	record.Status = models.MigrationPending
	record.SolAmount = bc.RealSolReserves
	record.TokenAmount = tokens
	record.ErrorMessage = ""
	if err := m.store.SaveMigration(ctx, record); err != nil {
		return venue.Handle{}, fmt.Errorf("failed to save migration record: %w", err)
	}

	logger := m.logger.With(zap.String("mint", mint.String()))
	logger.Info("Migrating bonding curve",
		zap.String("bonding_curve", bc.Address.String()),
		zap.Uint64("settlement", bc.RealSolReserves),
		zap.Uint64("tokens", tokens))

	h, err := m.handOff(ctx, record, venue.Request{
		Mint:             mint,
		Source:           bc.Address,
		Authority:        auth,
		SettlementAmount: bc.RealSolReserves,
		TokenAmount:      tokens,
	}, auth)
	if err != nil {
		m.fail(ctx, record, err)
		return venue.Handle{}, err
	}

	now := time.Now().UTC()
	record.Status = models.MigrationCompleted
	record.Pool = h.Pool.String()
	record.LPMint = h.LPMint.String()
	record.LPAmount = h.LPAmount
	record.CompletedAt = &now
	if err := m.store.SaveMigration(ctx, record); err != nil {
		logger.Error("Failed to save completed migration", zap.Error(err))
	}
	m.remember(mint, h)

	if m.metrics != nil {
		m.metrics.MigrationSucceeded()
	}
	m.publish(events.MigrationCompletedEvent{
		BaseEvent:   events.BaseEvent{EventType: events.MigrationCompleted, EventTime: now},
		Mint:        mint,
		Pool:        h.Pool,
		LPMint:      h.LPMint,
		LPAmount:    h.LPAmount,
		SolAmount:   record.SolAmount,
		TokenAmount: record.TokenAmount,
	})

	logger.Info("Bonding curve migrated",
		zap.String("pool", h.Pool.String()),
		zap.Uint64("lp_amount", h.LPAmount),
		zap.Int("attempts", record.Attempts))
	return h, nil
}

// handOff creates the venue and locks its receipt under the curve's own
// custody, retrying each step with exponential backoff.
func (m *Migrator) handOff(ctx context.Context, record *models.Migration, req venue.Request, owner *custody.Authority) (venue.Handle, error) {
	h, err := retry(ctx, m, func() (venue.Handle, error) {
		record.Attempts++
		return m.venue.CreateLiquidityVenue(ctx, req)
	})
	if err != nil {
		return venue.Handle{}, fmt.Errorf("failed to create liquidity venue: %w", err)
	}

	_, err = retry(ctx, m, func() (struct{}, error) {
		return struct{}{}, m.venue.LockLiquidityReceipt(ctx, h, owner)
	})
	if err != nil {
		return venue.Handle{}, fmt.Errorf("failed to lock liquidity receipt: %w", err)
	}
	return h, nil
}

func retry[T any](ctx context.Context, m *Migrator, op func() (T, error)) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.cfg.InitialInterval
	policy.MaxInterval = m.cfg.MaxInterval

	notify := func(err error, d time.Duration) {
		if m.metrics != nil {
			m.metrics.MigrationRetried()
		}
		m.logger.Warn("Повтор передачи ликвидности после ошибки", zap.Error(err), zap.Duration("backoff", d))
	}

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if errors.Is(err, custody.ErrUnauthorized) || errors.Is(err, venue.ErrEmptyLiquidity) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(m.cfg.MaxTries),
		backoff.WithNotify(notify))
}

func (m *Migrator) fail(ctx context.Context, record *models.Migration, cause error) {
	record.Status = models.MigrationFailed
	record.ErrorMessage = cause.Error()
	if err := m.store.SaveMigration(context.WithoutCancel(ctx), record); err != nil {
		m.logger.Error("Failed to save failed migration", zap.String("mint", record.Mint), zap.Error(err))
	}
	if m.metrics != nil {
		m.metrics.MigrationFailed()
	}

	mint, _ := solana.PublicKeyFromBase58(record.Mint)
	m.publish(events.MigrationFailedEvent{
		BaseEvent: events.NewBase(events.MigrationFailed),
		Mint:      mint,
		Error:     cause,
	})
	m.logger.Error("Migration failed",
		zap.String("mint", record.Mint),
		zap.Int("attempts", record.Attempts),
		zap.Error(cause))
}

// ClaimFees collects the post-migration fees of the curve's pool for the
// protocol fee recipient.
func (m *Migrator) ClaimFees(ctx context.Context, mint solana.PublicKey) (uint64, error) {
	h, err := m.lookup(ctx, mint)
	if err != nil {
		return 0, err
	}
	auth, err := m.launchpad.MigrationAuthority(ctx, mint)
	if err != nil {
		return 0, err
	}

	recipient := m.launchpad.Global().FeeRecipient
	amount, err := m.venue.ClaimFee(ctx, h, auth, recipient)
	if err != nil {
		return 0, fmt.Errorf("failed to claim fees for %s: %w", mint, err)
	}
	if amount == 0 {
		return 0, nil
	}

	if record, err := m.store.GetMigration(ctx, mint.String()); err == nil {
		record.FeesClaimed += amount
		if err := m.store.SaveMigration(ctx, record); err != nil {
			m.logger.Error("Failed to record claimed fees", zap.String("mint", mint.String()), zap.Error(err))
		}
	}
	if m.metrics != nil {
		m.metrics.FeesClaimed(amount)
	}

	m.logger.Info("Venue fees claimed",
		zap.String("mint", mint.String()),
		zap.String("recipient", recipient.String()),
		zap.Uint64("amount", amount))
	return amount, nil
}

// Sweep migrates every completed curve whose migration has not finished,
// picking up requests that were lost or failed. It returns the number of
// curves migrated by this call.
func (m *Migrator) Sweep(ctx context.Context) (int, error) {
	curves, err := m.launchpad.Curves(ctx)
	if err != nil {
		return 0, err
	}

	var (
		migrated int
		errs     []error
	)
	for _, bc := range curves {
		if !bc.Complete {
			continue
		}
		if _, ok := m.handle(bc.Mint); ok {
			continue
		}
		if record, err := m.store.GetMigration(ctx, bc.Mint.String()); err == nil && record.Status == models.MigrationCompleted {
			continue
		}
		if _, err := m.Migrate(ctx, bc.Mint); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", bc.Mint, err))
			continue
		}
		migrated++
	}
	return migrated, errors.Join(errs...)
}

// Handle returns the venue handle of a migrated curve.
func (m *Migrator) Handle(mint solana.PublicKey) (venue.Handle, bool) {
	return m.handle(mint)
}

func (m *Migrator) handle(mint solana.PublicKey) (venue.Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[mint]
	return h, ok
}

// lookup finds the handle of a migrated curve in memory or in the store.
func (m *Migrator) lookup(ctx context.Context, mint solana.PublicKey) (venue.Handle, error) {
	if h, ok := m.handle(mint); ok {
		return h, nil
	}
	record, err := m.store.GetMigration(ctx, mint.String())
	if errors.Is(err, storage.ErrNotFound) || (err == nil && record.Status != models.MigrationCompleted) {
		return venue.Handle{}, fmt.Errorf("%w: %s", ErrNotMigrated, mint)
	}
	if err != nil {
		return venue.Handle{}, err
	}
	h, err := handleFromRecord(record)
	if err != nil {
		return venue.Handle{}, err
	}
	m.remember(mint, h)
	return h, nil
}

func (m *Migrator) remember(mint solana.PublicKey, h venue.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handles[mint] = h
}

func (m *Migrator) publish(event events.Event) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(event); err != nil {
		m.logger.Warn("Failed to publish migration event",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}

func handleFromRecord(r *models.Migration) (venue.Handle, error) {
	mint, err := solana.PublicKeyFromBase58(r.Mint)
	if err != nil {
		return venue.Handle{}, fmt.Errorf("invalid mint in migration record: %w", err)
	}
	pool, err := solana.PublicKeyFromBase58(r.Pool)
	if err != nil {
		return venue.Handle{}, fmt.Errorf("invalid pool in migration record: %w", err)
	}
	lpMint, err := solana.PublicKeyFromBase58(r.LPMint)
	if err != nil {
		return venue.Handle{}, fmt.Errorf("invalid lp mint in migration record: %w", err)
	}
	return venue.Handle{Pool: pool, Mint: mint, LPMint: lpMint, LPAmount: r.LPAmount}, nil
}
