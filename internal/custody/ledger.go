// =============================
// File: internal/custody/ledger.go
// =============================
package custody

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized      = errors.New("custody: missing or foreign authority")
	ErrInsufficientFunds = errors.New("custody: insufficient funds")
	ErrAlreadyBound      = errors.New("custody: account already bound")
	ErrBalanceOverflow   = errors.New("custody: balance overflow")
)

// Direction of a supply change.
type Direction int

const (
	Mint Direction = iota
	Burn
)

func (d Direction) String() string {
	if d == Burn {
		return "burn"
	}
	return "mint"
}

// Authority is the capability to move assets out of a bound account. Only
// the ledger that issued it accepts it.
type Authority struct {
	account solana.PublicKey
	issuer  *Ledger
}

// Account returns the account the authority was bound to.
func (a *Authority) Account() solana.PublicKey {
	return a.account
}

// Transfer moves Amount from From to To. Authority is required when From is
// a bound account.
type Transfer struct {
	From      solana.PublicKey
	To        solana.PublicKey
	Amount    uint64
	Authority *Authority
}

// Ledger is an in-process custody of settlement-asset and token balances.
type Ledger struct {
	mu     sync.RWMutex
	sol    map[solana.PublicKey]uint64
	tokens map[solana.PublicKey]map[solana.PublicKey]uint64
	bound  map[solana.PublicKey]*Authority
	logger *zap.Logger
}

// NewLedger creates an empty ledger.
func NewLedger(logger *zap.Logger) *Ledger {
	return &Ledger{
		sol:    make(map[solana.PublicKey]uint64),
		tokens: make(map[solana.PublicKey]map[solana.PublicKey]uint64),
		bound:  make(map[solana.PublicKey]*Authority),
		logger: logger.Named("custody"),
	}
}

// Bind issues the authority for account. An account is bound once.
func (l *Ledger) Bind(account solana.PublicKey) (*Authority, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.bound[account]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyBound, account)
	}
	auth := &Authority{account: account, issuer: l}
	l.bound[account] = auth

	l.logger.Debug("Account bound", zap.String("account", account.String()))
	return auth, nil
}

// Deposit credits settlement asset to account from outside the ledger.
func (l *Ledger) Deposit(account solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.sol[account] + amount
	if next < amount {
		return ErrBalanceOverflow
	}
	l.sol[account] = next
	return nil
}

// TransferSettlement moves settlement asset between accounts.
func (l *Ledger) TransferSettlement(_ context.Context, t Transfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.authorize(t.From, t.Authority); err != nil {
		return err
	}
	if err := move(l.sol, t.From, t.To, t.Amount); err != nil {
		return fmt.Errorf("settlement transfer %s -> %s: %w", t.From, t.To, err)
	}

	l.logger.Debug("Settlement transferred",
		zap.String("from", t.From.String()),
		zap.String("to", t.To.String()),
		zap.Uint64("amount", t.Amount))
	return nil
}

// TransferToken moves tokens of mint between owners.
func (l *Ledger) TransferToken(_ context.Context, mint solana.PublicKey, t Transfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.authorize(t.From, t.Authority); err != nil {
		return err
	}
	if err := move(l.tokenBook(mint), t.From, t.To, t.Amount); err != nil {
		return fmt.Errorf("token transfer %s -> %s: %w", t.From, t.To, err)
	}

	l.logger.Debug("Tokens transferred",
		zap.String("mint", mint.String()),
		zap.String("from", t.From.String()),
		zap.String("to", t.To.String()),
		zap.Uint64("amount", t.Amount))
	return nil
}

// MintOrBurn changes the supply of mint held by account. Minting needs an
// authority issued by this ledger; burning follows the outflow rules.
func (l *Ledger) MintOrBurn(_ context.Context, mint, account solana.PublicKey, amount uint64, dir Direction, auth *Authority) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	book := l.tokenBook(mint)
	switch dir {
	case Mint:
		if auth == nil || auth.issuer != l {
			return fmt.Errorf("%w: mint to %s", ErrUnauthorized, account)
		}
		next := book[account] + amount
		if next < amount {
			return ErrBalanceOverflow
		}
		book[account] = next
	case Burn:
		if err := l.authorize(account, auth); err != nil {
			return err
		}
		if book[account] < amount {
			return fmt.Errorf("burn from %s: %w", account, ErrInsufficientFunds)
		}
		book[account] -= amount
	default:
		return fmt.Errorf("unknown direction %d", dir)
	}

	l.logger.Debug("Supply changed",
		zap.String("mint", mint.String()),
		zap.String("account", account.String()),
		zap.String("direction", dir.String()),
		zap.Uint64("amount", amount))
	return nil
}

// SettlementBalance returns the settlement asset held by account.
func (l *Ledger) SettlementBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sol[account], nil
}

// TokenBalance returns the tokens of mint held by account.
func (l *Ledger) TokenBalance(_ context.Context, mint, account solana.PublicKey) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tokens[mint][account], nil
}

// authorize must be called with l.mu held.
func (l *Ledger) authorize(from solana.PublicKey, auth *Authority) error {
	bound, ok := l.bound[from]
	if !ok {
		return nil
	}
	if auth != bound {
		return fmt.Errorf("%w: outflow from %s", ErrUnauthorized, from)
	}
	return nil
}

// tokenBook must be called with l.mu held.
func (l *Ledger) tokenBook(mint solana.PublicKey) map[solana.PublicKey]uint64 {
	book, ok := l.tokens[mint]
	if !ok {
		book = make(map[solana.PublicKey]uint64)
		l.tokens[mint] = book
	}
	return book
}

func move(book map[solana.PublicKey]uint64, from, to solana.PublicKey, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	if book[from] < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, book[from], amount)
	}
	next := book[to] + amount
	if next < amount {
		return ErrBalanceOverflow
	}
	book[from] -= amount
	book[to] = next
	return nil
}
