// internal/launchpad/journal.go
package launchpad

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/curve-launchpad/internal/custody"
)

type asset int

const (
	settlementAsset asset = iota
	tokenAsset
)

func (a asset) String() string {
	if a == tokenAsset {
		return "token"
	}
	return "settlement"
}

// leg is one transfer of a trade.
type leg struct {
	asset  asset
	from   solana.PublicKey
	to     solana.PublicKey
	amount uint64
}

// journal applies legs and remembers the ones that went through.
type journal struct {
	custody      Custody
	mint         solana.PublicKey
	curveAccount solana.PublicKey
	auth         *custody.Authority
	applied      []leg
}

func (j *journal) apply(ctx context.Context, legs []leg) error {
	for _, l := range legs {
		if l.amount == 0 {
			continue
		}
		if err := j.transfer(ctx, l); err != nil {
			return fmt.Errorf("%s transfer of %d: %w", l.asset, l.amount, err)
		}
		j.applied = append(j.applied, l)
	}
	return nil
}

// revert undoes applied legs in reverse order.
func (j *journal) revert(ctx context.Context) error {
	var errs []error
	for i := len(j.applied) - 1; i >= 0; i-- {
		l := j.applied[i]
		back := leg{asset: l.asset, from: l.to, to: l.from, amount: l.amount}
		if err := j.transfer(ctx, back); err != nil {
			errs = append(errs, fmt.Errorf("revert %s transfer of %d: %w", l.asset, l.amount, err))
		}
	}
	j.applied = nil
	return errors.Join(errs...)
}

func (j *journal) transfer(ctx context.Context, l leg) error {
	t := custody.Transfer{From: l.from, To: l.to, Amount: l.amount}
	if l.from == j.curveAccount {
		t.Authority = j.auth
	}
	if l.asset == tokenAsset {
		return j.custody.TransferToken(ctx, j.mint, t)
	}
	return j.custody.TransferSettlement(ctx, t)
}
