package bot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/launchpad"
)

func TestNode_RestartKeepsHistoryButNotUnbackedCurves(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "launchpad.db")
	user := solana.NewWallet().PublicKey()

	_, first := newTestNodeAt(t, dbPath)
	mint := solana.NewWallet().PublicKey()
	_, err := first.Launchpad.Create(ctx, launchpad.CreateParams{Mint: mint, Symbol: "PEPE"})
	require.NoError(t, err)
	require.NoError(t, first.Ledger.Deposit(user, 1_010_000_000))
	_, err = first.Launchpad.Buy(ctx, launchpad.BuyRequest{
		Mint:         mint,
		User:         user,
		FeeRecipient: first.Launchpad.Global().FeeRecipient,
		SettlementIn: 1_000_000_000,
	})
	require.NoError(t, err)
	// Close дописывает очередь шины в базу
	require.NoError(t, first.Close(ctx))

	_, second := newTestNodeAt(t, dbPath)

	// Реестр активов начинается с нуля, поэтому старая кривая не торгуется
	_, err = second.Launchpad.Curve(ctx, mint)
	assert.ErrorIs(t, err, curve.ErrCurveNotFound)
	curves, err := second.Launchpad.Curves(ctx)
	require.NoError(t, err)
	assert.Empty(t, curves)

	require.NoError(t, second.Ledger.Deposit(user, 1_010_000_000))
	_, err = second.Launchpad.Buy(ctx, launchpad.BuyRequest{
		Mint:         mint,
		User:         user,
		FeeRecipient: second.Launchpad.Global().FeeRecipient,
		SettlementIn: 1_000_000_000,
	})
	assert.ErrorIs(t, err, curve.ErrCurveNotFound)
	assert.NotErrorIs(t, err, curve.ErrTransferFailed)
	assert.Zero(t, second.Sweep(ctx))

	trades, err := second.Trades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, mint.String(), trades[0].Mint)
	assert.Equal(t, "buy", trades[0].Direction)

	// Новая кривая полностью обеспечена новым реестром
	fresh, err := second.Launchpad.Create(ctx, launchpad.CreateParams{Mint: solana.NewWallet().PublicKey(), Symbol: "WIF"})
	require.NoError(t, err)
	held, err := second.Ledger.TokenBalance(ctx, fresh.Mint, fresh.Address)
	require.NoError(t, err)
	assert.Equal(t, fresh.TokenTotalSupply, held)

	res, err := second.Launchpad.Buy(ctx, launchpad.BuyRequest{
		Mint:         fresh.Mint,
		User:         user,
		FeeRecipient: second.Launchpad.Global().FeeRecipient,
		SettlementIn: 1_000_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(34_612_903_225_806), res.TokenAmount)

	bc, err := second.Launchpad.Curve(ctx, fresh.Mint)
	require.NoError(t, err)
	sol, err := second.Ledger.SettlementBalance(ctx, bc.Address)
	require.NoError(t, err)
	assert.Equal(t, bc.RealSolReserves, sol)
}
