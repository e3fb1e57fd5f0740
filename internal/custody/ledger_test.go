package custody

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func TestLedger_TransferSettlement(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(zap.NewNop())
	alice, bob := newKey(), newKey()

	require.NoError(t, l.Deposit(alice, 1_000))
	require.NoError(t, l.TransferSettlement(ctx, Transfer{From: alice, To: bob, Amount: 400}))

	a, _ := l.SettlementBalance(ctx, alice)
	b, _ := l.SettlementBalance(ctx, bob)
	assert.Equal(t, uint64(600), a)
	assert.Equal(t, uint64(400), b)

	err := l.TransferSettlement(ctx, Transfer{From: alice, To: bob, Amount: 601})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	a, _ = l.SettlementBalance(ctx, alice)
	assert.Equal(t, uint64(600), a, "failed transfer must not move funds")
}

func TestLedger_BoundAccountNeedsAuthority(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(zap.NewNop())
	vault, user := newKey(), newKey()

	auth, err := l.Bind(vault)
	require.NoError(t, err)
	assert.Equal(t, vault, auth.Account())
	require.NoError(t, l.Deposit(vault, 500))

	// Без capability вывод запрещен
	err = l.TransferSettlement(ctx, Transfer{From: vault, To: user, Amount: 100})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Чужая capability тоже не подходит
	other, err := l.Bind(newKey())
	require.NoError(t, err)
	err = l.TransferSettlement(ctx, Transfer{From: vault, To: user, Amount: 100, Authority: other})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Capability другого леджера не принимается
	foreign, err := NewLedger(zap.NewNop()).Bind(vault)
	require.NoError(t, err)
	err = l.TransferSettlement(ctx, Transfer{From: vault, To: user, Amount: 100, Authority: foreign})
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, l.TransferSettlement(ctx, Transfer{From: vault, To: user, Amount: 100, Authority: auth}))

	_, err = l.Bind(vault)
	assert.ErrorIs(t, err, ErrAlreadyBound)
}

func TestLedger_TokensMintTransferBurn(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(zap.NewNop())
	mint, mintAuthority, vault, user := newKey(), newKey(), newKey(), newKey()

	err := l.MintOrBurn(ctx, mint, vault, 1_000, Mint, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	minter, err := l.Bind(mintAuthority)
	require.NoError(t, err)
	vaultAuth, err := l.Bind(vault)
	require.NoError(t, err)

	require.NoError(t, l.MintOrBurn(ctx, mint, vault, 1_000, Mint, minter))
	require.NoError(t, l.TransferToken(ctx, mint, Transfer{From: vault, To: user, Amount: 300, Authority: vaultAuth}))

	v, _ := l.TokenBalance(ctx, mint, vault)
	u, _ := l.TokenBalance(ctx, mint, user)
	assert.Equal(t, uint64(700), v)
	assert.Equal(t, uint64(300), u)

	require.NoError(t, l.MintOrBurn(ctx, mint, user, 100, Burn, nil))
	u, _ = l.TokenBalance(ctx, mint, user)
	assert.Equal(t, uint64(200), u)

	err = l.MintOrBurn(ctx, mint, user, 201, Burn, nil)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}
