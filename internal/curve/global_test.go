package curve

import (
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGlobal() GlobalConfig {
	cfg := DefaultGlobalConfig()
	cfg.FeeRecipient = solana.NewWallet().PublicKey()
	return cfg
}

func TestGlobalConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GlobalConfig)
		wantErr error
	}{
		{"default is valid", func(*GlobalConfig) {}, nil},
		{"fee too high", func(g *GlobalConfig) { g.FeeBasisPoints = 10_001 }, ErrInvalidFeeBasisPoints},
		{"missing fee recipient", func(g *GlobalConfig) { g.FeeRecipient = solana.PublicKey{} }, ErrInvalidConfig},
		{"zero virtual sol", func(g *GlobalConfig) { g.InitialVirtualSolReserves = 0 }, ErrInvalidConfig},
		{"zero real tokens", func(g *GlobalConfig) { g.InitialRealTokenReserves = 0 }, ErrInvalidConfig},
		{"virtual below real", func(g *GlobalConfig) { g.InitialVirtualTokenReserves = g.InitialRealTokenReserves - 1 }, ErrInvalidConfig},
		{"supply below real", func(g *GlobalConfig) { g.InitialTokenSupply = g.InitialRealTokenReserves - 1 }, ErrInvalidConfig},
		{"virtual sol above signed range", func(g *GlobalConfig) { g.InitialVirtualSolReserves = MaxStoredAmount + 1 }, ErrInvalidConfig},
		{"supply above signed range", func(g *GlobalConfig) { g.InitialTokenSupply = math.MaxUint64 }, ErrInvalidConfig},
		{"largest storable supply", func(g *GlobalConfig) { g.InitialTokenSupply = MaxStoredAmount }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testGlobal()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGlobalConfig_NewCurve(t *testing.T) {
	cfg := testGlobal()
	mint := solana.NewWallet().PublicKey()
	addr, err := DeriveBondingCurveAddress(solana.SystemProgramID, mint)
	require.NoError(t, err)

	bc, err := cfg.NewCurve(mint, addr)
	require.NoError(t, err)

	assert.Equal(t, mint, bc.Mint)
	assert.Equal(t, addr, bc.Address)
	assert.Equal(t, cfg.InitialVirtualSolReserves, bc.VirtualSolReserves)
	assert.Equal(t, cfg.InitialVirtualTokenReserves, bc.VirtualTokenReserves)
	assert.Equal(t, uint64(0), bc.RealSolReserves)
	assert.Equal(t, cfg.InitialRealTokenReserves, bc.RealTokenReserves)
	assert.Equal(t, cfg.InitialTokenSupply, bc.TokenTotalSupply)
	assert.False(t, bc.Complete)
	require.NoError(t, bc.CheckInvariants())
}

func TestGlobalConfig_NewCurveNotInitialized(t *testing.T) {
	cfg := testGlobal()
	cfg.Initialized = false

	_, err := cfg.NewCurve(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestBondingCurve_WithReservesCompletes(t *testing.T) {
	bc, err := testGlobal().NewCurve(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.NoError(t, err)

	quote, err := NewAMM(bc.Reserves()).QuoteBuyExactTokens(bc.RealTokenReserves)
	require.NoError(t, err)

	next := bc.WithReserves(quote.Reserves)
	assert.True(t, next.Complete)
	assert.True(t, next.ReachedCompletion())
	assert.False(t, bc.Complete, "source snapshot must be untouched")
	require.NoError(t, next.CheckInvariants())

	assert.True(t, next.Progress().Equal(decimal.NewFromInt(100)))
}

func TestBondingCurve_CheckInvariants(t *testing.T) {
	bc, err := testGlobal().NewCurve(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.NoError(t, err)

	broken := bc
	broken.RealSolReserves = broken.VirtualSolReserves + 1
	assert.Error(t, broken.CheckInvariants())

	broken = bc
	broken.RealTokenReserves = broken.VirtualTokenReserves + 1
	assert.Error(t, broken.CheckInvariants())

	broken = bc
	broken.RealTokenReserves = 0
	assert.Error(t, broken.CheckInvariants())
}

func TestBondingCurve_Price(t *testing.T) {
	bc, err := testGlobal().NewCurve(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.NoError(t, err)

	// 30 SOL / 1.073B tokens
	expected := decimal.NewFromInt(30).DivRound(decimal.NewFromInt(1_073_000_000), 18)
	assert.True(t, bc.SpotPrice().Equal(expected), "got %s", bc.SpotPrice())
	assert.True(t, bc.Progress().IsZero())
	assert.True(t, bc.MarketCap().GreaterThan(decimal.NewFromInt(27)))
	assert.True(t, bc.MarketCap().LessThan(decimal.NewFromInt(28)))
}

func TestSlippageConfig(t *testing.T) {
	bps := SlippageConfig{Type: SlippageBps, Value: 100}
	assert.Equal(t, uint64(990), bps.MinAmountOut(1_000))
	assert.Equal(t, uint64(1_010), bps.MaxAmountIn(1_000))

	fixed := SlippageConfig{Type: SlippageFixed, Value: 42}
	assert.Equal(t, uint64(42), fixed.MinAmountOut(1_000))
	assert.Equal(t, uint64(42), fixed.MaxAmountIn(1_000))

	none := SlippageConfig{Type: SlippageNone}
	assert.Equal(t, uint64(0), none.MinAmountOut(1_000))
	assert.Equal(t, ^uint64(0), none.MaxAmountIn(1_000))
}
