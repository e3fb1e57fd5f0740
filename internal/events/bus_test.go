package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBus_PublishDeliversInOrder(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 16)

	var (
		mu       sync.Mutex
		received []uint64
	)
	bus.Subscribe(TradeExecuted, On(func(_ context.Context, e TradeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e.CurveVersion)
		return nil
	}))

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, bus.Publish(TradeEvent{BaseEvent: NewBase(TradeExecuted), CurveVersion: i}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))

	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, received)
	assert.Equal(t, uint64(5), bus.Stats().Published)

	err := bus.Publish(TradeEvent{BaseEvent: NewBase(TradeExecuted)})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestBus_PublishSyncJoinsErrors(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 1)
	defer bus.Shutdown(context.Background())

	boom := errors.New("boom")
	bus.SubscribeFunc(MigrationRequested, func(context.Context, Event) error { return boom })
	sub := bus.SubscribeFunc(MigrationRequested, func(context.Context, Event) error { return nil })

	err := bus.PublishSync(context.Background(), MigrationRequestedEvent{BaseEvent: NewBase(MigrationRequested)})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, bus.Stats().HandlersPerType[MigrationRequested])

	sub.Unsubscribe()
	assert.Equal(t, 1, bus.Stats().HandlersPerType[MigrationRequested])
}

func TestOn_RejectsForeignEvent(t *testing.T) {
	h := On(func(context.Context, TradeEvent) error { return nil })
	err := h.Handle(context.Background(), CreateEvent{BaseEvent: NewBase(CurveCreated)})
	assert.Error(t, err)
}

func TestTradeEventCodec(t *testing.T) {
	event := TradeEvent{
		BaseEvent:            BaseEvent{EventType: TradeExecuted, EventTime: time.Unix(1_700_000_000, 0).UTC()},
		Mint:                 solana.NewWallet().PublicKey(),
		User:                 solana.NewWallet().PublicKey(),
		SolAmount:            1_000_000_000,
		TokenAmount:          34_612_903_225_806,
		Fee:                  10_000_000,
		IsBuy:                true,
		VirtualSolReserves:   31_000_000_000,
		VirtualTokenReserves: 1_038_387_096_774_194,
		RealSolReserves:      1_000_000_000,
		RealTokenReserves:    758_487_096_774_194,
	}

	data, err := EncodeTradeEvent(event)
	require.NoError(t, err)
	assert.Equal(t, TradeEventDiscriminator[:], data[:8])

	decoded, err := DecodeTradeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)

	_, err = DecodeTradeEvent([]byte{1, 2, 3})
	assert.Error(t, err)

	data[0] ^= 0xff
	_, err = DecodeTradeEvent(data)
	assert.Error(t, err)
}
