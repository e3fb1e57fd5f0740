// internal/storage/recorder.go
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/events"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/models"
)

// Subscriber is the part of the event bus the recorder needs.
type Subscriber interface {
	Subscribe(eventType events.EventType, handler events.Handler) events.Subscription
}

// Recorder persists trade records published on the bus.
type Recorder struct {
	store  Storage
	logger *zap.Logger
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Storage, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger.Named("recorder")}
}

// Attach subscribes the recorder to trade events.
func (r *Recorder) Attach(bus Subscriber) events.Subscription {
	return bus.Subscribe(events.TradeExecuted, events.On(r.RecordTrade))
}

// RecordTrade stores one trade event.
func (r *Recorder) RecordTrade(ctx context.Context, e events.TradeEvent) error {
	trade, err := TradeFromEvent(e)
	if err != nil {
		return err
	}
	if err := r.store.SaveTrade(ctx, trade); err != nil {
		return fmt.Errorf("failed to save trade %s: %w", e.ID, err)
	}

	r.logger.Debug("Trade recorded",
		zap.String("id", e.ID),
		zap.String("mint", e.Mint.String()),
		zap.Uint64("curve_version", e.CurveVersion))
	return nil
}

// TradeFromEvent converts a trade event into its stored form.
func TradeFromEvent(e events.TradeEvent) (*models.Trade, error) {
	payload, err := events.EncodeTradeEvent(e)
	if err != nil {
		return nil, err
	}
	return &models.Trade{
		TradeID:              e.ID,
		Mint:                 e.Mint.String(),
		User:                 e.User.String(),
		Direction:            e.Direction(),
		SolAmount:            e.SolAmount,
		TokenAmount:          e.TokenAmount,
		Fee:                  e.Fee,
		VirtualSolReserves:   e.VirtualSolReserves,
		VirtualTokenReserves: e.VirtualTokenReserves,
		RealSolReserves:      e.RealSolReserves,
		RealTokenReserves:    e.RealTokenReserves,
		CurveVersion:         e.CurveVersion,
		Payload:              payload,
		ExecutedAt:           e.EventTime,
	}, nil
}
