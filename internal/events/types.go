// internal/events/types.go
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// EventType represents the type of event.
type EventType string

const (
	// Curve lifecycle events
	CurveCreated   EventType = "curve.created"
	CurveCompleted EventType = "curve.completed"

	// Trade events
	TradeExecuted EventType = "trade.executed"
	TradeRejected EventType = "trade.rejected"

	// Migration events
	MigrationRequested EventType = "migration.requested"
	MigrationCompleted EventType = "migration.completed"
	MigrationFailed    EventType = "migration.failed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// NewBase stamps an event of type t with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now().UTC()}
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// CreateEvent is emitted when a curve is launched.
type CreateEvent struct {
	BaseEvent
	Name         string
	Symbol       string
	URI          string
	Mint         solana.PublicKey
	BondingCurve solana.PublicKey
	Creator      solana.PublicKey
}

// TradeEvent is the trade record of a committed buy or sell. Reserve fields
// are the curve state after the trade.
type TradeEvent struct {
	BaseEvent
	ID                   string
	Mint                 solana.PublicKey
	User                 solana.PublicKey
	SolAmount            uint64
	TokenAmount          uint64
	Fee                  uint64
	IsBuy                bool
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64
	CurveVersion         uint64
}

// Direction returns "buy" or "sell".
func (e TradeEvent) Direction() string {
	if e.IsBuy {
		return "buy"
	}
	return "sell"
}

// TradeRejectedEvent is emitted when a trade is rejected before commit.
type TradeRejectedEvent struct {
	BaseEvent
	Mint      solana.PublicKey
	User      solana.PublicKey
	Direction string
	State     string
	Reason    error
}

// CompleteEvent is emitted by the trade that exhausts the real token reserve.
type CompleteEvent struct {
	BaseEvent
	Mint         solana.PublicKey
	BondingCurve solana.PublicKey
	User         solana.PublicKey
}

// MigrationRequestedEvent hands a completed curve over to the migrator.
type MigrationRequestedEvent struct {
	BaseEvent
	Mint              solana.PublicKey
	BondingCurve      solana.PublicKey
	RealSolReserves   uint64
	RealTokenReserves uint64
	CurveVersion      uint64
}

// MigrationCompletedEvent is emitted once the liquidity venue is seeded and
// its receipt locked.
type MigrationCompletedEvent struct {
	BaseEvent
	Mint        solana.PublicKey
	Pool        solana.PublicKey
	LPMint      solana.PublicKey
	LPAmount    uint64
	SolAmount   uint64
	TokenAmount uint64
}

// MigrationFailedEvent is emitted when the venue hand-off gives up.
type MigrationFailedEvent struct {
	BaseEvent
	Mint  solana.PublicKey
	Error error
}
