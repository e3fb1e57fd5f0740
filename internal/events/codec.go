// internal/events/codec.go
package events

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// TradeEventDiscriminator prefixes every encoded trade record, the way
// Anchor tags emitted events: sha256("event:TradeEvent")[:8].
var TradeEventDiscriminator = eventDiscriminator("TradeEvent")

func eventDiscriminator(name string) [8]byte {
	var d [8]byte
	sum := sha256.Sum256([]byte("event:" + name))
	copy(d[:], sum[:8])
	return d
}

// tradeEventLayout is the borsh layout of a trade record.
type tradeEventLayout struct {
	Mint                 solana.PublicKey
	SolAmount            uint64
	TokenAmount          uint64
	IsBuy                bool
	User                 solana.PublicKey
	Timestamp            int64
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64
	Fee                  uint64
}

// EncodeTradeEvent serializes a trade record: discriminator followed by the
// borsh-encoded fields.
func EncodeTradeEvent(e TradeEvent) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(TradeEventDiscriminator[:])
	err := bin.NewBorshEncoder(buf).Encode(tradeEventLayout{
		Mint:                 e.Mint,
		SolAmount:            e.SolAmount,
		TokenAmount:          e.TokenAmount,
		IsBuy:                e.IsBuy,
		User:                 e.User,
		Timestamp:            e.EventTime.Unix(),
		VirtualSolReserves:   e.VirtualSolReserves,
		VirtualTokenReserves: e.VirtualTokenReserves,
		RealSolReserves:      e.RealSolReserves,
		RealTokenReserves:    e.RealTokenReserves,
		Fee:                  e.Fee,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode trade event: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeTradeEvent parses bytes produced by EncodeTradeEvent. The ID and
// curve version are not part of the wire layout.
func DecodeTradeEvent(data []byte) (TradeEvent, error) {
	if len(data) < len(TradeEventDiscriminator) {
		return TradeEvent{}, fmt.Errorf("trade event data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], TradeEventDiscriminator[:]) {
		return TradeEvent{}, fmt.Errorf("unexpected discriminator %x", data[:8])
	}

	var layout tradeEventLayout
	if err := bin.NewBorshDecoder(data[8:]).Decode(&layout); err != nil {
		return TradeEvent{}, fmt.Errorf("failed to decode trade event: %w", err)
	}

	return TradeEvent{
		BaseEvent:            BaseEvent{EventType: TradeExecuted, EventTime: time.Unix(layout.Timestamp, 0).UTC()},
		Mint:                 layout.Mint,
		User:                 layout.User,
		SolAmount:            layout.SolAmount,
		TokenAmount:          layout.TokenAmount,
		Fee:                  layout.Fee,
		IsBuy:                layout.IsBuy,
		VirtualSolReserves:   layout.VirtualSolReserves,
		VirtualTokenReserves: layout.VirtualTokenReserves,
		RealSolReserves:      layout.RealSolReserves,
		RealTokenReserves:    layout.RealTokenReserves,
	}, nil
}
