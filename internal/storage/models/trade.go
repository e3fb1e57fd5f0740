// internal/storage/models/trade.go
package models

import "time"

// Trade is a committed trade record. Payload holds the borsh encoding of the
// emitted trade event.
type Trade struct {
	BaseModel
	TradeID              string    `gorm:"uniqueIndex;not null;type:varchar(36)"`
	Mint                 string    `gorm:"index;not null;type:varchar(44)"`
	User                 string    `gorm:"index;not null;type:varchar(44)"`
	Direction            string    `gorm:"not null;type:varchar(4)"`
	SolAmount            uint64    `gorm:"not null"`
	TokenAmount          uint64    `gorm:"not null"`
	Fee                  uint64    `gorm:"not null"`
	VirtualSolReserves   uint64    `gorm:"not null"`
	VirtualTokenReserves uint64    `gorm:"not null"`
	RealSolReserves      uint64    `gorm:"not null"`
	RealTokenReserves    uint64    `gorm:"not null"`
	CurveVersion         uint64    `gorm:"index;not null"`
	Payload              []byte
	ExecutedAt           time.Time `gorm:"index;not null"`
}
