// internal/storage/models/curve.go
package models

import "time"

// Curve is the persisted reserve model of one bonding curve. Version is the
// compare-and-swap token of every write.
type Curve struct {
	Mint                 string `gorm:"primaryKey;type:varchar(44)"`
	Address              string `gorm:"uniqueIndex;not null;type:varchar(44)"`
	VirtualSolReserves   uint64 `gorm:"not null"`
	VirtualTokenReserves uint64 `gorm:"not null"`
	RealSolReserves      uint64 `gorm:"not null"`
	RealTokenReserves    uint64 `gorm:"not null"`
	TokenTotalSupply     uint64 `gorm:"not null"`
	InitialRealTokens    uint64 `gorm:"not null"`
	Complete             bool   `gorm:"index;not null"`
	Version              uint64 `gorm:"not null"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
