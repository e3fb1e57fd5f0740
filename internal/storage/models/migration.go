// internal/storage/models/migration.go
package models

import "time"

// Migration tracks the hand-off of a completed curve to its liquidity venue.
type Migration struct {
	BaseModel
	Mint         string `gorm:"uniqueIndex;not null;type:varchar(44)"`
	BondingCurve string `gorm:"not null;type:varchar(44)"`
	Pool         string `gorm:"type:varchar(44)"`
	LPMint       string `gorm:"type:varchar(44)"`
	LPAmount     uint64
	SolAmount    uint64
	TokenAmount  uint64
	Status       string `gorm:"index;not null;type:varchar(20)"`
	Attempts     int    `gorm:"default:0"`
	ErrorMessage string `gorm:"type:text"`
	FeesClaimed  uint64
	CompletedAt  *time.Time
}
