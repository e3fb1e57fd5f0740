// internal/storage/models/base.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel заменяет gorm.Model для большего контроля
type BaseModel struct {
	ID        uint           `gorm:"primarykey"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Статусы миграции кривой
const (
	MigrationPending   = "pending"
	MigrationCompleted = "completed"
	MigrationFailed    = "failed"
)
