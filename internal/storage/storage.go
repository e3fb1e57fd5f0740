// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/rovshanmuradov/curve-launchpad/internal/storage/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Storage определяет интерфейс для работы с хранилищем
type Storage interface {
	// Сделки
	SaveTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, tradeID string) (*models.Trade, error)
	ListTrades(ctx context.Context, mint string, limit, offset int) ([]*models.Trade, error)

	// Миграции кривых
	SaveMigration(ctx context.Context, m *models.Migration) error
	GetMigration(ctx context.Context, mint string) (*models.Migration, error)
	UpdateMigrationStatus(ctx context.Context, mint, status, errorMsg string) error

	// Схема
	RunMigrations() error
	Close() error
}
