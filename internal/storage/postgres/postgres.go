// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/rovshanmuradov/curve-launchpad/internal/storage"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/models"
)

// gormLogger реализует интерфейс logger.Interface для GORM
type gormLogger struct {
	zapLogger *zap.Logger
	logLevel  logger.LogLevel
}

// newGormLogger создает новый логгер для GORM
func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger: zapLogger,
		logLevel:  logger.Warn,
	}
}

// LogMode реализация интерфейса logger.Interface
func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

// Trace логирует SQL. Отсутствие записи не считается ошибкой.
func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
		return
	}

	if l.logLevel >= logger.Info {
		l.zapLogger.Debug("trace", fields...)
	}
}

// Store реализует storage.Storage поверх GORM
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ storage.Storage = (*Store)(nil)

// NewStorage подключается к PostgreSQL по DSN.
func NewStorage(dsn string, zapLogger *zap.Logger) (*Store, error) {
	store, err := Open(postgres.Open(dsn), zapLogger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := store.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Настройка пула соединений
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return store, nil
}

// Open создает хранилище поверх любого диалекта GORM.
func Open(dialector gorm.Dialector, zapLogger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(zapLogger.Named("gorm")),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{
		db:     db,
		logger: zapLogger.Named("storage"),
	}, nil
}

// RunMigrations использует GORM AutoMigrate. На PostgreSQL миграция
// выполняется под advisory-блокировкой.
func (p *Store) RunMigrations() error {
	if p.db.Dialector.Name() == "postgres" {
		var lockObtained bool
		err := p.db.Raw("SELECT pg_try_advisory_lock(101)").Scan(&lockObtained).Error
		if err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		if !lockObtained {
			return fmt.Errorf("another migration is in progress")
		}
		defer p.db.Exec("SELECT pg_advisory_unlock(101)")
	}

	err := p.db.AutoMigrate(
		&models.Trade{},
		&models.Migration{},
		&models.Curve{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений.
func (p *Store) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Store) SaveTrade(ctx context.Context, trade *models.Trade) error {
	return p.db.WithContext(ctx).Create(trade).Error
}

func (p *Store) GetTrade(ctx context.Context, tradeID string) (*models.Trade, error) {
	var trade models.Trade
	err := p.db.WithContext(ctx).Where("trade_id = ?", tradeID).First(&trade).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &trade, nil
}

// ListTrades возвращает сделки по mint в порядке версий кривой. Пустой mint
// означает все сделки.
func (p *Store) ListTrades(ctx context.Context, mint string, limit, offset int) ([]*models.Trade, error) {
	var trades []*models.Trade
	q := p.db.WithContext(ctx)
	if mint != "" {
		q = q.Where("mint = ?", mint)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Order("executed_at asc").
		Order("curve_version asc").
		Offset(offset).
		Find(&trades).Error
	return trades, err
}

// SaveMigration вставляет или обновляет запись миграции. Новая запись
// сливается с существующей по mint.
func (p *Store) SaveMigration(ctx context.Context, m *models.Migration) error {
	if m.ID != 0 {
		return p.db.WithContext(ctx).Save(m).Error
	}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "mint"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"bonding_curve", "pool", "lp_mint", "lp_amount", "sol_amount", "token_amount",
			"status", "attempts", "error_message", "fees_claimed", "completed_at", "updated_at",
		}),
	}).Create(m).Error
}

func (p *Store) GetMigration(ctx context.Context, mint string) (*models.Migration, error) {
	var m models.Migration
	err := p.db.WithContext(ctx).Where("mint = ?", mint).First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (p *Store) UpdateMigrationStatus(ctx context.Context, mint, status, errorMsg string) error {
	res := p.db.WithContext(ctx).Model(&models.Migration{}).
		Where("mint = ?", mint).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errorMsg,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("migration %s: %w", mint, storage.ErrNotFound)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}
