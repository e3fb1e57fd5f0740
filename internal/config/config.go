// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/logger"
)

const EnvPrefix = "CURVE_LAUNCHPAD"

type Config struct {
	ProgramID      string `mapstructure:"program_id"`
	VenueProgramID string `mapstructure:"venue_program_id"`
	Authority      string `mapstructure:"authority"`
	FeeRecipient   string `mapstructure:"fee_recipient"`

	FeeBasisPoints              uint32 `mapstructure:"fee_basis_points"`
	InitialVirtualSolReserves   uint64 `mapstructure:"initial_virtual_sol_reserves"`
	InitialVirtualTokenReserves uint64 `mapstructure:"initial_virtual_token_reserves"`
	InitialRealTokenReserves    uint64 `mapstructure:"initial_real_token_reserves"`
	InitialTokenSupply          uint64 `mapstructure:"initial_token_supply"`

	// PostgresURL пустой: используется SQLitePath
	PostgresURL string `mapstructure:"postgres_url"`
	SQLitePath  string `mapstructure:"sqlite_path"`

	MetricsAddr         string        `mapstructure:"metrics_addr"`
	EventBufferSize     int           `mapstructure:"event_buffer_size"`
	Workers             int           `mapstructure:"workers"`
	VenueFeeBasisPoints uint32        `mapstructure:"venue_fee_basis_points"`
	SweepInterval       time.Duration `mapstructure:"sweep_interval"`

	Migration MigrationConfig `mapstructure:"migration"`
	Log       logger.Config   `mapstructure:"log"`
}

type MigrationConfig struct {
	MaxTries        uint          `mapstructure:"max_tries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

const (
	DefaultProgramID           = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	DefaultVenueProgramID      = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	DefaultSQLitePath          = "launchpad.db"
	DefaultEventBufferSize     = 1024
	DefaultWorkers             = 4
	DefaultVenueFeeBasisPoints = 25
	DefaultSweepInterval       = 30 * time.Second
)

func defaults() map[string]interface{} {
	global := curve.DefaultGlobalConfig()
	log := logger.DefaultConfig()
	return map[string]interface{}{
		"program_id":                     DefaultProgramID,
		"venue_program_id":               DefaultVenueProgramID,
		"authority":                      "",
		"fee_recipient":                  "",
		"fee_basis_points":               global.FeeBasisPoints,
		"initial_virtual_sol_reserves":   global.InitialVirtualSolReserves,
		"initial_virtual_token_reserves": global.InitialVirtualTokenReserves,
		"initial_real_token_reserves":    global.InitialRealTokenReserves,
		"initial_token_supply":           global.InitialTokenSupply,
		"postgres_url":                   "",
		"sqlite_path":                    DefaultSQLitePath,
		"metrics_addr":                   "",
		"event_buffer_size":              DefaultEventBufferSize,
		"workers":                        DefaultWorkers,
		"venue_fee_basis_points":         DefaultVenueFeeBasisPoints,
		"sweep_interval":                 DefaultSweepInterval,
		"migration.max_tries":            5,
		"migration.initial_interval":     200 * time.Millisecond,
		"migration.max_interval":         5 * time.Second,
		"log.file":                       log.LogFile,
		"log.max_size":                   log.MaxSize,
		"log.max_age":                    log.MaxAge,
		"log.max_backups":                log.MaxBackups,
		"log.compress":                   log.Compress,
		"log.development":                log.Development,
		"log.pretty":                     log.Pretty,
	}
}

// LoadConfig читает файл конфигурации (yaml, json или toml). Пустой path
// означает только значения по умолчанию и переменные окружения
// CURVE_LAUNCHPAD_*.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if _, err := solana.PublicKeyFromBase58(cfg.ProgramID); err != nil {
		return fmt.Errorf("invalid program_id: %w", err)
	}
	if _, err := solana.PublicKeyFromBase58(cfg.VenueProgramID); err != nil {
		return fmt.Errorf("invalid venue_program_id: %w", err)
	}
	if cfg.FeeRecipient == "" {
		return errors.New("missing fee_recipient in configuration")
	}
	if _, err := cfg.GlobalConfig(); err != nil {
		return err
	}
	if cfg.PostgresURL != "" {
		if err := validateURL(cfg.PostgresURL, "postgres"); err != nil {
			return fmt.Errorf("invalid postgres_url: %w", err)
		}
	} else if cfg.SQLitePath == "" {
		return errors.New("either postgres_url or sqlite_path is required")
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	return nil
}

func validateNumericParams(cfg *Config) error {
	if cfg.EventBufferSize <= 0 {
		return errors.New("invalid event_buffer_size")
	}
	if cfg.Workers <= 0 {
		return errors.New("invalid workers count")
	}
	if cfg.VenueFeeBasisPoints > curve.MaxFeeBasisPoints {
		return errors.New("invalid venue_fee_basis_points")
	}
	if cfg.SweepInterval < 0 {
		return errors.New("invalid sweep_interval")
	}
	if cfg.Migration.MaxTries == 0 {
		return errors.New("invalid migration.max_tries")
	}
	if cfg.Migration.InitialInterval <= 0 || cfg.Migration.MaxInterval < cfg.Migration.InitialInterval {
		return errors.New("invalid migration backoff intervals")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

// ProgramPublicKey возвращает program_id как ключ.
func (c *Config) ProgramPublicKey() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.ProgramID)
}

// VenueProgramPublicKey возвращает venue_program_id как ключ.
func (c *Config) VenueProgramPublicKey() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.VenueProgramID)
}

// GlobalConfig собирает снимок глобальных параметров кривых.
func (c *Config) GlobalConfig() (curve.GlobalConfig, error) {
	feeRecipient, err := solana.PublicKeyFromBase58(c.FeeRecipient)
	if err != nil {
		return curve.GlobalConfig{}, fmt.Errorf("invalid fee_recipient: %w", err)
	}
	var authority solana.PublicKey
	if c.Authority != "" {
		if authority, err = solana.PublicKeyFromBase58(c.Authority); err != nil {
			return curve.GlobalConfig{}, fmt.Errorf("invalid authority: %w", err)
		}
	}

	g := curve.GlobalConfig{
		Version:                     1,
		Initialized:                 true,
		Authority:                   authority,
		FeeRecipient:                feeRecipient,
		FeeBasisPoints:              c.FeeBasisPoints,
		InitialVirtualSolReserves:   c.InitialVirtualSolReserves,
		InitialVirtualTokenReserves: c.InitialVirtualTokenReserves,
		InitialRealTokenReserves:    c.InitialRealTokenReserves,
		InitialTokenSupply:          c.InitialTokenSupply,
	}
	if err := g.Validate(); err != nil {
		return curve.GlobalConfig{}, err
	}
	return g, nil
}
