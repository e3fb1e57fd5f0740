// internal/storage/postgres/curves.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"gorm.io/gorm"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/models"
)

// CurveStore keeps bonding curves in the database. Writes are
// compare-and-swap on the version column.
type CurveStore struct {
	db *gorm.DB
}

// Curves returns the curve store sharing this database.
func (p *Store) Curves() *CurveStore {
	return &CurveStore{db: p.db}
}

func (s *CurveStore) Get(ctx context.Context, mint solana.PublicKey) (curve.BondingCurve, error) {
	var m models.Curve
	err := s.db.WithContext(ctx).Where("mint = ?", mint.String()).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return curve.BondingCurve{}, fmt.Errorf("%w: %s", curve.ErrCurveNotFound, mint)
	}
	if err != nil {
		return curve.BondingCurve{}, err
	}
	return fromModel(m)
}

func (s *CurveStore) Insert(ctx context.Context, bc curve.BondingCurve) error {
	if err := storable(bc); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Curve{}).Where("mint = ?", bc.Mint.String()).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", curve.ErrCurveExists, bc.Mint)
		}
		m := toModel(bc)
		return tx.Create(&m).Error
	})
}

func (s *CurveStore) Put(ctx context.Context, bc curve.BondingCurve, expectedVersion uint64) error {
	if err := storable(bc); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.Curve{}).
		Where("mint = ? AND version = ?", bc.Mint.String(), expectedVersion).
		Updates(map[string]interface{}{
			"virtual_sol_reserves":   bc.VirtualSolReserves,
			"virtual_token_reserves": bc.VirtualTokenReserves,
			"real_sol_reserves":      bc.RealSolReserves,
			"real_token_reserves":    bc.RealTokenReserves,
			"complete":               bc.Complete,
			"version":                bc.Version,
			"updated_at":             bc.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	if _, err := s.Get(ctx, bc.Mint); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s expected version %d", curve.ErrStaleCurve, bc.Mint, expectedVersion)
}

func (s *CurveStore) List(ctx context.Context) ([]curve.BondingCurve, error) {
	var rows []models.Curve
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]curve.BondingCurve, 0, len(rows))
	for _, m := range rows {
		bc, err := fromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, bc)
	}
	return out, nil
}

// storable rejects amounts the signed integer columns cannot hold.
func storable(bc curve.BondingCurve) error {
	for _, v := range []uint64{
		bc.VirtualSolReserves, bc.VirtualTokenReserves,
		bc.RealSolReserves, bc.RealTokenReserves,
		bc.TokenTotalSupply, bc.InitialRealTokens,
	} {
		if v > curve.MaxStoredAmount {
			return fmt.Errorf("%w: curve %s amount %d does not fit the store", curve.ErrOverflow, bc.Mint, v)
		}
	}
	return nil
}

func toModel(bc curve.BondingCurve) models.Curve {
	return models.Curve{
		Mint:                 bc.Mint.String(),
		Address:              bc.Address.String(),
		VirtualSolReserves:   bc.VirtualSolReserves,
		VirtualTokenReserves: bc.VirtualTokenReserves,
		RealSolReserves:      bc.RealSolReserves,
		RealTokenReserves:    bc.RealTokenReserves,
		TokenTotalSupply:     bc.TokenTotalSupply,
		InitialRealTokens:    bc.InitialRealTokens,
		Complete:             bc.Complete,
		Version:              bc.Version,
		CreatedAt:            bc.CreatedAt,
		UpdatedAt:            bc.UpdatedAt,
	}
}

func fromModel(m models.Curve) (curve.BondingCurve, error) {
	mint, err := solana.PublicKeyFromBase58(m.Mint)
	if err != nil {
		return curve.BondingCurve{}, fmt.Errorf("invalid mint %q: %w", m.Mint, err)
	}
	address, err := solana.PublicKeyFromBase58(m.Address)
	if err != nil {
		return curve.BondingCurve{}, fmt.Errorf("invalid curve address %q: %w", m.Address, err)
	}
	return curve.BondingCurve{
		Mint:                 mint,
		Address:              address,
		VirtualSolReserves:   m.VirtualSolReserves,
		VirtualTokenReserves: m.VirtualTokenReserves,
		RealSolReserves:      m.RealSolReserves,
		RealTokenReserves:    m.RealTokenReserves,
		TokenTotalSupply:     m.TokenTotalSupply,
		InitialRealTokens:    m.InitialRealTokens,
		Complete:             m.Complete,
		Version:              m.Version,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}
