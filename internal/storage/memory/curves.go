// internal/storage/memory/curves.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
)

// CurveStore is an in-process curve store. Values are copied in and out, so
// callers never share state with it.
type CurveStore struct {
	mu     sync.RWMutex
	curves map[solana.PublicKey]curve.BondingCurve
}

// NewCurveStore creates an empty store.
func NewCurveStore() *CurveStore {
	return &CurveStore{curves: make(map[solana.PublicKey]curve.BondingCurve)}
}

func (s *CurveStore) Get(_ context.Context, mint solana.PublicKey) (curve.BondingCurve, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bc, ok := s.curves[mint]
	if !ok {
		return curve.BondingCurve{}, fmt.Errorf("%w: %s", curve.ErrCurveNotFound, mint)
	}
	return bc, nil
}

func (s *CurveStore) Insert(_ context.Context, bc curve.BondingCurve) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.curves[bc.Mint]; ok {
		return fmt.Errorf("%w: %s", curve.ErrCurveExists, bc.Mint)
	}
	s.curves[bc.Mint] = bc
	return nil
}

func (s *CurveStore) Put(_ context.Context, bc curve.BondingCurve, expectedVersion uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.curves[bc.Mint]
	if !ok {
		return fmt.Errorf("%w: %s", curve.ErrCurveNotFound, bc.Mint)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: %s at version %d, expected %d",
			curve.ErrStaleCurve, bc.Mint, current.Version, expectedVersion)
	}
	s.curves[bc.Mint] = bc
	return nil
}

// List returns the curves ordered by creation time.
func (s *CurveStore) List(_ context.Context) ([]curve.BondingCurve, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]curve.BondingCurve, 0, len(s.curves))
	for _, bc := range s.curves {
		out = append(out, bc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Mint.String() < out[j].Mint.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
