// internal/launchpad/migration.go
package launchpad

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/events"
)

// requestMigration runs once, for the trade that completed the curve. The
// completion flag is already committed with the reserves; a lost request is
// picked up by the migrator's sweep.
func (lp *Launchpad) requestMigration(t *trade, after curve.BondingCurve) error {
	lp.metrics.CurveCompleted()
	lp.logger.Info("Bonding curve complete",
		zap.String("mint", after.Mint.String()),
		zap.String("bonding_curve", after.Address.String()),
		zap.Uint64("real_sol_reserves", after.RealSolReserves))

	_ = lp.publish(events.CompleteEvent{
		BaseEvent:    events.BaseEvent{EventType: events.CurveCompleted, EventTime: after.UpdatedAt},
		Mint:         after.Mint,
		BondingCurve: after.Address,
		User:         t.user,
	})

	err := lp.publish(events.MigrationRequestedEvent{
		BaseEvent:         events.BaseEvent{EventType: events.MigrationRequested, EventTime: after.UpdatedAt},
		Mint:              after.Mint,
		BondingCurve:      after.Address,
		RealSolReserves:   after.RealSolReserves,
		RealTokenReserves: after.RealTokenReserves,
		CurveVersion:      after.Version,
	})
	if err != nil {
		return fmt.Errorf("migration request for %s not delivered: %w", after.Mint, err)
	}
	return nil
}
