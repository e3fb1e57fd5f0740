package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.CurveCreated()
	c.TradeExecuted("buy", 1_000_000_000, 34_612_903_225_806, 10_000_000)
	c.TradeExecuted("buy", 2_000_000_000, 1, 20_000_000)
	c.TradeExecuted("sell", 500_000_000, 1, 5_000_000)
	c.TradeRejected("sell", "validating", "insufficient_balance")
	c.CurveCompleted()
	c.MigrationRetried()
	c.MigrationSucceeded()
	c.FeesClaimed(42)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.curvesCreated))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.trades.WithLabelValues("buy")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.trades.WithLabelValues("sell")))
	assert.Equal(t, float64(3_000_000_000), testutil.ToFloat64(c.settlementVolume.WithLabelValues("buy")))
	assert.Equal(t, float64(30_000_000), testutil.ToFloat64(c.fees.WithLabelValues("buy")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.rejections.WithLabelValues("sell", "validating", "insufficient_balance")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.migrations.WithLabelValues("completed")))
	assert.Equal(t, float64(42), testutil.ToFloat64(c.feesClaimed))
	assert.Equal(t, 2, testutil.CollectAndCount(c.tradeSize))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.CurveCreated()
		c.TradeExecuted("buy", 1, 1, 1)
		c.TradeRejected("buy", "pricing", "overflow")
		c.MigrationFailed()
		c.FeesClaimed(1)
	})
}
