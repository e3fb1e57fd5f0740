// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "curve_launchpad"

// Collector владеет метриками лаунчпада и мигратора
type Collector struct {
	curvesCreated    prometheus.Counter
	curvesCompleted  prometheus.Counter
	trades           *prometheus.CounterVec
	rejections       *prometheus.CounterVec
	settlementVolume *prometheus.CounterVec
	fees             *prometheus.CounterVec
	tradeSize        *prometheus.HistogramVec
	migrations       *prometheus.CounterVec
	migrationRetries prometheus.Counter
	feesClaimed      prometheus.Counter
}

// New регистрирует метрики в reg. nil означает регистр по умолчанию.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		curvesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "curves_created_total",
			Help:      "Total number of bonding curves launched",
		}),
		curvesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "curves_completed_total",
			Help:      "Total number of bonding curves that sold out",
		}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Total number of committed trades",
		}, []string{"direction"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trade_rejections_total",
			Help:      "Total number of rejected trades",
		}, []string{"direction", "state", "reason"}),
		settlementVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_volume_lamports_total",
			Help:      "Settlement asset moved through the curves, fee excluded",
		}, []string{"direction"}),
		fees: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fees_lamports_total",
			Help:      "Protocol fees charged on trades",
		}, []string{"direction"}),
		tradeSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trade_size_sol",
			Help:      "Settlement leg of committed trades in SOL",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"direction"}),
		migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migrations_total",
			Help:      "Curve migrations by outcome",
		}, []string{"status"}),
		migrationRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migration_retries_total",
			Help:      "Retried venue hand-off attempts",
		}),
		feesClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "venue_fees_claimed_lamports_total",
			Help:      "Post-migration fees claimed through the venue",
		}),
	}

	reg.MustRegister(
		c.curvesCreated,
		c.curvesCompleted,
		c.trades,
		c.rejections,
		c.settlementVolume,
		c.fees,
		c.tradeSize,
		c.migrations,
		c.migrationRetries,
		c.feesClaimed,
	)
	return c
}

func (c *Collector) CurveCreated() {
	if c == nil {
		return
	}
	c.curvesCreated.Inc()
}

func (c *Collector) CurveCompleted() {
	if c == nil {
		return
	}
	c.curvesCompleted.Inc()
}

// TradeExecuted записывает совершенную сделку
func (c *Collector) TradeExecuted(direction string, settlement, tokens, fee uint64) {
	if c == nil {
		return
	}
	c.trades.WithLabelValues(direction).Inc()
	c.settlementVolume.WithLabelValues(direction).Add(float64(settlement))
	c.fees.WithLabelValues(direction).Add(float64(fee))
	c.tradeSize.WithLabelValues(direction).Observe(float64(settlement) / 1e9)
}

func (c *Collector) TradeRejected(direction, state, reason string) {
	if c == nil {
		return
	}
	c.rejections.WithLabelValues(direction, state, reason).Inc()
}

func (c *Collector) MigrationSucceeded() {
	if c == nil {
		return
	}
	c.migrations.WithLabelValues("completed").Inc()
}

func (c *Collector) MigrationFailed() {
	if c == nil {
		return
	}
	c.migrations.WithLabelValues("failed").Inc()
}

func (c *Collector) MigrationRetried() {
	if c == nil {
		return
	}
	c.migrationRetries.Inc()
}

func (c *Collector) FeesClaimed(amount uint64) {
	if c == nil {
		return
	}
	c.feesClaimed.Add(float64(amount))
}
