package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// RewarderMetrics aggregates the Prometheus collectors for rewarder activity.
type RewarderMetrics struct {
	rewardsPaid    prometheus.Counter
	bonusesPaid    prometheus.Counter
	claimsRejected prometheus.Counter
	cadenceSeconds prometheus.Gauge
}

var (
	rewarderOnce     sync.Once
	rewarderRegistry *RewarderMetrics
)

// Rewarder returns the process-wide rewarder metric set, registering the
// collectors on first use.
func Rewarder() *RewarderMetrics {
	rewarderOnce.Do(func() {
		rewarderRegistry = &RewarderMetrics{
			rewardsPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewarder_rewards_paid_total",
				Help: "Count of proportional reward payouts.",
			}),
			bonusesPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewarder_bonuses_paid_total",
				Help: "Count of matured deposit bonus payouts.",
			}),
			claimsRejected: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewarder_claims_rejected_total",
				Help: "Count of explicit bonus claims that found nothing to claim.",
			}),
			cadenceSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "rewarder_cadence_seconds",
				Help: "Configured quiet period required between qualifying deposits.",
			}),
		}
		prometheus.MustRegister(
			rewarderRegistry.rewardsPaid,
			rewarderRegistry.bonusesPaid,
			rewarderRegistry.claimsRejected,
			rewarderRegistry.cadenceSeconds,
		)
	})
	return rewarderRegistry
}

// ObserveRewardPaid records a proportional payout.
func (m *RewarderMetrics) ObserveRewardPaid() {
	if m == nil {
		return
	}
	m.rewardsPaid.Inc()
}

// ObserveBonusPaid records a deposit bonus payout.
func (m *RewarderMetrics) ObserveBonusPaid() {
	if m == nil {
		return
	}
	m.bonusesPaid.Inc()
}

// ObserveClaimRejected records an explicit claim with no open window.
func (m *RewarderMetrics) ObserveClaimRejected() {
	if m == nil {
		return
	}
	m.claimsRejected.Inc()
}

// SetCadence publishes the configured cadence for dashboards.
func (m *RewarderMetrics) SetCadence(seconds uint64) {
	if m == nil {
		return
	}
	m.cadenceSeconds.Set(float64(seconds))
}
