// Package metrics wires the agent's Prometheus counters/gauges (D6). This
// is purely an operator-facing surface: the consensus package never reads
// it back and never depends on it for a decision.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "subnet_consensus_agent"

// Metrics holds every counter/gauge updated by the Supervisor loop.
type Metrics struct {
	EpochsCompleted   prometheus.Counter
	ValidateSubmitted prometheus.Counter
	AttestsSubmitted  prometheus.Counter
	IterationErrors   *prometheus.CounterVec
	LastCompletedEpoch prometheus.Gauge
	CurrentBlock      prometheus.Gauge
}

// New registers every metric on registerer and returns the handle used to
// update them.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		EpochsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "epochs_completed_total",
			Help:      "Number of epochs for which this node completed its validator/attester duty.",
		}),
		ValidateSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validate_submitted_total",
			Help:      "Number of validate extrinsics submitted.",
		}),
		AttestsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attests_submitted_total",
			Help:      "Number of attest extrinsics submitted.",
		}),
		IterationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iteration_errors_total",
			Help:      "Number of consensus loop iterations that returned an error, by error kind.",
		}, []string{"kind"}),
		LastCompletedEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_completed_epoch",
			Help:      "Highest epoch this node has validated or attested.",
		}),
		CurrentBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_block",
			Help:      "Most recently observed chain block number.",
		}),
	}

	collectors := []prometheus.Collector{
		m.EpochsCompleted, m.ValidateSubmitted, m.AttestsSubmitted,
		m.IterationErrors, m.LastCompletedEpoch, m.CurrentBlock,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// These satisfy consensus.Metrics structurally, so consensus.ConsensusLoop
// can depend on the interface without importing this package.
func (m *Metrics) IncEpochsCompleted()   { m.EpochsCompleted.Inc() }
func (m *Metrics) IncValidateSubmitted() { m.ValidateSubmitted.Inc() }
func (m *Metrics) IncAttestsSubmitted()  { m.AttestsSubmitted.Inc() }
func (m *Metrics) IncIterationError(kind string) {
	m.IterationErrors.WithLabelValues(kind).Inc()
}
func (m *Metrics) SetLastCompletedEpoch(epoch uint64) { m.LastCompletedEpoch.Set(float64(epoch)) }
func (m *Metrics) SetCurrentBlock(block uint64)       { m.CurrentBlock.Set(float64(block)) }
