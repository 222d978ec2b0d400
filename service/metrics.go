package service

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"qkd-voting-backend/quantum"
)

const metricsNamespace = "qkd_voting"

// MetricsCollector tracks cast outcomes and protocol statistics.
type MetricsCollector struct {
	votes       *prometheus.CounterVec
	qber        prometheus.Histogram
	chsh        prometheus.Histogram
	simulations *prometheus.CounterVec
	trials      *prometheus.CounterVec
}

func NewMetricsCollector(reg prometheus.Registerer) (*MetricsCollector, error) {
	mc := &MetricsCollector{
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "votes_total",
			Help:      "Votes cast by decision status and eavesdropper setting.",
		}, []string{"status", "eve"}),
		qber: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "qber",
			Help:      "Quantum bit error rate of cast votes.",
			Buckets:   []float64{0, 0.01, 0.025, 0.05, 0.075, 0.1, 0.15, 0.2, 0.3, 0.5, 1},
		}),
		chsh: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "chsh_s",
			Help:      "CHSH S value of cast votes.",
			Buckets:   []float64{1.9, 2.0, 2.2, 2.4, 2.6, 2.7, 2.8, quantum.TsirelsonBound},
		}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "simulations_total",
			Help:      "Standalone protocol simulations by eavesdropper setting.",
		}, []string{"eve"}),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "trial_casts_total",
			Help:      "Casts executed by trial batches.",
		}, []string{"eve"}),
	}

	for _, c := range []prometheus.Collector{mc.votes, mc.qber, mc.chsh, mc.simulations, mc.trials} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return mc, nil
}

func (mc *MetricsCollector) ObserveVote(record *quantum.VoteDecisionRecord, eveEnabled bool) {
	mc.votes.WithLabelValues(string(record.Status), strconv.FormatBool(eveEnabled)).Inc()
	mc.qber.Observe(record.QBER)
	mc.chsh.Observe(record.CHSHS)
}

func (mc *MetricsCollector) ObserveSimulation(eveEnabled bool) {
	mc.simulations.WithLabelValues(strconv.FormatBool(eveEnabled)).Inc()
}

func (mc *MetricsCollector) ObserveTrials(n int, eveEnabled bool) {
	mc.trials.WithLabelValues(strconv.FormatBool(eveEnabled)).Add(float64(n))
}
