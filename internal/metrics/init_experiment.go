package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initExperimentMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "hegossip_runs_total",
			Help: "Total number of completed simulation runs",
		},
	)

	r.TimeStepsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "hegossip_time_steps_total",
			Help: "Total number of simulated time steps",
		},
	)

	r.RoundsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "hegossip_consensus_rounds_total",
			Help: "Total number of consensus rounds executed across all grids",
		},
	)

	r.EncryptionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "hegossip_encryptions_total",
			Help: "Total number of Paillier encryptions performed by grid nodes",
		},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hegossip_run_duration_seconds",
			Help:    "Wall time of one simulation run",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	r.SquaredError = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hegossip_squared_error",
			Help:    "Squared error of sampled estimates against the true value",
			Buckets: prometheus.ExponentialBuckets(1e-6, 10, 10),
		},
		[]string{"representation"},
	)

	r.WorkersActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "hegossip_workers_active",
			Help: "Number of simulation workers currently running",
		},
	)
}
