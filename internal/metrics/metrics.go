package metrics

import (
	"strconv"
	"time"
)

// WorkerStarted marks one more worker as running.
func (r *Registry) WorkerStarted() {
	r.WorkersActive.Inc()
}

// WorkerFinished marks one worker as done.
func (r *Registry) WorkerFinished() {
	r.WorkersActive.Dec()
}

// RunCompleted records one finished run and its duration.
func (r *Registry) RunCompleted(duration time.Duration) {
	r.RunsTotal.Inc()
	r.RunDuration.Observe(duration.Seconds())
}

// TimeStepCompleted records one observation followed by rounds consensus
// rounds and the encryptions they started from.
func (r *Registry) TimeStepCompleted(rounds, encryptions int) {
	r.TimeStepsTotal.Inc()
	r.RoundsTotal.Add(float64(rounds))
	r.EncryptionsTotal.Add(float64(encryptions))
}

// RecordSquaredError records the squared error of one sampled
// representation.
func (r *Registry) RecordSquaredError(representation string, value float64) {
	r.SquaredError.WithLabelValues(representation).Observe(value)
}

// RecordHTTPRequest records a request served by the metrics router.
func (r *Registry) RecordHTTPRequest(path string, status int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}
