package consensus

// MeasurementSource produces one noisy reading of truth for a sensor whose
// noise has standard deviation sigma.
type MeasurementSource interface {
	Sample(truth, sigma float64) float64
}

// SourceFunc adapts a function to MeasurementSource.
type SourceFunc func(truth, sigma float64) float64

func (f SourceFunc) Sample(truth, sigma float64) float64 {
	return f(truth, sigma)
}

// ExactSource ignores sigma and returns the true value.
type ExactSource struct{}

func (ExactSource) Sample(truth, _ float64) float64 {
	return truth
}
