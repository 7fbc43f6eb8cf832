package experiment

import "math/rand/v2"

// GaussianSource draws measurements from N(truth, sigma²).
type GaussianSource struct {
	rng *rand.Rand
}

// NewGaussianSource returns a source drawing from rng. rng is not safe for
// concurrent use, so neither is the source.
func NewGaussianSource(rng *rand.Rand) *GaussianSource {
	return &GaussianSource{rng: rng}
}

func (s *GaussianSource) Sample(truth, sigma float64) float64 {
	if sigma == 0 {
		return truth
	}
	return truth + sigma*s.rng.NormFloat64()
}
