package experiment

import "math/rand/v2"

// Target is the scalar being estimated.
type Target interface {
	CurrentValue() float64
	Step()
	Reset()
}

// RandomWalk starts at a fixed value and moves by a Gaussian step of standard
// deviation Sigma on every Step.
type RandomWalk struct {
	Start float64
	Sigma float64

	current float64
	rng     *rand.Rand
}

// NewRandomWalk returns a walk positioned at start.
func NewRandomWalk(start, sigma float64, rng *rand.Rand) *RandomWalk {
	return &RandomWalk{Start: start, Sigma: sigma, current: start, rng: rng}
}

func (w *RandomWalk) CurrentValue() float64 { return w.current }

func (w *RandomWalk) Step() {
	w.current += w.Sigma * w.rng.NormFloat64()
}

func (w *RandomWalk) Reset() { w.current = w.Start }
