package experiment

import (
	"slices"
	"sync"
)

// Totals sums squared errors over sampled time steps.
type Totals struct {
	Estimates  int
	Unfiltered float64
	Plain      float64
	Quantized  []float64
	Encrypted  float64
}

// Add accounts one time step: before is sampled right after observation,
// after once the rounds are done.
func (t *Totals) Add(before, after Sample) {
	t.Estimates++
	t.Unfiltered += before.SquaredError()
	t.Plain += after.SquaredError()
	qs := after.QuantizedSquaredErrors()
	if t.Quantized == nil {
		t.Quantized = make([]float64, len(qs))
	}
	for i, q := range qs {
		t.Quantized[i] += q
	}
	if e, err := after.DecryptedSquaredError(); err == nil {
		t.Encrypted += e
	}
}

// Merge adds other into t.
func (t *Totals) Merge(other Totals) {
	t.Estimates += other.Estimates
	t.Unfiltered += other.Unfiltered
	t.Plain += other.Plain
	t.Encrypted += other.Encrypted
	if t.Quantized == nil && other.Quantized != nil {
		t.Quantized = make([]float64, len(other.Quantized))
	}
	for i, q := range other.Quantized {
		t.Quantized[i] += q
	}
}

// Accumulator merges totals from concurrent workers.
type Accumulator struct {
	mu     sync.Mutex
	totals Totals
}

// Merge adds t under the accumulator's lock.
func (a *Accumulator) Merge(t Totals) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totals.Merge(t)
}

// Totals returns a copy of the accumulated totals.
func (a *Accumulator) Totals() Totals {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.totals
	out.Quantized = slices.Clone(a.totals.Quantized)
	return out
}
