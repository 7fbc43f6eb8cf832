package quant

import (
	"math/big"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
)

// Codec applies a Config's precisions and bit widths to measurements and
// weights.
type Codec struct {
	cfg hegossip.Config
}

// NewCodec validates cfg and returns a Codec bound to it.
func NewCodec(cfg hegossip.Config) (*Codec, error) {
	cfg = cfg.Derive()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Codec{cfg: cfg}, nil
}

// Precisions returns how many measurement precisions are fused in parallel.
func (c *Codec) Precisions() int {
	return len(c.cfg.MeasurementPrecisions)
}

// WeightFactor returns the weight quantization factor.
func (c *Codec) WeightFactor() int64 {
	return c.cfg.WeightFactor()
}

// QuantizeMeasurement quantizes v at every configured precision, bounded by
// MeasurementBits.
func (c *Codec) QuantizeMeasurement(v float64) ([]*big.Int, error) {
	out := make([]*big.Int, len(c.cfg.MeasurementPrecisions))
	for i := range out {
		q, err := Quantize(v, c.cfg.MeasurementFactor(i), c.cfg.MeasurementBits)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// QuantizeWeight quantizes a fusion weight, bounded by WeightBits.
func (c *Codec) QuantizeWeight(w float64) (int64, error) {
	q, err := Quantize(w, float64(c.cfg.WeightFactor()), c.cfg.WeightBits)
	if err != nil {
		return 0, err
	}
	return q.Int64(), nil
}

// Scale returns the compound scale of precision i after rounds fusions.
func (c *Codec) Scale(i, rounds int) Scale {
	return Scale{
		Measurement: c.cfg.MeasurementFactor(i),
		Weight:      float64(c.cfg.WeightFactor()),
		Rounds:      rounds,
	}
}

// Unquantize converts a quantized estimate of precision i that went through
// rounds fusions back to a real value.
func (c *Codec) Unquantize(v *big.Int, i, rounds int) float64 {
	return Unquantize(v, c.Scale(i, rounds))
}
