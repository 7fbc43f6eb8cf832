package quant

import (
	"math"
	"math/big"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
)

// Quantize returns round(value·factor), rounding half to even. It fails with
// hegossip.ErrRange when the result needs more than maxBits bits (sign
// excluded) or when value·factor is not finite. Results are never clamped.
func Quantize(value, factor float64, maxBits uint) (*big.Int, error) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return nil, hegossip.Errorf("Quantize", hegossip.ErrRange, "factor must be positive and finite, got %v", factor)
	}
	scaled := value * factor
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		return nil, hegossip.Errorf("Quantize", hegossip.ErrRange, "%v·%v is not finite", value, factor)
	}
	out, _ := big.NewFloat(math.RoundToEven(scaled)).Int(nil)
	if out.BitLen() > int(maxBits) {
		return nil, hegossip.Errorf("Quantize", hegossip.ErrRange,
			"%v needs %d bits at factor %v, limit is %d", value, out.BitLen(), factor, maxBits)
	}
	return out, nil
}

// Scale is the compound factor applied to a quantized estimate: the
// measurement factor once, and the weight factor once per fused round.
type Scale struct {
	Measurement float64
	Weight      float64
	Rounds      int
}

// Denominator returns Measurement·Weight^Rounds as an exact rational.
func (s Scale) Denominator() *big.Rat {
	d := new(big.Rat).SetFloat64(s.Measurement)
	w := new(big.Rat).SetFloat64(s.Weight)
	for range s.Rounds {
		d.Mul(d, w)
	}
	return d
}

// Unquantize divides value by the compound scale and returns the nearest
// float64.
func Unquantize(value *big.Int, s Scale) float64 {
	r := new(big.Rat).SetInt(value)
	r.Quo(r, s.Denominator())
	f, _ := r.Float64()
	return f
}
