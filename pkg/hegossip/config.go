package hegossip

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config expresses every knob consumed by the cryptosystem, the codec and the
// grid. Build it once, call Derive and Validate, then pass it by value; nothing
// in this module mutates a Config after construction.
type Config struct {
	// GridWidth and GridHeight define GridWidth·GridHeight nodes laid out
	// row-major.
	GridWidth  int `mapstructure:"grid_width" yaml:"grid_width" validate:"gte=1"`
	GridHeight int `mapstructure:"grid_height" yaml:"grid_height" validate:"gte=1"`

	// OwnEstimateWeight is the share a node keeps of its own estimate during
	// fusion. The remainder is split equally among the other neighbours.
	OwnEstimateWeight float64 `mapstructure:"own_estimate_weight" yaml:"own_estimate_weight" validate:"gte=0,lte=1"`

	// MeasurementPrecisions lists the fractional bit precisions fused side by
	// side in the quantized domain (factor 2^p each).
	MeasurementPrecisions []uint `mapstructure:"measurement_precisions" yaml:"measurement_precisions" validate:"required,min=1,dive,gte=1,lte=52"`

	// EncryptedPrecision selects which of MeasurementPrecisions is encrypted.
	EncryptedPrecision uint `mapstructure:"encrypted_precision" yaml:"encrypted_precision" validate:"gte=1"`

	// MeasurementBits bounds the magnitude of a freshly quantized measurement.
	MeasurementBits uint `mapstructure:"measurement_bits" yaml:"measurement_bits" validate:"gte=1"`

	// WeightPrecision sets the weight quantization factor 2^WeightPrecision.
	WeightPrecision uint `mapstructure:"weight_precision" yaml:"weight_precision" validate:"gte=1,lte=30"`

	// WeightBits is the growth budgeted per round; it must leave headroom above
	// WeightPrecision for the carry out of the weighted sum.
	WeightBits uint `mapstructure:"weight_bits" yaml:"weight_bits" validate:"gtfield=WeightPrecision"`

	// PlaintextModulusBits is the bit length of the Paillier modulus n.
	PlaintextModulusBits uint `mapstructure:"plaintext_modulus_bits" yaml:"plaintext_modulus_bits" validate:"gte=16"`

	// RoundCount is the number of consensus rounds per observation. Zero means
	// "derive from the bit budget" (see Derive).
	RoundCount int `mapstructure:"round_count" yaml:"round_count" validate:"gte=0"`

	// EncryptionEnabled runs the encrypted representation alongside the
	// plaintext and quantized ones.
	EncryptionEnabled bool `mapstructure:"encryption_enabled" yaml:"encryption_enabled"`
}

// DefaultConfig mirrors the parameters the protocol was tuned with: an 8x8
// grid, 8/16/24-bit measurement precisions with the 16-bit one encrypted under
// a 192-bit modulus, and 7-bit weights budgeted at 8 bits per round.
func DefaultConfig() Config {
	return Config{
		GridWidth:             8,
		GridHeight:            8,
		OwnEstimateWeight:     0.2,
		MeasurementPrecisions: []uint{8, 16, 24},
		EncryptedPrecision:    16,
		MeasurementBits:       32,
		WeightPrecision:       7,
		WeightBits:            8,
		PlaintextModulusBits:  192,
		EncryptionEnabled:     true,
	}
}

// NodeCount returns GridWidth·GridHeight.
func (c Config) NodeCount() int {
	return c.GridWidth * c.GridHeight
}

// MaxRoundCount is the largest R with
// MeasurementBits + R·WeightBits <= PlaintextModulusBits.
func (c Config) MaxRoundCount() int {
	if c.WeightBits == 0 || c.PlaintextModulusBits < c.MeasurementBits {
		return 0
	}
	return int((c.PlaintextModulusBits - c.MeasurementBits) / c.WeightBits)
}

// Derive returns a copy of c with RoundCount filled from the bit budget when
// it was left at zero. The precision slice is copied so the result shares no
// memory with c.
func (c Config) Derive() Config {
	out := c
	out.MeasurementPrecisions = slices.Clone(c.MeasurementPrecisions)
	if out.RoundCount == 0 {
		out.RoundCount = out.MaxRoundCount()
	}
	return out
}

// BudgetBits returns MeasurementBits + RoundCount·WeightBits, the largest
// magnitude in bits an encrypted estimate can reach after RoundCount rounds.
func (c Config) BudgetBits() uint {
	return c.MeasurementBits + uint(c.RoundCount)*c.WeightBits
}

// GrowthBits returns MeasurementBits + RoundCount·WeightPrecision, the bit
// length an estimate can actually reach after RoundCount rounds given that the
// quantized weights of a node sum to 2^WeightPrecision. A Paillier key carries
// such estimates without wrapping only if its signed plaintext bound ⌊n/2⌋ is
// longer than this.
func (c Config) GrowthBits() uint {
	return c.MeasurementBits + uint(c.RoundCount)*c.WeightPrecision
}

// WeightFactor returns the weight quantization factor 2^WeightPrecision.
func (c Config) WeightFactor() int64 {
	return int64(1) << c.WeightPrecision
}

// MeasurementFactor returns 2^p for the i-th measurement precision.
func (c Config) MeasurementFactor(i int) float64 {
	return math.Ldexp(1, int(c.MeasurementPrecisions[i]))
}

// EncryptedIndex returns the position of EncryptedPrecision within
// MeasurementPrecisions, or -1 when it is not listed.
func (c Config) EncryptedIndex() int {
	return slices.Index(c.MeasurementPrecisions, c.EncryptedPrecision)
}

// Validate checks field ranges and the cross-field invariants. Every failure
// wraps ErrConfiguration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return Errorf("Config.Validate", ErrConfiguration, "%v", formatValidationError(err))
	}
	for _, p := range c.MeasurementPrecisions {
		if p >= c.MeasurementBits {
			return Errorf("Config.Validate", ErrConfiguration,
				"measurement precision %d leaves no integer bits in a %d-bit measurement", p, c.MeasurementBits)
		}
	}
	if c.EncryptionEnabled && c.EncryptedIndex() < 0 {
		return Errorf("Config.Validate", ErrConfiguration,
			"encrypted precision %d is not one of %v", c.EncryptedPrecision, c.MeasurementPrecisions)
	}
	if c.BudgetBits() > c.PlaintextModulusBits {
		return Errorf("Config.Validate", ErrConfiguration,
			"bit budget violated: %d + %d*%d = %d bits exceeds the %d-bit plaintext modulus",
			c.MeasurementBits, c.RoundCount, c.WeightBits, c.BudgetBits(), c.PlaintextModulusBits)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s: field is required", e.Field()))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s: must be at least %s", e.Field(), e.Param()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("%s: must not exceed %s", e.Field(), e.Param()))
		case "gtfield":
			msgs = append(msgs, fmt.Sprintf("%s: must be greater than %s", e.Field(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: validation failed (%s)", e.Field(), e.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
