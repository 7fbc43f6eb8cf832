package experiment

import (
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
)

// RMSE holds the root mean squared error of every representation.
type RMSE struct {
	Unfiltered float64            `yaml:"unfiltered"`
	Plain      float64            `yaml:"plain"`
	Quantized  map[string]float64 `yaml:"quantized"`
	Encrypted  *float64           `yaml:"encrypted,omitempty"`
}

// Report summarizes a finished simulation.
type Report struct {
	ID        string    `yaml:"id,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
	Estimates int       `yaml:"estimates"`
	Rounds    int       `yaml:"rounds"`
	RMSE      RMSE      `yaml:"rmse"`

	// FilterGain is RMSE.Unfiltered / RMSE.Plain.
	FilterGain float64 `yaml:"filter_gain"`
	// SecureGain is RMSE.Unfiltered over the encrypted RMSE, or over the
	// RMSE of the encrypted precision when encryption is off. It is nil when
	// encryption is off and that precision was not fused.
	SecureGain *float64 `yaml:"secure_gain,omitempty"`
	// SecureLoss is the RMSE the secure path adds on top of RMSE.Plain, nil
	// whenever SecureGain is.
	SecureLoss *float64 `yaml:"secure_loss,omitempty"`

	Config   hegossip.Config `yaml:"config"`
	Settings Settings        `yaml:"settings"`
}

// NewReport turns totals into RMSE figures. It fails with hegossip.ErrRange
// when no estimate was recorded.
func NewReport(t Totals, cfg hegossip.Config, s Settings) (Report, error) {
	if t.Estimates == 0 {
		return Report{}, hegossip.Errorf("NewReport", hegossip.ErrRange, "no estimates recorded")
	}
	rmse := func(sum float64) float64 {
		return math.Sqrt(sum / float64(t.Estimates))
	}

	r := Report{
		CreatedAt: time.Now().UTC(),
		Estimates: t.Estimates,
		Rounds:    cfg.RoundCount,
		RMSE: RMSE{
			Unfiltered: rmse(t.Unfiltered),
			Plain:      rmse(t.Plain),
			Quantized:  make(map[string]float64, len(t.Quantized)),
		},
		Config:   cfg,
		Settings: s,
	}
	for i, sum := range t.Quantized {
		r.RMSE.Quantized[QuantizedLabel(cfg.MeasurementPrecisions[i])] = rmse(sum)
	}

	secure, ok := r.RMSE.Quantized[QuantizedLabel(cfg.EncryptedPrecision)]
	if cfg.EncryptionEnabled {
		enc := rmse(t.Encrypted)
		r.RMSE.Encrypted = &enc
		secure, ok = enc, true
	}
	r.FilterGain = ratio(r.RMSE.Unfiltered, r.RMSE.Plain)
	if ok {
		gain := ratio(r.RMSE.Unfiltered, secure)
		loss := secure - r.RMSE.Plain
		r.SecureGain, r.SecureLoss = &gain, &loss
	}
	return r, nil
}

// ratio returns a/b, or zero when b is zero.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Encode renders the report as YAML.
func (r Report) Encode() ([]byte, error) {
	return yaml.Marshal(r)
}

// DecodeReport parses a report produced by Encode.
func DecodeReport(data []byte) (Report, error) {
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Report{}, err
	}
	return r, nil
}
