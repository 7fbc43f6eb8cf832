package experiment

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
)

var validate = validator.New()

// Sample node selection.
const (
	SampleCenter = "center"
	SampleRandom = "random"
)

// Settings controls the simulation around the grid.
type Settings struct {
	TotalRuns       int     `mapstructure:"total_runs" yaml:"total_runs" validate:"gte=1"`
	TimeStepsPerRun int     `mapstructure:"time_steps_per_run" yaml:"time_steps_per_run" validate:"gte=1"`
	Workers         int     `mapstructure:"workers" yaml:"workers" validate:"gte=0"`
	InitialState    float64 `mapstructure:"initial_state" yaml:"initial_state"`
	RandomWalkSigma float64 `mapstructure:"random_walk_sigma" yaml:"random_walk_sigma" validate:"gte=0"`
	GoodSensorSigma float64 `mapstructure:"good_sensor_sigma" yaml:"good_sensor_sigma" validate:"gte=0"`
	BadSensorSigma  float64 `mapstructure:"bad_sensor_sigma" yaml:"bad_sensor_sigma" validate:"gte=0"`
	SampleNode      string  `mapstructure:"sample_node" yaml:"sample_node" validate:"oneof=center random"`

	// Seed makes runs reproducible for a fixed worker count. Zero draws a
	// random seed.
	Seed uint64 `mapstructure:"seed" yaml:"seed"`

	// FixedKey uses the built-in 197-bit key instead of generating one.
	FixedKey bool `mapstructure:"fixed_key" yaml:"fixed_key"`
}

// DefaultSettings returns 1000 runs of 50 time steps tracking a walk that
// starts at 100 with 2.5 step noise.
func DefaultSettings() Settings {
	return Settings{
		TotalRuns:       1000,
		TimeStepsPerRun: 50,
		InitialState:    100,
		RandomWalkSigma: 2.5,
		GoodSensorSigma: 2.5,
		BadSensorSigma:  5,
		SampleNode:      SampleCenter,
		FixedKey:        true,
	}
}

// Validate reports invalid settings as hegossip.ErrConfiguration.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return hegossip.Errorf("Settings.Validate", hegossip.ErrConfiguration, "%v", formatValidationError(err))
	}
	return nil
}

// WorkerCount resolves Workers: zero leaves two CPUs for the system, and the
// count never exceeds TotalRuns.
func (s Settings) WorkerCount() int {
	n := s.Workers
	if n == 0 {
		n = max(runtime.NumCPU()-2, 1)
	}
	return min(n, s.TotalRuns)
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		switch e.Tag() {
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s: must be at least %s", e.Field(), e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s: must be one of [%s]", e.Field(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: validation failed (%s)", e.Field(), e.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
