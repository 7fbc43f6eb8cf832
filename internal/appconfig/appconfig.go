// Package appconfig loads the simulator configuration from defaults, a YAML
// file, HEGOSSIP_* environment variables and command-line flags, in
// increasing order of precedence.
package appconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/hsiuhsiu/hegossip-go/internal/experiment"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
)

// EnvPrefix prefixes every environment variable, e.g.
// HEGOSSIP_CONSENSUS_GRID_WIDTH.
const EnvPrefix = "HEGOSSIP"

// AppConfig is everything the CLI needs.
type AppConfig struct {
	Consensus  hegossip.Config     `mapstructure:"consensus" yaml:"consensus"`
	Experiment experiment.Settings `mapstructure:"experiment" yaml:"experiment"`
	Log        LogConfig           `mapstructure:"log" yaml:"log"`
	Store      StoreConfig         `mapstructure:"store" yaml:"store"`
	Metrics    MetricsConfig       `mapstructure:"metrics" yaml:"metrics"`
}

// LogConfig selects the zap level and an optional log file. An empty File
// logs to stderr.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// StoreConfig locates the report database. An empty Path disables storage.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// MetricsConfig sets the listen address of the metrics server. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Consensus:  hegossip.DefaultConfig(),
		Experiment: experiment.DefaultSettings(),
		Log:        LogConfig{Level: "info"},
		Store:      StoreConfig{Path: "hegossip-reports"},
	}
}

// flagKeys maps flag names to viper keys.
var flagKeys = map[string]string{
	"grid-width":          "consensus.grid_width",
	"grid-height":         "consensus.grid_height",
	"own-weight":          "consensus.own_estimate_weight",
	"precisions":          "consensus.measurement_precisions",
	"encrypted-precision": "consensus.encrypted_precision",
	"modulus-bits":        "consensus.plaintext_modulus_bits",
	"rounds":              "consensus.round_count",
	"encryption":          "consensus.encryption_enabled",
	"runs":                "experiment.total_runs",
	"steps":               "experiment.time_steps_per_run",
	"workers":             "experiment.workers",
	"seed":                "experiment.seed",
	"sample":              "experiment.sample_node",
	"fixed-key":           "experiment.fixed_key",
	"log-level":           "log.level",
	"log-file":            "log.file",
	"store":               "store.path",
	"metrics-addr":        "metrics.addr",
}

// RegisterFlags adds the overridable settings to fs. Flag defaults are only
// informational; a flag takes effect when it is set explicitly.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "YAML configuration file")

	fs.Int("grid-width", d.Consensus.GridWidth, "grid width in nodes")
	fs.Int("grid-height", d.Consensus.GridHeight, "grid height in nodes")
	fs.Float64("own-weight", d.Consensus.OwnEstimateWeight, "weight a node keeps of its own estimate")
	fs.IntSlice("precisions", []int{8, 16, 24}, "fractional bits of each quantized representation")
	fs.Uint("encrypted-precision", d.Consensus.EncryptedPrecision, "precision carried under encryption")
	fs.Uint("modulus-bits", d.Consensus.PlaintextModulusBits, "Paillier modulus length in bits")
	fs.Int("rounds", 0, "consensus rounds per observation (0 derives from the bit budget)")
	fs.Bool("encryption", d.Consensus.EncryptionEnabled, "run the encrypted representation")

	fs.Int("runs", d.Experiment.TotalRuns, "simulation runs")
	fs.Int("steps", d.Experiment.TimeStepsPerRun, "time steps per run")
	fs.Int("workers", 0, "parallel workers (0 uses NumCPU-2)")
	fs.Uint64("seed", 0, "random seed (0 draws one)")
	fs.String("sample", d.Experiment.SampleNode, "sampled node: center or random")
	fs.Bool("fixed-key", d.Experiment.FixedKey, "use the built-in key instead of generating one")

	fs.String("log-level", d.Log.Level, "log level")
	fs.String("log-file", "", "log file (default stderr)")
	fs.String("store", d.Store.Path, "report database directory (empty disables)")
	fs.String("metrics-addr", "", "metrics listen address, e.g. :9090 (empty disables)")
}

// Load resolves the configuration. path may be empty; fs may be nil or carry
// flags registered with RegisterFlags. The result is validated.
func Load(path string, fs *pflag.FlagSet) (AppConfig, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("appconfig: read %s: %w", path, err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return AppConfig{}, fmt.Errorf("appconfig: bind --%s: %w", name, err)
				}
			}
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("appconfig: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c AppConfig) Validate() error {
	if err := c.Consensus.Derive().Validate(); err != nil {
		return err
	}
	if err := c.Experiment.Validate(); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Join(hegossip.ErrConfiguration, fmt.Errorf("log level: %w", err))
	}
	return nil
}

func setDefaults(v *viper.Viper, d AppConfig) {
	c, e := d.Consensus, d.Experiment
	v.SetDefault("consensus.grid_width", c.GridWidth)
	v.SetDefault("consensus.grid_height", c.GridHeight)
	v.SetDefault("consensus.own_estimate_weight", c.OwnEstimateWeight)
	v.SetDefault("consensus.measurement_precisions", c.MeasurementPrecisions)
	v.SetDefault("consensus.encrypted_precision", c.EncryptedPrecision)
	v.SetDefault("consensus.measurement_bits", c.MeasurementBits)
	v.SetDefault("consensus.weight_precision", c.WeightPrecision)
	v.SetDefault("consensus.weight_bits", c.WeightBits)
	v.SetDefault("consensus.plaintext_modulus_bits", c.PlaintextModulusBits)
	v.SetDefault("consensus.round_count", c.RoundCount)
	v.SetDefault("consensus.encryption_enabled", c.EncryptionEnabled)

	v.SetDefault("experiment.total_runs", e.TotalRuns)
	v.SetDefault("experiment.time_steps_per_run", e.TimeStepsPerRun)
	v.SetDefault("experiment.workers", e.Workers)
	v.SetDefault("experiment.initial_state", e.InitialState)
	v.SetDefault("experiment.random_walk_sigma", e.RandomWalkSigma)
	v.SetDefault("experiment.good_sensor_sigma", e.GoodSensorSigma)
	v.SetDefault("experiment.bad_sensor_sigma", e.BadSensorSigma)
	v.SetDefault("experiment.sample_node", e.SampleNode)
	v.SetDefault("experiment.seed", e.Seed)
	v.SetDefault("experiment.fixed_key", e.FixedKey)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}
