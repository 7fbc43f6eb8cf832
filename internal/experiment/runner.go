package experiment

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/consensus"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/logging"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/paillier"
)

// Observer receives progress events from a Runner. Methods are called from
// several workers at once.
type Observer interface {
	WorkerStarted()
	WorkerFinished()
	RunCompleted(duration time.Duration)
	TimeStepCompleted(rounds, encryptions int)
	RecordSquaredError(representation string, value float64)
}

type nopObserver struct{}

func (nopObserver) WorkerStarted() {}
func (nopObserver) WorkerFinished() {}
func (nopObserver) RunCompleted(time.Duration) {}
func (nopObserver) TimeStepCompleted(int, int) {}
func (nopObserver) RecordSquaredError(string, float64) {}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the progress logger. The default discards everything.
func WithLogger(l logging.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithObserver sets the event observer, typically a metrics registry.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		r.observer = o
	}
}

// Runner executes Settings.TotalRuns simulation runs over parallel workers.
type Runner struct {
	cfg      hegossip.Config
	settings Settings
	pk       *paillier.PublicKey
	sk       *paillier.SecretKey
	logger   logging.Logger
	observer Observer
}

// NewRunner validates cfg and s. pk and sk are required when encryption is
// enabled.
func NewRunner(cfg hegossip.Config, s Settings, pk *paillier.PublicKey, sk *paillier.SecretKey, opts ...RunnerOption) (*Runner, error) {
	cfg = cfg.Derive()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if cfg.EncryptionEnabled && (pk == nil || sk == nil) {
		return nil, hegossip.Errorf("NewRunner", hegossip.ErrConfiguration, "encryption enabled without a keypair")
	}

	r := &Runner{
		cfg:      cfg,
		settings: s,
		pk:       pk,
		sk:       sk,
		logger:   logging.NewZap(nil),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes every run and returns the report. The first worker error
// cancels the others and is returned.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	seed := r.settings.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	workers := r.settings.WorkerCount()

	r.logger.Info(ctx, "simulation started",
		"runs", r.settings.TotalRuns,
		"time_steps", r.settings.TimeStepsPerRun,
		"rounds", r.cfg.RoundCount,
		"workers", workers,
		"nodes", r.cfg.NodeCount(),
		"encryption", r.cfg.EncryptionEnabled,
		logging.Redacted("secret_key"),
	)

	var acc Accumulator
	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		runs := r.settings.TotalRuns / workers
		if w < r.settings.TotalRuns%workers {
			runs++
		}
		g.Go(func() error {
			totals, err := r.work(ctx, w, runs, seed)
			if err != nil {
				return err
			}
			acc.Merge(totals)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Error(ctx, "simulation failed", "error", err)
		return Report{}, err
	}

	report, err := NewReport(acc.Totals(), r.cfg, r.settings)
	if err != nil {
		return Report{}, err
	}
	r.logger.Info(ctx, "simulation finished",
		"estimates", report.Estimates,
		"rmse_plain", report.RMSE.Plain,
		"rmse_unfiltered", report.RMSE.Unfiltered,
	)
	return report, nil
}

func (r *Runner) work(ctx context.Context, worker, runs int, seed uint64) (Totals, error) {
	r.observer.WorkerStarted()
	defer r.observer.WorkerFinished()

	logger := r.logger.With("worker", worker)
	rng := rand.New(rand.NewPCG(seed, uint64(worker)))

	grid, err := consensus.Build(r.cfg,
		consensus.WithSource(NewGaussianSource(rng)),
		consensus.WithSensorSigmas(r.settings.GoodSensorSigma, r.settings.BadSensorSigma),
	)
	if err != nil {
		return Totals{}, err
	}
	target := NewRandomWalk(r.settings.InitialState, r.settings.RandomWalkSigma, rng)
	ctrl, err := NewController(grid, target, r.pk, r.sk, rng)
	if err != nil {
		return Totals{}, err
	}

	encryptions := 0
	if r.cfg.EncryptionEnabled {
		encryptions = grid.Size()
	}
	progressEvery := max(runs/100, 1)

	var totals Totals
	for run := range runs {
		if err := ctx.Err(); err != nil {
			return Totals{}, err
		}
		if run%progressEvery == 0 {
			logger.Debug(ctx, "simulation progress", "run", run, "runs", runs, "percent", 100*float64(run)/float64(runs))
		}

		start := time.Now()
		target.Reset()
		for range r.settings.TimeStepsPerRun {
			target.Step()
			if err := grid.ObserveAll(target.CurrentValue()); err != nil {
				return Totals{}, err
			}
			before, err := ctrl.FetchBy(r.settings.SampleNode)
			if err != nil {
				return Totals{}, err
			}
			if err := grid.RunRounds(r.cfg.RoundCount); err != nil {
				return Totals{}, err
			}
			after, err := ctrl.FetchSame()
			if err != nil {
				return Totals{}, err
			}
			totals.Add(before, after)
			r.record(before, after)
			r.observer.TimeStepCompleted(r.cfg.RoundCount, encryptions)
		}
		r.observer.RunCompleted(time.Since(start))
	}
	return totals, nil
}

func (r *Runner) record(before, after Sample) {
	r.observer.RecordSquaredError(Unfiltered, before.SquaredError())
	r.observer.RecordSquaredError(Plain, after.SquaredError())
	for i, e := range after.QuantizedSquaredErrors() {
		r.observer.RecordSquaredError(QuantizedLabel(r.cfg.MeasurementPrecisions[i]), e)
	}
	if e, err := after.DecryptedSquaredError(); err == nil {
		r.observer.RecordSquaredError(Encrypted, e)
	}
}
