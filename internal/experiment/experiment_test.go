package experiment

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/consensus"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(11, 13))
}

func smallConfig(encrypt bool) hegossip.Config {
	cfg := hegossip.DefaultConfig()
	cfg.GridWidth, cfg.GridHeight = 2, 2
	cfg.EncryptionEnabled = encrypt
	return cfg.Derive()
}

func smallSettings() Settings {
	s := DefaultSettings()
	s.TotalRuns = 3
	s.TimeStepsPerRun = 2
	s.Workers = 2
	s.Seed = 42
	return s
}

func TestRandomWalk(t *testing.T) {
	still := NewRandomWalk(100, 0, testRNG())
	still.Step()
	require.Equal(t, 100.0, still.CurrentValue())

	w := NewRandomWalk(100, 2.5, testRNG())
	w.Step()
	w.Step()
	require.NotEqual(t, 100.0, w.CurrentValue())
	w.Reset()
	require.Equal(t, 100.0, w.CurrentValue())
}

func TestGaussianSource(t *testing.T) {
	src := NewGaussianSource(testRNG())
	require.Equal(t, 7.0, src.Sample(7, 0))

	const n = 20000
	var sum, sumSq float64
	for range n {
		v := src.Sample(10, 2)
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)
	require.InDelta(t, 10, mean, 0.1)
	require.InDelta(t, 2, std, 0.1)
}

func TestControllerSamplesEveryRepresentation(t *testing.T) {
	cfg := hegossip.DefaultConfig()
	cfg.GridWidth, cfg.GridHeight = 1, 1
	cfg.OwnEstimateWeight = 1

	grid, err := consensus.Build(cfg)
	require.NoError(t, err)
	pk, sk, err := FixedKey()
	require.NoError(t, err)

	target := NewRandomWalk(10, 0, testRNG())
	ctrl, err := NewController(grid, target, pk, sk, testRNG())
	require.NoError(t, err)

	_, err = ctrl.FetchSame()
	require.ErrorIs(t, err, hegossip.ErrProtocolViolation)

	require.NoError(t, grid.ObserveAll(target.CurrentValue()))
	before, err := ctrl.FetchCenter()
	require.NoError(t, err)
	require.NoError(t, grid.RunRounds(3))
	after, err := ctrl.FetchSame()
	require.NoError(t, err)

	require.Equal(t, 0, before.Rounds)
	require.Equal(t, 3, after.Rounds)
	for _, s := range []Sample{before, after} {
		require.Equal(t, 10.0, s.Truth)
		require.Equal(t, 10.0, s.Plain)
		require.Equal(t, []float64{10, 10, 10}, s.Quantized)
		d, err := s.Decrypted()
		require.NoError(t, err)
		require.Equal(t, 10.0, d)
		require.Zero(t, s.SquaredError())
	}
}

func TestNewControllerNeedsSecretKey(t *testing.T) {
	grid, err := consensus.Build(smallConfig(true))
	require.NoError(t, err)
	pk, _, err := FixedKey()
	require.NoError(t, err)

	_, err = NewController(grid, NewRandomWalk(0, 0, testRNG()), pk, nil, testRNG())
	require.ErrorIs(t, err, hegossip.ErrConfiguration)
}

func TestSampleWithoutEncryption(t *testing.T) {
	s := Sample{Truth: 1, Plain: 3, Quantized: []float64{2, 0}}
	require.Equal(t, 4.0, s.SquaredError())
	require.Equal(t, []float64{1, 1}, s.QuantizedSquaredErrors())
	_, err := s.DecryptedSquaredError()
	require.ErrorIs(t, err, hegossip.ErrNotEncrypted)
}

func TestAccumulatorMergesConcurrently(t *testing.T) {
	before := Sample{Truth: 0, Plain: 2, Quantized: []float64{2}}
	after := Sample{Truth: 0, Plain: 1, Quantized: []float64{1}, decrypted: 1, encrypted: true}

	var acc Accumulator
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var local Totals
			local.Add(before, after)
			local.Add(before, after)
			acc.Merge(local)
		}()
	}
	wg.Wait()

	got := acc.Totals()
	require.Equal(t, 16, got.Estimates)
	require.Equal(t, 64.0, got.Unfiltered)
	require.Equal(t, 16.0, got.Plain)
	require.Equal(t, []float64{16}, got.Quantized)
	require.Equal(t, 16.0, got.Encrypted)
}

func TestNewReport(t *testing.T) {
	cfg := smallConfig(true)
	totals := Totals{
		Estimates:  4,
		Unfiltered: 16,
		Plain:      4,
		Quantized:  []float64{9, 4, 4},
		Encrypted:  4,
	}
	r, err := NewReport(totals, cfg, smallSettings())
	require.NoError(t, err)

	require.Equal(t, 4, r.Estimates)
	require.Equal(t, 20, r.Rounds)
	require.Equal(t, 2.0, r.RMSE.Unfiltered)
	require.Equal(t, 1.0, r.RMSE.Plain)
	require.Equal(t, map[string]float64{"q8": 1.5, "q16": 1, "q24": 1}, r.RMSE.Quantized)
	require.NotNil(t, r.RMSE.Encrypted)
	require.Equal(t, 1.0, *r.RMSE.Encrypted)
	require.Equal(t, 2.0, r.FilterGain)
	require.NotNil(t, r.SecureGain)
	require.Equal(t, 2.0, *r.SecureGain)
	require.Zero(t, *r.SecureLoss)

	_, err = NewReport(Totals{}, cfg, smallSettings())
	require.ErrorIs(t, err, hegossip.ErrRange)
}

func TestReportWithoutEncryptionUsesEncryptedPrecision(t *testing.T) {
	totals := Totals{Estimates: 1, Unfiltered: 9, Plain: 1, Quantized: []float64{16, 4, 1}}
	r, err := NewReport(totals, smallConfig(false), smallSettings())
	require.NoError(t, err)
	require.Nil(t, r.RMSE.Encrypted)
	require.Equal(t, 1.5, *r.SecureGain)
	require.Equal(t, 1.0, *r.SecureLoss)
}

func TestReportOmitsSecureFiguresWithoutSecureChannel(t *testing.T) {
	cfg := smallConfig(false)
	cfg.MeasurementPrecisions = []uint{8, 24}
	require.NoError(t, cfg.Validate())

	totals := Totals{Estimates: 1, Unfiltered: 9, Plain: 1, Quantized: []float64{16, 1}}
	r, err := NewReport(totals, cfg, smallSettings())
	require.NoError(t, err)
	require.Nil(t, r.RMSE.Encrypted)
	require.Nil(t, r.SecureGain)
	require.Nil(t, r.SecureLoss)
	require.Equal(t, 3.0, r.FilterGain)

	data, err := r.Encode()
	require.NoError(t, err)
	require.NotContains(t, string(data), "secure_gain")
	require.NotContains(t, string(data), "secure_loss")
}

func TestReportEncodeDecode(t *testing.T) {
	r, err := NewReport(Totals{Estimates: 1, Unfiltered: 4, Plain: 1, Quantized: []float64{1, 1, 1}, Encrypted: 1}, smallConfig(true), smallSettings())
	require.NoError(t, err)
	r.ID = "abc"
	r.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	data, err := r.Encode()
	require.NoError(t, err)
	require.Contains(t, string(data), "rmse:")
	require.Contains(t, string(data), "filter_gain: 2")

	back, err := DecodeReport(data)
	require.NoError(t, err)
	require.Equal(t, r.ID, back.ID)
	require.True(t, r.CreatedAt.Equal(back.CreatedAt))
	require.Equal(t, r.RMSE, back.RMSE)
	require.Equal(t, r.Config.MeasurementPrecisions, back.Config.MeasurementPrecisions)
}

func TestSettingsValidate(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())

	s := DefaultSettings()
	s.SampleNode = "corner"
	require.ErrorIs(t, s.Validate(), hegossip.ErrConfiguration)

	s = DefaultSettings()
	s.TotalRuns = 0
	require.ErrorIs(t, s.Validate(), hegossip.ErrConfiguration)

	s = DefaultSettings()
	s.TotalRuns = 2
	s.Workers = 16
	require.Equal(t, 2, s.WorkerCount())
}

func TestKeys(t *testing.T) {
	pk, sk, err := Keys(smallConfig(false), DefaultSettings())
	require.NoError(t, err)
	require.Nil(t, pk)
	require.Nil(t, sk)

	pk, _, err = Keys(smallConfig(true), DefaultSettings())
	require.NoError(t, err)
	require.Equal(t, 197, pk.BitLen())

	s := DefaultSettings()
	s.FixedKey = false
	pk, _, err = Keys(smallConfig(true), s)
	require.NoError(t, err)
	require.Equal(t, 192, pk.BitLen())
}

type countingObserver struct {
	mu        sync.Mutex
	started   int
	finished  int
	runs      int
	steps     int
	rounds    int
	encrypted int
	labels    map[string]int
}

func (o *countingObserver) WorkerStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *countingObserver) WorkerFinished() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished++
}

func (o *countingObserver) RunCompleted(time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs++
}

func (o *countingObserver) TimeStepCompleted(rounds, encryptions int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps++
	o.rounds += rounds
	o.encrypted += encryptions
}

func (o *countingObserver) RecordSquaredError(label string, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.labels == nil {
		o.labels = make(map[string]int)
	}
	o.labels[label]++
}

func runSmall(t *testing.T, cfg hegossip.Config, s Settings, opts ...RunnerOption) Report {
	t.Helper()
	pk, sk, err := Keys(cfg, s)
	require.NoError(t, err)
	r, err := NewRunner(cfg, s, pk, sk, opts...)
	require.NoError(t, err)
	report, err := r.Run(context.Background())
	require.NoError(t, err)
	return report
}

func TestRunnerEncryptedMatchesQuantized(t *testing.T) {
	cfg := smallConfig(true)
	obs := &countingObserver{}
	report := runSmall(t, cfg, smallSettings(), WithObserver(obs))

	require.Equal(t, 6, report.Estimates)
	require.Equal(t, 20, report.Rounds)
	require.NotNil(t, report.RMSE.Encrypted)
	// Decrypted and quantized estimates are the same integers.
	require.Equal(t, report.RMSE.Quantized["q16"], *report.RMSE.Encrypted)

	require.Equal(t, 2, obs.started)
	require.Equal(t, 2, obs.finished)
	require.Equal(t, 3, obs.runs)
	require.Equal(t, 6, obs.steps)
	require.Equal(t, 120, obs.rounds)
	require.Equal(t, 24, obs.encrypted)
	for _, label := range []string{Unfiltered, Plain, "q8", "q16", "q24", Encrypted} {
		require.Equal(t, 6, obs.labels[label], label)
	}
}

func TestRunnerIsReproducible(t *testing.T) {
	cfg := smallConfig(false)
	s := smallSettings()
	s.SampleNode = SampleRandom

	a := runSmall(t, cfg, s)
	b := runSmall(t, cfg, s)
	require.Equal(t, a.RMSE, b.RMSE)
}

func TestRunnerWithoutNoiseIsExact(t *testing.T) {
	s := smallSettings()
	s.RandomWalkSigma = 0
	s.GoodSensorSigma = 0
	s.BadSensorSigma = 0

	report := runSmall(t, smallConfig(true), s)
	require.Zero(t, report.RMSE.Unfiltered)
	require.InDelta(t, 0, report.RMSE.Plain, 1e-9)
	for label, v := range report.RMSE.Quantized {
		require.Zero(t, v, label)
	}
	require.Zero(t, *report.RMSE.Encrypted)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	cfg := smallConfig(false)
	r, err := NewRunner(cfg, smallSettings(), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewRunnerRejects(t *testing.T) {
	_, err := NewRunner(smallConfig(true), smallSettings(), nil, nil)
	require.ErrorIs(t, err, hegossip.ErrConfiguration)

	s := smallSettings()
	s.TimeStepsPerRun = 0
	_, err = NewRunner(smallConfig(false), s, nil, nil)
	require.ErrorIs(t, err, hegossip.ErrConfiguration)
}
