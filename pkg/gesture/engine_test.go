package gesture

import (
	"math"
	"testing"
	"time"

	"github.com/snapsense/snapsense/pkg/classifier"
	"github.com/snapsense/snapsense/pkg/hand"
)

// fakeScorer counts invocations so tests can assert the gate vetoed a
// block before classification.
type fakeScorer struct {
	dim   int
	p     float64
	calls int
}

func (s *fakeScorer) Score(x []float32) float64 { s.calls++; return s.p }
func (s *fakeScorer) Dim() int                  { return s.dim }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time              { return c.t }
func (c *fakeClock) Advance(d time.Duration) time.Time { c.t = c.t.Add(d); return c.t }

// toneSource generates a bin-aligned sinusoid, phase-continuous across
// blocks. amp is read each call so tests can switch levels mid-run.
func toneSource(bin int, amp *float64) AudioSourceFunc {
	var phase int
	return func(buf []float32) bool {
		for i := range buf {
			buf[i] = float32(*amp * math.Sin(2*math.Pi*float64(bin)*float64(phase+i)/float64(len(buf))))
		}
		phase += len(buf)
		return true
	}
}

func testEngineConfig() Config {
	cfg := DefaultConfig()
	cfg.Gate = GateConfig{
		FloorSmoothing: 0.9,
		RMSMultiplier:  0.5, // let a steady tone through
		RatioThreshold: 0.1,
		CentroidMin:    1,
		CentroidMax:    500,
	}
	cfg.Smoother = SmootherConfig{
		Smoothing:  0.5,
		Threshold:  0.7,
		CooldownMs: 100,
	}
	cfg.EventBuffer = 4
	return cfg
}

func TestEngineSilenceNeverClassified(t *testing.T) {
	scorer := &fakeScorer{dim: SpectralFeatureDim, p: 1.0}
	e, err := New(testEngineConfig(), scorer,
		WithAudioSource(AudioSourceFunc(func(buf []float32) bool {
			for i := range buf {
				buf[i] = 0
			}
			return true
		})))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	for i := 0; i < 100; i++ {
		e.Tick()
	}
	if scorer.calls != 0 {
		t.Errorf("classifier ran %d times on silence", scorer.calls)
	}
	if e.Score() != 0 {
		t.Errorf("score = %g on silence, want 0", e.Score())
	}
}

func TestEngineAdaptiveFloorRejectsSteadyNoise(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Gate.RMSMultiplier = 2.0 // only transients clear the floor

	scorer := &fakeScorer{dim: SpectralFeatureDim, p: 1.0}
	amp := 0.2
	e, err := New(cfg, scorer, WithAudioSource(toneSource(85, &amp)))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	// A steady tone is absorbed into the floor and never classified.
	for i := 0; i < 50; i++ {
		e.Tick()
	}
	if scorer.calls != 0 {
		t.Fatalf("classifier ran %d times on steady noise", scorer.calls)
	}
	floor := e.NoiseFloor()
	if floor <= 0 {
		t.Fatal("floor did not rise above zero")
	}

	// Dropping the level re-adapts the floor downward.
	amp = 0.01
	for i := 0; i < 100; i++ {
		e.Tick()
	}
	if e.NoiseFloor() >= floor {
		t.Errorf("floor %g did not adapt down from %g", e.NoiseFloor(), floor)
	}

	// A sudden burst well above the adapted floor reaches the
	// classifier.
	amp = 0.5
	e.Tick()
	if scorer.calls == 0 {
		t.Error("classifier never ran on a transient burst")
	}
}

func TestEngineEmitsDebouncedEvents(t *testing.T) {
	clk := &fakeClock{t: time.Unix(100, 0)}
	scorer := &fakeScorer{dim: SpectralFeatureDim, p: 1.0}
	amp := 0.3
	e, err := New(testEngineConfig(), scorer,
		WithAudioSource(toneSource(85, &amp)),
		WithClock(clk.Now))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	for i := 0; i < 10; i++ {
		e.Tick()
		clk.Advance(20 * time.Millisecond)
	}
	if got := len(e.Events()); got != 1 {
		t.Fatalf("sustained gesture emitted %d events, want 1", got)
	}
	ev := <-e.Events()
	if ev.Class != "snap" {
		t.Errorf("event class = %q, want snap", ev.Class)
	}
	if ev.Score <= 0.7 {
		t.Errorf("event score = %g, want above threshold", ev.Score)
	}
	if ev.ID == "" || ev.Time.IsZero() {
		t.Error("event missing id or timestamp")
	}

	// Silence drops the score; a fresh rise after the cooldown fires
	// exactly one more event.
	amp = 0
	for i := 0; i < 10; i++ {
		e.Tick()
		clk.Advance(20 * time.Millisecond)
	}
	amp = 0.3
	for i := 0; i < 10; i++ {
		e.Tick()
		clk.Advance(20 * time.Millisecond)
	}
	if got := len(e.Events()); got != 1 {
		t.Errorf("second gesture emitted %d events, want 1", got)
	}
}

func TestEngineKinematicWarmup(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Source = SourceKinematic
	cfg.WindowFrames = 5

	scorer := &fakeScorer{dim: hand.FeatureDim, p: 0.0}
	amp := 0.3
	e, err := New(cfg, scorer,
		WithAudioSource(toneSource(85, &amp)),
		WithPoseSource(PoseSourceFunc(func() (hand.Pose, bool) {
			return hand.Pose{}, true
		})))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	for i := 0; i < 4; i++ {
		e.Tick()
	}
	if scorer.calls != 0 {
		t.Fatalf("classifier ran %d times before the window filled", scorer.calls)
	}
	e.Tick()
	if scorer.calls != 1 {
		t.Errorf("classifier calls = %d after window filled, want 1", scorer.calls)
	}
}

func TestEngineKinematicTrackingLossResets(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Source = SourceKinematic
	cfg.WindowFrames = 3

	tracked := true
	scorer := &fakeScorer{dim: hand.FeatureDim, p: 0.0}
	amp := 0.3
	e, err := New(cfg, scorer,
		WithAudioSource(toneSource(85, &amp)),
		WithPoseSource(PoseSourceFunc(func() (hand.Pose, bool) {
			return hand.Pose{}, tracked
		})))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	for i := 0; i < 3; i++ {
		e.Tick()
	}
	if scorer.calls != 1 {
		t.Fatalf("calls = %d after fill, want 1", scorer.calls)
	}

	// One untracked tick empties the window; the fill count starts
	// over.
	tracked = false
	e.Tick()
	tracked = true
	before := scorer.calls
	for i := 0; i < 2; i++ {
		e.Tick()
	}
	if scorer.calls != before {
		t.Errorf("classifier ran on a partially refilled window")
	}
	e.Tick()
	if scorer.calls != before+1 {
		t.Errorf("calls = %d after refill, want %d", scorer.calls, before+1)
	}
}

func TestEngineDimensionMismatch(t *testing.T) {
	if _, err := New(testEngineConfig(), &fakeScorer{dim: 9}); err == nil {
		t.Error("expected error for spectral/model dimension mismatch")
	}

	cfg := testEngineConfig()
	cfg.Source = SourceKinematic
	if _, err := New(cfg, &fakeScorer{dim: 3}); err == nil {
		t.Error("expected error for kinematic/model dimension mismatch")
	}
}

func TestEngineClose(t *testing.T) {
	scorer := &fakeScorer{dim: SpectralFeatureDim}
	e, err := New(testEngineConfig(), scorer)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal("second close failed")
	}
	e.Tick() // no-op, must not panic
	if _, ok := <-e.Events(); ok {
		t.Error("events channel still open after close")
	}
}

func TestEngineReset(t *testing.T) {
	scorer := &fakeScorer{dim: SpectralFeatureDim, p: 1.0}
	amp := 0.3
	e, err := New(testEngineConfig(), scorer, WithAudioSource(toneSource(85, &amp)))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	for i := 0; i < 5; i++ {
		e.Tick()
	}
	if e.Score() == 0 || e.NoiseFloor() == 0 {
		t.Fatal("engine did not accumulate state")
	}
	e.Reset()
	if e.Score() != 0 || e.NoiseFloor() != 0 {
		t.Error("reset left residual state")
	}
}

// cnnTestModel builds a bias-only CNN: zero conv and dense weights
// with a dense bias of 4, so every full excerpt scores sigmoid(4)
// regardless of content. The geometry keeps the mel history at three
// 1024-sample blocks so warm-up stays short.
func cnnTestModel() classifier.Config {
	return classifier.Config{
		Kind: classifier.KindCNN,
		CNN: &classifier.CNNConfig{
			Std:            1,
			NumMels:        8,
			Hop:            256,
			SampleRate:     48000,
			ExcerptSeconds: 0.064,
			FFTSize:        512,
			Weights: &classifier.CNNWeights{
				Conv1: classifier.ConvLayer{In: 1, Out: 1, Kernel: 3, W: make([]float32, 9), B: make([]float32, 1)},
				Conv2: classifier.ConvLayer{In: 1, Out: 1, Kernel: 3, W: make([]float32, 9), B: make([]float32, 1)},
				Dense: classifier.DenseLayer{In: 4, W: make([]float32, 4), B: 4},
			},
		},
	}
}

func TestMelEngineEmitsEvents(t *testing.T) {
	clk := &fakeClock{t: time.Unix(100, 0)}
	amp := 0.3
	e, err := NewMel(testEngineConfig(), cnnTestModel(),
		WithAudioSource(toneSource(85, &amp)),
		WithClock(clk.Now))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	// The excerpt needs three blocks of history; the score cannot
	// move before it is full.
	for i := 0; i < 2; i++ {
		e.Tick()
		clk.Advance(20 * time.Millisecond)
	}
	if e.Score() != 0 {
		t.Fatalf("score = %g before the history filled, want 0", e.Score())
	}

	for i := 0; i < 8; i++ {
		e.Tick()
		clk.Advance(20 * time.Millisecond)
	}
	if got := len(e.Events()); got != 1 {
		t.Fatalf("sustained tone emitted %d events, want 1", got)
	}
	ev := <-e.Events()
	if ev.Class != "snap" {
		t.Errorf("event class = %q, want snap", ev.Class)
	}
	if ev.Score <= 0.7 {
		t.Errorf("event score = %g, want above threshold", ev.Score)
	}

	// Silence decays the score through the gate path even though the
	// history stays full; a fresh tone re-fires after the cooldown.
	amp = 0
	for i := 0; i < 10; i++ {
		e.Tick()
		clk.Advance(20 * time.Millisecond)
	}
	if e.Score() >= 0.1 {
		t.Errorf("score = %g after silence, want near zero", e.Score())
	}
	amp = 0.3
	for i := 0; i < 10; i++ {
		e.Tick()
		clk.Advance(20 * time.Millisecond)
	}
	if got := len(e.Events()); got != 1 {
		t.Errorf("second gesture emitted %d events, want 1", got)
	}
}

func TestNewMelRejectsNonCNN(t *testing.T) {
	model := classifier.Config{Kind: classifier.KindLogistic}
	if _, err := NewMel(testEngineConfig(), model); err == nil {
		t.Error("expected error for a non-cnn model on the mel path")
	}
}

func TestMelConfigTracksModelRate(t *testing.T) {
	cnn := cnnTestModel().CNN
	cnn.SampleRate = 8000
	mc := MelConfig(cnn)
	if mc.HighFreq != 3600 {
		t.Errorf("high freq = %g at 8kHz, want 3600", mc.HighFreq)
	}
	if mc.HighFreq >= float64(cnn.SampleRate)/2 {
		t.Error("filterbank upper edge reaches past Nyquist")
	}
}
