// Package gesture implements the gesture event detection engine: an
// adaptive noise gate, temporal score smoothing and the debounced
// event state machine, driven by a single-threaded tick loop.
//
// # Pipeline
//
// Each tick pulls one audio block (and, for pose gestures, one hand
// pose) and runs extract → gate → classify → smooth → decide to
// completion. The gate vetoes quiet or atonal blocks before any
// classifier runs; rejected ticks still decay the smoothed score and
// still update the noise floor. Events are debounced by a rising-edge
// check plus a time-based cooldown and delivered on a buffered
// channel; when the channel is full the oldest pending event is
// dropped rather than blocking the tick.
//
// # Concurrency
//
// The engine is synchronous and single-owner: the host calls Tick at
// its frame or audio-callback cadence, and no engine state is touched
// from any other goroutine. Only the event channel crosses goroutines.
package gesture

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/snapsense/snapsense/pkg/classifier"
	"github.com/snapsense/snapsense/pkg/dsp"
	"github.com/snapsense/snapsense/pkg/hand"
	"github.com/snapsense/snapsense/pkg/melspec"
	"github.com/snapsense/snapsense/pkg/resample"
)

// AudioSource supplies the most recent capture block each tick.
// ReadBlock fills buf completely and returns true, or returns false
// when not enough samples have been captured yet.
type AudioSource interface {
	ReadBlock(buf []float32) bool
}

// AudioSourceFunc adapts a function to AudioSource.
type AudioSourceFunc func(buf []float32) bool

// ReadBlock implements AudioSource.
func (f AudioSourceFunc) ReadBlock(buf []float32) bool { return f(buf) }

// PoseSource supplies the current hand pose, or ok=false while the
// hand is untracked.
type PoseSource interface {
	Pose() (p hand.Pose, ok bool)
}

// PoseSourceFunc adapts a function to PoseSource.
type PoseSourceFunc func() (hand.Pose, bool)

// Pose implements PoseSource.
func (f PoseSourceFunc) Pose() (hand.Pose, bool) { return f() }

// Engine is one configured gesture detector instance.
type Engine struct {
	cfg      Config
	analyzer *dsp.Analyzer
	gate     *NoiseGate
	smoother *Smoother
	scorer   classifier.Scorer

	audio AudioSource
	pose  PoseSource

	// Mel path (SourceMel only).
	mel  *melspec.Extractor
	down *resample.Downsampler

	// Kinematic path (SourceKinematic only).
	window *hand.Window

	block    []float32
	specFeat []float32

	events    chan Event
	closeOnce sync.Once
	closed    bool

	now func() time.Time
	log *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAudioSource sets the audio block source.
func WithAudioSource(src AudioSource) Option {
	return func(e *Engine) { e.audio = src }
}

// WithPoseSource sets the hand pose source.
func WithPoseSource(src PoseSource) Option {
	return func(e *Engine) { e.pose = src }
}

// WithClock overrides the time source. Tests use a fake clock to pin
// cooldown boundaries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger (default slog.Default).
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an Engine. The scorer's expected feature dimension is
// checked against the configured feature source; a mismatch is a
// fatal configuration error, reported here rather than at score time.
func New(cfg Config, scorer classifier.Scorer, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if scorer == nil {
		return nil, classifier.ErrNoBackend
	}

	analyzer, err := dsp.NewAnalyzer(cfg.Audio)
	if err != nil {
		return nil, err
	}
	gate, err := NewNoiseGate(cfg.Gate)
	if err != nil {
		return nil, err
	}
	smoother, err := NewSmoother(cfg.Smoother)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		analyzer: analyzer,
		gate:     gate,
		smoother: smoother,
		scorer:   scorer,
		block:    make([]float32, cfg.Audio.BlockSize),
		specFeat: make([]float32, SpectralFeatureDim),
		events:   make(chan Event, cfg.EventBuffer),
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	switch cfg.Source {
	case SourceSpectral:
		if scorer.Dim() != SpectralFeatureDim {
			return nil, fmt.Errorf("gesture: spectral source produces %d features, model expects %d",
				SpectralFeatureDim, scorer.Dim())
		}
	case SourceKinematic:
		if scorer.Dim() != hand.FeatureDim {
			return nil, fmt.Errorf("gesture: kinematic source produces %d features, model expects %d",
				hand.FeatureDim, scorer.Dim())
		}
		e.window = hand.NewWindow(cfg.TickSeconds, hand.WithWindowSize(cfg.WindowFrames))
	default: // SourceMel, mel pipeline configured by ConfigureMel
		return nil, fmt.Errorf("gesture: mel source requires NewMel")
	}
	return e, nil
}

// NewMel creates an Engine on the mel/CNN path. The mel pipeline
// geometry comes from the CNN model config so the produced tensor
// always matches the trained input shape.
func NewMel(cfg Config, model classifier.Config, opts ...Option) (*Engine, error) {
	if model.Kind != classifier.KindCNN || model.CNN == nil {
		return nil, fmt.Errorf("gesture: mel engine needs a cnn model, got kind %q", model.Kind)
	}
	scorer, err := classifier.New(model)
	if err != nil {
		return nil, err
	}

	cfg.Source = SourceMel
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	analyzer, err := dsp.NewAnalyzer(cfg.Audio)
	if err != nil {
		return nil, err
	}
	gate, err := NewNoiseGate(cfg.Gate)
	if err != nil {
		return nil, err
	}
	smoother, err := NewSmoother(cfg.Smoother)
	if err != nil {
		return nil, err
	}

	mel, err := melspec.New(MelConfig(model.CNN))
	if err != nil {
		return nil, err
	}
	if scorer.Dim() != mel.Size() {
		return nil, fmt.Errorf("gesture: mel pipeline produces %d values, model expects %d",
			mel.Size(), scorer.Dim())
	}
	down, err := resample.New(cfg.Audio.SampleRate, model.CNN.SampleRate)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		analyzer: analyzer,
		gate:     gate,
		smoother: smoother,
		scorer:   scorer,
		mel:      mel,
		down:     down,
		block:    make([]float32, cfg.Audio.BlockSize),
		specFeat: make([]float32, SpectralFeatureDim),
		events:   make(chan Event, cfg.EventBuffer),
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Events returns the event channel. It is closed by Close.
func (e *Engine) Events() <-chan Event { return e.events }

// Score returns the current smoothed score, for diagnostic display.
func (e *Engine) Score() float64 { return e.smoother.Score() }

// NoiseFloor returns the gate's current noise-floor estimate.
func (e *Engine) NoiseFloor() float64 { return e.gate.Floor() }

// Tick runs one full extract → gate → classify → smooth → decide pass.
// It never blocks and absorbs all transient conditions (no audio yet,
// hand untracked, windows still filling) by decaying the score.
func (e *Engine) Tick() {
	if e.closed {
		return
	}
	now := e.now()

	if e.audio == nil || !e.audio.ReadBlock(e.block) {
		e.smoother.Decay(now)
		return
	}

	feat, err := e.analyzer.Analyze(e.block)
	if err != nil {
		// Only possible on a block-size contract violation.
		e.log.Error("gesture: analyze failed", "err", err)
		e.smoother.Decay(now)
		return
	}

	// The mel history accumulates every tick so a full excerpt is
	// ready the moment the gate opens.
	if e.mel != nil {
		down, err := e.down.Process(e.block)
		if err != nil {
			e.log.Error("gesture: downsample failed", "err", err)
		} else {
			e.mel.Push(down)
		}
	}

	// The kinematic window likewise advances every tracked tick;
	// losing tracking resets it so stale frames never straddle a gap.
	if e.window != nil && e.pose != nil {
		if p, ok := e.pose.Pose(); ok {
			e.window.Push(p)
		} else {
			e.window.Reset()
		}
	}

	if v := e.gate.Check(feat); !v.Passed() {
		e.smoother.Decay(now)
		return
	}

	x, ok := e.feature(feat)
	if !ok {
		e.smoother.Decay(now)
		return
	}

	p := e.scorer.Score(x)
	if e.smoother.Observe(p, now) {
		ev := newEvent(e.cfg.Class, e.smoother.Score(), now)
		e.emit(ev)
		e.log.Info("gesture: event",
			"class", ev.Class, "score", ev.Score, "id", ev.ID)
	}
}

// feature builds the classifier input for the configured source.
// ok=false is the transient not-ready condition.
func (e *Engine) feature(f dsp.Features) ([]float32, bool) {
	switch e.cfg.Source {
	case SourceKinematic:
		return e.window.Feature()
	case SourceMel:
		x := e.mel.Extract()
		return x, x != nil
	default:
		e.specFeat[0] = float32(f.RMS)
		e.specFeat[1] = float32(f.LogBandRatio())
		e.specFeat[2] = float32(f.Centroid)
		e.specFeat[3] = float32(f.Flatness)
		return e.specFeat, true
	}
}

// emit delivers an event without ever blocking the tick: when the
// queue is full the oldest pending event is dropped.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
		return
	default:
	}
	select {
	case <-e.events:
	default:
	}
	select {
	case e.events <- ev:
	default:
	}
}

// Reset restores the engine to its initial state: empty windows, zero
// score, re-initializing noise floor.
func (e *Engine) Reset() {
	e.gate.Reset()
	e.smoother.Reset()
	if e.mel != nil {
		e.mel.Reset()
	}
	if e.window != nil {
		e.window.Reset()
	}
}

// Close stops event delivery and releases classifier resources.
// Safe to call more than once; Tick becomes a no-op afterwards.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closed = true
		close(e.events)
	})
	return nil
}
