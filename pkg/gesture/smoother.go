package gesture

import (
	"fmt"
	"time"
)

// State is the event state machine's state.
type State int

const (
	// Idle means the machine is armed and ready to detect.
	Idle State = iota
	// Cooldown means an event fired recently and re-triggers are
	// suppressed until the cooldown elapses.
	Cooldown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Cooldown:
		return "cooldown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SmootherConfig tunes the temporal smoother and the event state
// machine.
type SmootherConfig struct {
	// Smoothing is the EMA factor: score = score*a + p*(1-a) on a
	// classified tick, score *= a on a gated-reject tick (default 0.8).
	Smoothing float64 `yaml:"smoothing"`

	// Threshold is the detection threshold on the smoothed score
	// (default 0.7).
	Threshold float64 `yaml:"threshold"`

	// CooldownMs suppresses re-triggering after an event, in
	// milliseconds (default 350).
	CooldownMs int `yaml:"cooldown_ms"`
}

// Cooldown returns the cooldown as a duration.
func (c SmootherConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}

// DefaultSmootherConfig returns the smoother defaults.
func DefaultSmootherConfig() SmootherConfig {
	return SmootherConfig{
		Smoothing:  0.8,
		Threshold:  0.7,
		CooldownMs: 350,
	}
}

func (c SmootherConfig) validate() error {
	if c.Smoothing <= 0 || c.Smoothing >= 1 {
		return fmt.Errorf("gesture: smoothing %g must be in (0, 1)", c.Smoothing)
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return fmt.Errorf("gesture: threshold %g must be in (0, 1)", c.Threshold)
	}
	if c.CooldownMs <= 0 {
		return fmt.Errorf("gesture: cooldown %dms must be positive", c.CooldownMs)
	}
	return nil
}

// Smoother integrates per-tick probabilities into a smoothed score and
// decides when a gesture event fires. Detection is rising-edge: the
// score must cross from below the threshold to above it, and the
// machine must be Idle. Cooldown expiry is purely time-based.
//
// Owned by the engine tick loop; not safe for concurrent use.
type Smoother struct {
	cfg SmootherConfig

	score float64
	above bool

	state     State
	lastEvent time.Time
}

// NewSmoother creates a Smoother with the given config.
func NewSmoother(cfg SmootherConfig) (*Smoother, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Smoother{cfg: cfg}, nil
}

// Score returns the current smoothed score in [0, 1].
func (s *Smoother) Score() float64 { return s.score }

// State returns the machine state as of now, re-arming first if the
// cooldown has elapsed.
func (s *Smoother) State(now time.Time) State {
	s.rearm(now)
	return s.state
}

func (s *Smoother) rearm(now time.Time) {
	// A rising edge at exactly lastEvent+Cooldown is accepted.
	if s.state == Cooldown && !now.Before(s.lastEvent.Add(s.cfg.Cooldown())) {
		s.state = Idle
	}
}

// Observe integrates one classifier probability and reports whether a
// gesture event fires on this tick.
func (s *Smoother) Observe(p float64, now time.Time) bool {
	s.rearm(now)

	a := s.cfg.Smoothing
	s.score = s.score*a + p*(1-a)

	nowAbove := s.score > s.cfg.Threshold
	rising := nowAbove && !s.above
	s.above = nowAbove

	if rising && s.state == Idle {
		s.state = Cooldown
		s.lastEvent = now
		return true
	}
	return false
}

// Decay applies the gated-reject update: the score decays toward zero
// and no event can fire.
func (s *Smoother) Decay(now time.Time) {
	s.rearm(now)
	s.score *= s.cfg.Smoothing
	s.above = s.score > s.cfg.Threshold
}

// Reset restores the initial state: zero score, Idle, no edge history.
func (s *Smoother) Reset() {
	s.score = 0
	s.above = false
	s.state = Idle
	s.lastEvent = time.Time{}
}
