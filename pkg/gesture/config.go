package gesture

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/snapsense/snapsense/pkg/classifier"
	"github.com/snapsense/snapsense/pkg/dsp"
	"github.com/snapsense/snapsense/pkg/melspec"
)

// FeatureSource selects which feature vector feeds the classifier.
type FeatureSource string

const (
	// SourceSpectral feeds the per-block spectral summary
	// (RMS, log band ratio, centroid, flatness).
	SourceSpectral FeatureSource = "spectral"
	// SourceKinematic feeds the hand kinematic window feature.
	SourceKinematic FeatureSource = "kinematic"
	// SourceMel feeds the flattened log-mel tensor.
	SourceMel FeatureSource = "mel"
)

// SpectralFeatureDim is the length of the spectral summary vector.
const SpectralFeatureDim = 4

// Config is the full engine configuration.
type Config struct {
	// Class names the gesture this engine detects, carried on events.
	Class string `yaml:"class"`

	// Source selects the feature path (default spectral).
	Source FeatureSource `yaml:"source"`

	// Model is the classifier model file path, resolved by the CLI.
	Model string `yaml:"model,omitempty"`

	Audio    dsp.Config     `yaml:"audio"`
	Gate     GateConfig     `yaml:"gate"`
	Smoother SmootherConfig `yaml:"smoother"`

	// TickSeconds is the host tick period, used to scale kinematic
	// speeds (default 1/60).
	TickSeconds float64 `yaml:"tick_seconds,omitempty"`

	// WindowFrames is the kinematic window length (default 11).
	WindowFrames int `yaml:"window_frames,omitempty"`

	// EventBuffer caps the pending event queue (default 16).
	EventBuffer int `yaml:"event_buffer,omitempty"`
}

// DefaultConfig returns an engine config with all defaults filled in.
func DefaultConfig() Config {
	return Config{
		Class:        "snap",
		Source:       SourceSpectral,
		Audio:        dsp.DefaultConfig(),
		Gate:         DefaultGateConfig(),
		Smoother:     DefaultSmootherConfig(),
		TickSeconds:  1.0 / 60.0,
		WindowFrames: 11,
		EventBuffer:  16,
	}
}

// LoadConfig reads an engine config YAML file, layering it over the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("gesture: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("gesture: parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Class == "" {
		return fmt.Errorf("gesture: class must be set")
	}
	switch c.Source {
	case SourceSpectral, SourceKinematic, SourceMel:
	case "":
		c.Source = SourceSpectral
	default:
		return fmt.Errorf("gesture: unknown feature source %q", c.Source)
	}
	if c.TickSeconds <= 0 {
		c.TickSeconds = 1.0 / 60.0
	}
	if c.WindowFrames <= 1 {
		c.WindowFrames = 11
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 16
	}
	return nil
}

// MelConfig derives the mel pipeline settings from a CNN model so the
// tensor the engine produces matches what the model was trained on.
// The filterbank's upper edge follows the model rate: Nyquist minus
// the same 400Hz margin the defaults leave at 16kHz.
func MelConfig(cnn *classifier.CNNConfig) melspec.Config {
	cfg := melspec.DefaultConfig()
	cfg.SampleRate = cnn.SampleRate
	cfg.NumMels = cnn.NumMels
	cfg.Hop = cnn.Hop
	cfg.FFTSize = cnn.FFTSize
	cfg.ExcerptSeconds = cnn.ExcerptSeconds
	cfg.HighFreq = float64(cnn.SampleRate)/2 - 400
	return cfg
}
