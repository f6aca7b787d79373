package classifier

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
)

// Config is the tagged classifier model configuration.
// Exactly one backend section should be populated, matching Kind.
type Config struct {
	Kind     Kind            `yaml:"kind"`
	RBF      *RBFConfig      `yaml:"rbf,omitempty"`
	Logistic *LogisticConfig `yaml:"logistic,omitempty"`
	CNN      *CNNConfig      `yaml:"cnn,omitempty"`
}

// RBFConfig holds the RBF kernel machine parameters.
type RBFConfig struct {
	// Mean and Scale standardize each input feature.
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`

	// SupportVectors is the nSV x featureDim matrix, row-major flat.
	SupportVectors []float64 `yaml:"sv_flat"`
	DualCoef       []float64 `yaml:"dual_coef"`
	NumSV          int       `yaml:"n_sv"`
	FeatureDim     int       `yaml:"feature_dim"`

	Intercept float64 `yaml:"intercept"`
	Gamma     float64 `yaml:"gamma"`
}

// LogisticConfig holds the logistic regression parameters. The weight
// order must match the feature extractor's order exactly.
type LogisticConfig struct {
	Mean   []float64 `yaml:"mean"`
	Scale  []float64 `yaml:"scale"`
	Weight []float64 `yaml:"weight"`
	Bias   float64   `yaml:"bias"`
}

// CNNConfig holds the CNN backend parameters. The mel geometry fields
// must match the mel pipeline the engine feeds it from.
type CNNConfig struct {
	// Mean and Std normalize the flattened log-mel tensor.
	Mean float64 `yaml:"mean"`
	Std  float64 `yaml:"std"`

	NumMels        int     `yaml:"n_mels"`
	Hop            int     `yaml:"hop"`
	SampleRate     int     `yaml:"sample_rate"`
	ExcerptSeconds float64 `yaml:"excerpt_seconds"`
	FFTSize        int     `yaml:"fft_size"`

	// WeightsFile is the msgpack weight bundle path, relative to the
	// config file. Ignored when Weights is set directly.
	WeightsFile string `yaml:"weights_file,omitempty"`

	Weights *CNNWeights `yaml:"-"`
}

// Frames returns the number of spectrogram frames for one excerpt.
func (c *CNNConfig) Frames() int {
	excerpt := int(c.ExcerptSeconds * float64(c.SampleRate))
	return (excerpt-c.FFTSize)/c.Hop + 1
}

// ConvLayer is one convolution layer of the weight bundle.
// W is [Out][In][Kernel][Kernel] flattened row-major.
type ConvLayer struct {
	In     int       `msgpack:"in"`
	Out    int       `msgpack:"out"`
	Kernel int       `msgpack:"kernel"`
	W      []float32 `msgpack:"w"`
	B      []float32 `msgpack:"b"`
}

// DenseLayer is the final fully connected layer with a scalar output.
type DenseLayer struct {
	In int       `msgpack:"in"`
	W  []float32 `msgpack:"w"`
	B  float32   `msgpack:"b"`
}

// CNNWeights is the fixed-topology weight bundle:
// conv → relu → pool → conv → relu → pool → dense → sigmoid.
type CNNWeights struct {
	Conv1 ConvLayer  `msgpack:"conv1"`
	Conv2 ConvLayer  `msgpack:"conv2"`
	Dense DenseLayer `msgpack:"dense"`
}

// Load reads a model config from a YAML file and, for the CNN backend,
// its msgpack weight bundle. All shapes are validated by New; Load only
// performs I/O and decoding.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("classifier: read model config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("classifier: parse model config: %w", err)
	}

	if cfg.CNN != nil && cfg.CNN.Weights == nil {
		if cfg.CNN.WeightsFile == "" {
			return cfg, fmt.Errorf("classifier: cnn model %s has no weights_file", path)
		}
		wpath := cfg.CNN.WeightsFile
		if !filepath.IsAbs(wpath) {
			wpath = filepath.Join(filepath.Dir(path), wpath)
		}
		w, err := LoadWeights(wpath)
		if err != nil {
			return cfg, err
		}
		cfg.CNN.Weights = w
	}
	return cfg, nil
}

// LoadWeights decodes a msgpack CNN weight bundle.
func LoadWeights(path string) (*CNNWeights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: read weights: %w", err)
	}
	var w CNNWeights
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("classifier: parse weights: %w", err)
	}
	return &w, nil
}

// SaveWeights encodes a CNN weight bundle to msgpack. Used by the
// offline training exporter and by tests.
func SaveWeights(path string, w *CNNWeights) error {
	data, err := msgpack.Marshal(w)
	if err != nil {
		return fmt.Errorf("classifier: encode weights: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("classifier: write weights: %w", err)
	}
	return nil
}
