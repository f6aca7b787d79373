// Package classifier scores gesture feature vectors.
//
// A Scorer maps one feature vector to a probability in [0, 1]. Three
// interchangeable backends exist (an RBF kernel machine, logistic
// regression, and a small mel-spectrogram CNN), selected once at
// construction from an explicit tagged config. Model parameters are
// data shipped with the application; nothing is learned online.
//
// All shape validation happens eagerly at load time. A model whose
// vector lengths are mutually inconsistent is rejected with an error;
// Score itself never fails.
package classifier

import (
	"errors"
	"fmt"
	"math"
)

// Kind selects a classifier backend.
type Kind string

const (
	// KindRBF is the RBF kernel machine backend.
	KindRBF Kind = "rbf"
	// KindLogistic is the logistic regression backend.
	KindLogistic Kind = "logistic"
	// KindCNN is the mel-spectrogram CNN backend.
	KindCNN Kind = "cnn"
)

// ErrNoBackend is returned when a config selects no backend.
var ErrNoBackend = errors.New("classifier: no backend configured")

// Scorer scores one feature vector per tick.
//
// Implementations are not safe for concurrent use; the engine tick
// loop is the only caller.
type Scorer interface {
	// Score returns a probability in [0, 1] for the feature vector.
	// x must have length Dim(); shorter or longer inputs are a
	// programming error and panic.
	Score(x []float32) float64

	// Dim returns the expected feature vector length.
	Dim() int
}

// New constructs the backend selected by cfg.Kind.
// Exactly one backend section must be present and internally
// consistent; anything else is a fatal configuration error.
func New(cfg Config) (Scorer, error) {
	switch cfg.Kind {
	case KindRBF:
		if cfg.RBF == nil {
			return nil, fmt.Errorf("classifier: kind %q but rbf section missing", cfg.Kind)
		}
		return newRBF(*cfg.RBF)
	case KindLogistic:
		if cfg.Logistic == nil {
			return nil, fmt.Errorf("classifier: kind %q but logistic section missing", cfg.Kind)
		}
		return newLogistic(*cfg.Logistic)
	case KindCNN:
		if cfg.CNN == nil {
			return nil, fmt.Errorf("classifier: kind %q but cnn section missing", cfg.Kind)
		}
		return newCNN(*cfg.CNN)
	case "":
		return nil, ErrNoBackend
	default:
		return nil, fmt.Errorf("classifier: unknown kind %q", cfg.Kind)
	}
}

// sigmoid maps a raw decision value to [0, 1].
func sigmoid(v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}

// checkDim panics on a feature vector length mismatch. Dimensions are
// validated across components at startup, so a mismatch here is a bug
// in the caller, not a runtime condition.
func checkDim(name string, got, want int) {
	if got != want {
		panic(fmt.Sprintf("classifier: %s feature vector length %d, want %d", name, got, want))
	}
}
