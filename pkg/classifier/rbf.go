package classifier

import (
	"fmt"
	"math"
)

// rbf is the RBF kernel machine backend:
// standardize, then sigmoid(Σ_s dualCoef[s]·exp(−gamma·‖x − sv[s]‖²) + intercept).
type rbf struct {
	cfg RBFConfig
	std []float64 // standardized input scratch
}

func newRBF(cfg RBFConfig) (*rbf, error) {
	d := cfg.FeatureDim
	if d <= 0 || cfg.NumSV <= 0 {
		return nil, fmt.Errorf("classifier: rbf needs positive n_sv and feature_dim, got %d, %d", cfg.NumSV, d)
	}
	if len(cfg.SupportVectors) != cfg.NumSV*d {
		return nil, fmt.Errorf("classifier: rbf sv_flat length %d, want n_sv*feature_dim = %d",
			len(cfg.SupportVectors), cfg.NumSV*d)
	}
	if len(cfg.DualCoef) != cfg.NumSV {
		return nil, fmt.Errorf("classifier: rbf dual_coef length %d, want n_sv = %d", len(cfg.DualCoef), cfg.NumSV)
	}
	if len(cfg.Mean) != d || len(cfg.Scale) != d {
		return nil, fmt.Errorf("classifier: rbf mean/scale lengths %d/%d, want feature_dim = %d",
			len(cfg.Mean), len(cfg.Scale), d)
	}
	if cfg.Gamma <= 0 {
		return nil, fmt.Errorf("classifier: rbf gamma must be positive, got %g", cfg.Gamma)
	}
	for i, s := range cfg.Scale {
		if s == 0 {
			return nil, fmt.Errorf("classifier: rbf scale[%d] is zero", i)
		}
	}
	return &rbf{cfg: cfg, std: make([]float64, d)}, nil
}

func (r *rbf) Dim() int { return r.cfg.FeatureDim }

func (r *rbf) Score(x []float32) float64 {
	cfg := &r.cfg
	d := cfg.FeatureDim
	checkDim("rbf", len(x), d)

	for i, v := range x {
		r.std[i] = (float64(v) - cfg.Mean[i]) / cfg.Scale[i]
	}

	sum := cfg.Intercept
	for s := 0; s < cfg.NumSV; s++ {
		sv := cfg.SupportVectors[s*d : (s+1)*d]
		var dist2 float64
		for i, v := range r.std {
			diff := v - sv[i]
			dist2 += diff * diff
		}
		sum += cfg.DualCoef[s] * math.Exp(-cfg.Gamma*dist2)
	}
	return sigmoid(sum)
}
