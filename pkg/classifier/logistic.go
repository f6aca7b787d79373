package classifier

import "fmt"

// logistic is the logistic regression backend over a small fixed
// feature set (time-domain RMS, log band ratio, spectral centroid,
// spectral flatness, in the extractor's order).
type logistic struct {
	cfg LogisticConfig
}

func newLogistic(cfg LogisticConfig) (*logistic, error) {
	d := len(cfg.Weight)
	if d == 0 {
		return nil, fmt.Errorf("classifier: logistic weight vector is empty")
	}
	if len(cfg.Mean) != d || len(cfg.Scale) != d {
		return nil, fmt.Errorf("classifier: logistic mean/scale lengths %d/%d, want %d",
			len(cfg.Mean), len(cfg.Scale), d)
	}
	for i, s := range cfg.Scale {
		if s == 0 {
			return nil, fmt.Errorf("classifier: logistic scale[%d] is zero", i)
		}
	}
	return &logistic{cfg: cfg}, nil
}

func (l *logistic) Dim() int { return len(l.cfg.Weight) }

func (l *logistic) Score(x []float32) float64 {
	cfg := &l.cfg
	checkDim("logistic", len(x), len(cfg.Weight))

	sum := cfg.Bias
	for i, v := range x {
		sum += cfg.Weight[i] * (float64(v) - cfg.Mean[i]) / cfg.Scale[i]
	}
	return sigmoid(sum)
}
