package classifier

import "fmt"

// cnn is the mel-spectrogram CNN backend. The topology is fixed:
// conv(3x3, same) → relu → maxpool(2x2) → conv(3x3, same) → relu →
// maxpool(2x2) → dense → sigmoid, with weights supplied as data.
//
// The forward pass is plain bounded arithmetic: no allocation after
// construction, no blocking, one scalar output per call.
type cnn struct {
	cfg    CNNConfig
	mels   int
	frames int

	// Scratch tensors, sized at construction.
	in    []float32 // normalized input, [1, mels, frames]
	act1  []float32 // conv1 output
	pool1 []float32
	act2  []float32 // conv2 output
	pool2 []float32

	h1, w1 int // post-pool1 spatial dims
	h2, w2 int // post-pool2 spatial dims
}

func newCNN(cfg CNNConfig) (*cnn, error) {
	if cfg.NumMels <= 0 || cfg.Hop <= 0 || cfg.SampleRate <= 0 || cfg.FFTSize <= 0 {
		return nil, fmt.Errorf("classifier: cnn mel geometry must be positive: n_mels=%d hop=%d sample_rate=%d fft_size=%d",
			cfg.NumMels, cfg.Hop, cfg.SampleRate, cfg.FFTSize)
	}
	if cfg.ExcerptSeconds <= 0 {
		return nil, fmt.Errorf("classifier: cnn excerpt_seconds must be positive, got %g", cfg.ExcerptSeconds)
	}
	if cfg.Std == 0 {
		return nil, fmt.Errorf("classifier: cnn std is zero")
	}
	w := cfg.Weights
	if w == nil {
		return nil, fmt.Errorf("classifier: cnn weights missing")
	}

	frames := cfg.Frames()
	if frames <= 0 {
		return nil, fmt.Errorf("classifier: cnn excerpt yields %d frames", frames)
	}

	if err := checkConv("conv1", w.Conv1, 1); err != nil {
		return nil, err
	}
	if err := checkConv("conv2", w.Conv2, w.Conv1.Out); err != nil {
		return nil, err
	}

	c := &cnn{cfg: cfg, mels: cfg.NumMels, frames: frames}
	c.h1, c.w1 = c.mels/2, frames/2
	c.h2, c.w2 = c.h1/2, c.w1/2
	if c.h2 == 0 || c.w2 == 0 {
		return nil, fmt.Errorf("classifier: cnn input %dx%d too small for two pooling stages", c.mels, frames)
	}

	flat := w.Conv2.Out * c.h2 * c.w2
	if w.Dense.In != flat || len(w.Dense.W) != flat {
		return nil, fmt.Errorf("classifier: cnn dense expects %d inputs, conv stack produces %d", len(w.Dense.W), flat)
	}

	c.in = make([]float32, c.mels*frames)
	c.act1 = make([]float32, w.Conv1.Out*c.mels*frames)
	c.pool1 = make([]float32, w.Conv1.Out*c.h1*c.w1)
	c.act2 = make([]float32, w.Conv2.Out*c.h1*c.w1)
	c.pool2 = make([]float32, flat)
	return c, nil
}

func checkConv(name string, l ConvLayer, wantIn int) error {
	if l.Kernel <= 0 || l.Kernel%2 == 0 {
		return fmt.Errorf("classifier: %s kernel %d must be odd and positive", name, l.Kernel)
	}
	if l.In != wantIn {
		return fmt.Errorf("classifier: %s has %d input channels, want %d", name, l.In, wantIn)
	}
	if l.Out <= 0 {
		return fmt.Errorf("classifier: %s has no output channels", name)
	}
	if len(l.W) != l.Out*l.In*l.Kernel*l.Kernel {
		return fmt.Errorf("classifier: %s weight length %d, want out*in*k*k = %d",
			name, len(l.W), l.Out*l.In*l.Kernel*l.Kernel)
	}
	if len(l.B) != l.Out {
		return fmt.Errorf("classifier: %s bias length %d, want %d", name, len(l.B), l.Out)
	}
	return nil
}

func (c *cnn) Dim() int { return c.mels * c.frames }

func (c *cnn) Score(x []float32) float64 {
	checkDim("cnn", len(x), len(c.in))

	mean, std := float32(c.cfg.Mean), float32(c.cfg.Std)
	for i, v := range x {
		c.in[i] = (v - mean) / std
	}

	w := c.cfg.Weights
	convRelu(c.in, 1, c.mels, c.frames, w.Conv1, c.act1)
	maxPool2(c.act1, w.Conv1.Out, c.mels, c.frames, c.pool1)
	convRelu(c.pool1, w.Conv1.Out, c.h1, c.w1, w.Conv2, c.act2)
	maxPool2(c.act2, w.Conv2.Out, c.h1, c.w1, c.pool2)

	sum := float64(w.Dense.B)
	for i, v := range c.pool2 {
		sum += float64(w.Dense.W[i]) * float64(v)
	}

	p := sigmoid(sum)
	// Clamp defensively against activation edge cases.
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return p
}

// convRelu applies a same-padded 2D convolution followed by ReLU.
// in is [inC, h, w] and out is [l.Out, h, w], both row-major flat.
func convRelu(in []float32, inC, h, w int, l ConvLayer, out []float32) {
	k := l.Kernel
	r := k / 2
	for oc := 0; oc < l.Out; oc++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				acc := l.B[oc]
				for ic := 0; ic < inC; ic++ {
					wBase := ((oc*l.In + ic) * k) * k
					inBase := ic * h * w
					for ky := 0; ky < k; ky++ {
						sy := y + ky - r
						if sy < 0 || sy >= h {
							continue
						}
						for kx := 0; kx < k; kx++ {
							sx := x + kx - r
							if sx < 0 || sx >= w {
								continue
							}
							acc += l.W[wBase+ky*k+kx] * in[inBase+sy*w+sx]
						}
					}
				}
				if acc < 0 {
					acc = 0
				}
				out[(oc*h+y)*w+x] = acc
			}
		}
	}
}

// maxPool2 applies 2x2 max pooling with stride 2, flooring odd dims.
// in is [ch, h, w]; out is [ch, h/2, w/2].
func maxPool2(in []float32, ch, h, w int, out []float32) {
	oh, ow := h/2, w/2
	for c := 0; c < ch; c++ {
		for y := 0; y < oh; y++ {
			for x := 0; x < ow; x++ {
				base := (c*h + y*2) * w
				m := in[base+x*2]
				if v := in[base+x*2+1]; v > m {
					m = v
				}
				if v := in[base+w+x*2]; v > m {
					m = v
				}
				if v := in[base+w+x*2+1]; v > m {
					m = v
				}
				out[(c*oh+y)*ow+x] = m
			}
		}
	}
}
