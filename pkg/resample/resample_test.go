package resample

import (
	"math"
	"testing"
)

func TestPassThrough(t *testing.T) {
	d, err := New(16000, 16000)
	if err != nil {
		t.Fatal(err)
	}
	in := []float32{0.1, -0.2, 0.3}
	out, err := d.Process(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 || out[0] != 0.1 || out[2] != 0.3 {
		t.Errorf("pass-through altered samples: %v", out)
	}
}

func TestRejectsBadRates(t *testing.T) {
	if _, err := New(0, 16000); err == nil {
		t.Fatal("expected error for zero source rate")
	}
	if _, err := New(48000, -1); err == nil {
		t.Fatal("expected error for negative target rate")
	}
}

func TestDownsampleRatio(t *testing.T) {
	d, err := New(48000, 16000)
	if err != nil {
		t.Fatal(err)
	}

	// Push one second of a 1kHz tone in 1024-sample blocks and check
	// the total output length converges to the 1:3 ratio.
	block := make([]float32, 1024)
	total, pushed := 0, 0
	for i := 0; pushed < 48000; i++ {
		for j := range block {
			n := pushed + j
			block[j] = float32(0.5 * math.Sin(2*math.Pi*1000*float64(n)/48000))
		}
		out, err := d.Process(block)
		if err != nil {
			t.Fatal(err)
		}
		total += len(out)
		pushed += len(block)
	}

	want := pushed / 3
	// Allow slack for the resampler's internal filter delay.
	if total < want-2048 || total > want+2048 {
		t.Errorf("output samples = %d, want ~%d", total, want)
	}
}
