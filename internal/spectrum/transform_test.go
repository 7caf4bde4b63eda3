// SPDX-License-Identifier: MIT
package spectrum

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	dspfft "github.com/mjibson/go-dsp/fft"
)

func randomSignal(r *rand.Rand, n int) (re, im []float64) {
	re = make([]float64, n)
	im = make([]float64, n)
	for i := range n {
		re[i] = r.Float64()*2 - 1
		im[i] = r.Float64()*2 - 1
	}
	return re, im
}

func TestTransformMatchesReference(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for _, n := range []int{1, 2, 4, 8, 16, 64, 256, 1024, 4096} {
		re, im := randomSignal(r, n)
		in := make([]complex128, n)
		for i := range n {
			in[i] = complex(re[i], im[i])
		}

		if err := Transform(re, im, true); err != nil {
			t.Fatalf("n=%d: Transform() error: %v", n, err)
		}
		want := dspfft.FFT(in)

		tol := 1e-9 * float64(n)
		for k := range n {
			// The reference is unscaled.
			got := complex(re[k], im[k]) * complex(float64(n), 0)
			if cmplx.Abs(got-want[k]) > tol {
				t.Fatalf("n=%d bin %d: got %v, want %v", n, k, got, want[k])
			}
		}
	}
}

func TestTransformInverse(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))

	for exp := 0; exp <= 14; exp++ {
		n := 1 << exp
		re, im := randomSignal(r, n)
		origRe := append([]float64(nil), re...)
		origIm := append([]float64(nil), im...)

		if err := Transform(re, im, true); err != nil {
			t.Fatalf("forward n=%d: %v", n, err)
		}
		if err := Transform(re, im, false); err != nil {
			t.Fatalf("inverse n=%d: %v", n, err)
		}

		for i := range n {
			if math.Abs(re[i]-origRe[i]) > 1e-9 || math.Abs(im[i]-origIm[i]) > 1e-9 {
				t.Fatalf("n=%d index %d: got (%v, %v), want (%v, %v)", n, i, re[i], im[i], origRe[i], origIm[i])
			}
		}
	}
}

func TestTransformForwardScaling(t *testing.T) {
	// A constant signal concentrates in bin 0 with the forward 1/N scale.
	const n = 16
	re := make([]float64, n)
	im := make([]float64, n)
	for i := range re {
		re[i] = 3
	}

	if err := Transform(re, im, true); err != nil {
		t.Fatal(err)
	}
	if math.Abs(re[0]-3) > 1e-12 {
		t.Errorf("DC bin = %v, want 3", re[0])
	}
	for k := 1; k < n; k++ {
		if math.Abs(re[k]) > 1e-12 || math.Abs(im[k]) > 1e-12 {
			t.Errorf("bin %d = (%v, %v), want 0", k, re[k], im[k])
		}
	}
}

func TestTransformRejectsBadLengths(t *testing.T) {
	tests := []struct {
		name    string
		re, im  []float64
		wantErr error
	}{
		{"empty", []float64{}, []float64{}, ErrNotPowerOfTwo},
		{"three", []float64{1, 2, 3}, []float64{0, 0, 0}, ErrNotPowerOfTwo},
		{"twelve", make([]float64, 12), make([]float64, 12), ErrNotPowerOfTwo},
		{"mismatch", []float64{1, 2, 3, 4}, []float64{0, 0}, ErrLengthMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := append([]float64(nil), tt.re...)
			err := Transform(tt.re, tt.im, true)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Transform() error = %v, want %v", err, tt.wantErr)
			}
			for i := range before {
				if tt.re[i] != before[i] {
					t.Fatalf("input mutated at %d: %v != %v", i, tt.re[i], before[i])
				}
			}
		})
	}
}

func TestFrequencyToBin(t *testing.T) {
	tests := []struct {
		name       string
		freq       float64
		fftSize    int
		sampleRate float64
		want       int
	}{
		{"zero", 0, 1024, 44100, 0},
		{"negative clamps", -100, 1024, 44100, 0},
		{"a440", 440, 1024, 44100, 10},
		{"rounds half up", 21.533203125 * 2.5, 2048, 44100, 3},
		{"nyquist clamps", 22050, 1024, 44100, 511},
		{"above nyquist", 1e6, 1024, 44100, 511},
		{"large fft", 5000, 32768, 44100, 3715},
		{"bad rate", 440, 1024, 0, 0},
		{"nan", math.NaN(), 1024, 44100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FrequencyToBin(tt.freq, tt.fftSize, tt.sampleRate); got != tt.want {
				t.Errorf("FrequencyToBin(%v, %d, %v) = %d, want %d", tt.freq, tt.fftSize, tt.sampleRate, got, tt.want)
			}
		})
	}
}

func TestBinToFrequency(t *testing.T) {
	if got := BinToFrequency(10, 1024, 44100); math.Abs(got-430.6640625) > 1e-9 {
		t.Errorf("BinToFrequency(10) = %v", got)
	}
	if got := BinToFrequency(-1, 1024, 44100); got != 0 {
		t.Errorf("BinToFrequency(-1) = %v, want 0", got)
	}
}

func BenchmarkTransform(b *testing.B) {
	r := rand.New(rand.NewPCG(5, 6))
	re, im := randomSignal(r, 4096)

	b.ReportAllocs()
	for b.Loop() {
		_ = Transform(re, im, true)
	}
}
