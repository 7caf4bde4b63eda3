// SPDX-License-Identifier: MIT
package utils

import (
	"errors"
	"math"
	"os"
	"testing"
)

const (
	testSize       = 1024
	testSampleRate = 44100
	testFrequency  = 440.0
)

var testMagnitudes []float64

func TestMain(m *testing.M) {
	testMagnitudes = make([]float64, testSize)

	// A "hill" peaking at testSize/4.
	for i := range testMagnitudes {
		testMagnitudes[i] = math.Exp(-0.01 * math.Pow(float64(i-testSize/4), 2))
	}

	os.Exit(m.Run())
}

func TestMockSink(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"Empty", []byte{}},
		{"Single colour", []byte{7, 255, 0, 0}},
		{"Dual colour", []byte{2, 1, 2, 3, 4, 5, 6, 128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &MockSink{}
			if err := sink.Send(tt.frame); err != nil {
				t.Fatalf("Send() error = %v", err)
			}

			last := sink.Last()
			if len(last) != len(tt.frame) {
				t.Fatalf("stored length = %d, want %d", len(last), len(tt.frame))
			}
			if len(tt.frame) > 0 {
				orig := tt.frame[0]
				tt.frame[0] = 99
				if sink.Last()[0] == 99 {
					t.Errorf("MockSink stored a reference instead of a copy")
				}
				tt.frame[0] = orig
			}
		})
	}
}

func TestMockSinkError(t *testing.T) {
	wantErr := errors.New("boom")
	sink := &MockSink{Err: wantErr}

	if err := sink.Send([]byte{1}); !errors.Is(err, wantErr) {
		t.Errorf("Send() error = %v, want %v", err, wantErr)
	}
	if n := len(sink.Frames()); n != 0 {
		t.Errorf("failed send recorded %d frames", n)
	}
}

func TestMockSource(t *testing.T) {
	src := NewMockSource(testSampleRate, []float32{1, 2, 3})

	dst := []float32{9, 9, 9, 9, 9}
	if err := src.SampleBuffer(dst); err != nil {
		t.Fatalf("SampleBuffer() error = %v", err)
	}
	want := []float32{1, 2, 3, 0, 0}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %v, want %v", dst, want)
		}
	}

	src.SetAvailable(false)
	if src.Available() {
		t.Error("Available() = true after SetAvailable(false)")
	}
	if err := src.SampleBuffer(dst); !errors.Is(err, ErrMockUnavailable) {
		t.Errorf("SampleBuffer() error = %v, want ErrMockUnavailable", err)
	}
	if src.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", src.Calls())
	}
}

func TestGenerateSineWave(t *testing.T) {
	wave := GenerateSineWave(testSize, testSampleRate, testFrequency)

	if len(wave) != testSize {
		t.Fatalf("length = %d, want %d", len(wave), testSize)
	}
	if wave[0] != 0 {
		t.Errorf("first sample = %v, want 0", wave[0])
	}

	var peak float32
	for _, v := range wave {
		peak = max(peak, float32(math.Abs(float64(v))))
	}
	if peak > 0.9001 || peak < 0.85 {
		t.Errorf("peak amplitude = %v, want about 0.9", peak)
	}
}

func TestGenerateBinSine(t *testing.T) {
	wave := GenerateBinSine(64, 4, 1)

	// Four full cycles: a quarter of a cycle in is sample 4.
	if math.Abs(float64(wave[4])-1) > 1e-6 {
		t.Errorf("wave[4] = %v, want 1", wave[4])
	}
	if math.Abs(float64(wave[8])) > 1e-6 {
		t.Errorf("wave[8] = %v, want 0", wave[8])
	}
}

func TestFindPeakBin(t *testing.T) {
	tests := []struct {
		name       string
		magnitudes []float64
		startBin   int
		endBin     int
		expected   int
	}{
		{"Empty Slice", []float64{}, 0, 10, 0},
		{"Full Range", testMagnitudes, 0, testSize - 1, testSize / 4},
		{"Negative Start", testMagnitudes, -10, testSize - 1, testSize / 4},
		{"End Beyond Length", testMagnitudes, 0, testSize + 10, testSize / 4},
		{"Range Before Peak", testMagnitudes, 0, testSize/4 - 10, testSize/4 - 10},
		{"Range After Peak", testMagnitudes, testSize/4 + 10, testSize - 1, testSize/4 + 10},
		{"Single Element", []float64{42}, 0, 0, 0},
		{"Equal Values", []float64{1, 1, 1, 1}, 0, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindPeakBin(tt.magnitudes, tt.startBin, tt.endBin); got != tt.expected {
				t.Errorf("FindPeakBin() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func BenchmarkGenerateComplexWave(b *testing.B) {
	for b.Loop() {
		GenerateComplexWave(testSize, testSampleRate)
	}
}
