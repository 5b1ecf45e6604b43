package impulse

import (
	"math"
	"testing"
)

func db(x float64) float64 {
	return 20 * math.Log10(math.Max(x, 1e-30))
}

func TestBandEdges(t *testing.T) {
	fs := 48000.0

	tests := []struct {
		name     string
		center   float64
		wantLow  float64
		wantHigh float64
	}{
		{
			name:     "mid band",
			center:   3200,
			wantLow:  1600,
			wantHigh: 4800,
		},
		{
			name:     "low band clamps to 20 Hz",
			center:   30,
			wantLow:  20,
			wantHigh: 45,
		},
		{
			name:     "high band clamps to Nyquist",
			center:   20000,
			wantLow:  10000,
			wantHigh: fs/2 - 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, high := bandEdges(tt.center, fs)
			if low != tt.wantLow || high != tt.wantHigh {
				t.Errorf("Expected [%f, %f], got [%f, %f]", tt.wantLow, tt.wantHigh, low, high)
			}
		})
	}
}

func TestBandpassKernel_Shape(t *testing.T) {
	fs := 48000.0
	fc := 2500.0

	kernel := bandpassKernel(fc, fs)
	if len(kernel) != numTaps {
		t.Fatalf("Expected %d taps, got %d", numTaps, len(kernel))
	}

	// Linear phase: symmetric about the center tap
	mid := (numTaps - 1) / 2
	for k := 1; k <= mid; k++ {
		if math.Abs(kernel[mid-k]-kernel[mid+k]) > 1e-12 {
			t.Fatalf("Kernel asymmetric at offset %d", k)
		}
	}

	atCenter := db(kernelResponse(kernel, fs, fc))
	atLowStop := db(kernelResponse(kernel, fs, fc/8))
	atHighStop := db(kernelResponse(kernel, fs, 8*fc))

	if atCenter < -6 {
		t.Errorf("Response at fc is %f dB, expected > -6 dB", atCenter)
	}
	if atLowStop > -30 {
		t.Errorf("Response at fc/8 is %f dB, expected < -30 dB", atLowStop)
	}
	if atHighStop > -30 {
		t.Errorf("Response at 8fc is %f dB, expected < -30 dB", atHighStop)
	}
}

func TestBandpassKernel_UnitGainAtCenter(t *testing.T) {
	fs := 48000.0
	for _, fc := range []float64{800, 2500, 10000} {
		kernel := bandpassKernel(fc, fs)
		gain := kernelResponse(kernel, fs, fc)
		if math.Abs(gain-1.0) > 1e-6 {
			t.Errorf("fc=%f: expected unit gain at center, got %f", fc, gain)
		}
	}
}

// The group delay is compensated: filtering an impulse leaves the energy
// peak at the impulse position.
func TestConvolve_DelayCompensated(t *testing.T) {
	fs := 48000.0
	kernel := bandpassKernel(2500, fs)

	buffer := make([]float64, 2000)
	impulseAt := 700
	buffer[impulseAt] = 1.0

	filtered := convolve(buffer, kernel)
	if len(filtered) != len(buffer) {
		t.Fatalf("Expected output length %d, got %d", len(buffer), len(filtered))
	}

	peakIndex := 0
	peak := 0.0
	for i, sample := range filtered {
		if abs := math.Abs(sample); abs > peak {
			peak = abs
			peakIndex = i
		}
	}

	if peakIndex != impulseAt {
		t.Errorf("Expected filtered peak at %d, got %d", impulseAt, peakIndex)
	}
}

func TestConvolve_Linearity(t *testing.T) {
	kernel := []float64{0.25, 0.5, 0.25}

	buffer := make([]float64, 16)
	buffer[8] = 2.0

	filtered := convolve(buffer, kernel)

	// delay = 1, so the smoothing triple lands centered on sample 8
	if math.Abs(filtered[7]-0.5) > 1e-12 ||
		math.Abs(filtered[8]-1.0) > 1e-12 ||
		math.Abs(filtered[9]-0.5) > 1e-12 {
		t.Errorf("Expected [0.5 1.0 0.5] around sample 8, got [%f %f %f]",
			filtered[7], filtered[8], filtered[9])
	}
}
