package impulse

import (
	"math"

	"github.com/df07/go-room-acoustics/pkg/simulation"
)

// Headroom level the summed IR is normalized to.
const mixHeadroom = 0.98

// DefaultSampleRate for rendered impulse responses.
const DefaultSampleRate = 48000

// BandIR is one band's filtered impulse response, kept for inspection.
type BandIR struct {
	Center  float64
	Samples []float64
}

// ImpulseResponse is the rendered room response: the normalized mono sum
// plus the per-band breakdown.
type ImpulseResponse struct {
	SampleRate int
	Samples    []float64
	Bands      []BandIR
}

// Duration returns the length of the response in seconds.
func (ir *ImpulseResponse) Duration() float64 {
	return float64(len(ir.Samples)) / float64(ir.SampleRate)
}

// Renderer converts simulation arrivals into a time-domain impulse
// response: per-band fractional-sample placement, windowed-sinc band
// filtering, then a normalized sum.
type Renderer struct {
	SampleRate int
}

// NewRenderer creates a renderer at the given sample rate (0 means
// DefaultSampleRate).
func NewRenderer(sampleRate int) *Renderer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Renderer{SampleRate: sampleRate}
}

// Render builds the multi-band impulse response from a simulation result.
func (r *Renderer) Render(result *simulation.Result) *ImpulseResponse {
	numSamples := bufferLength(result, r.SampleRate)

	bands := make([]BandIR, len(result.Bands))
	filtered := make([][]float64, len(result.Bands))
	for b, band := range result.Bands {
		raw := assembleBand(result.Arrivals[b], r.SampleRate, numSamples)
		kernel := bandpassKernel(band.Center, float64(r.SampleRate))
		filtered[b] = convolve(raw, kernel)
		bands[b] = BandIR{Center: band.Center, Samples: filtered[b]}
	}

	return &ImpulseResponse{
		SampleRate: r.SampleRate,
		Samples:    mixBands(filtered),
		Bands:      bands,
	}
}

// mixBands sums per-band buffers point-wise, zero-extending shorter
// ones, and scales the result to the headroom level.
func mixBands(buffers [][]float64) []float64 {
	length := 0
	for _, buffer := range buffers {
		if len(buffer) > length {
			length = len(buffer)
		}
	}

	sum := make([]float64, length)
	for _, buffer := range buffers {
		for i, sample := range buffer {
			sum[i] += sample
		}
	}

	peak := 0.0
	for _, sample := range sum {
		if abs := math.Abs(sample); abs > peak {
			peak = abs
		}
	}
	if peak > 0 {
		scale := mixHeadroom / peak
		for i := range sum {
			sum[i] *= scale
		}
	}

	return sum
}
