package simulation

import (
	"math"
	"math/rand"

	"github.com/df07/go-room-acoustics/pkg/core"
)

// histogramSet holds per-band diffuse energy histograms over [0, T_max]
// with bins of width HistogramResolution. Bin contents are non-negative
// energies; they are consumed by pulse synthesis and dropped afterwards.
type histogramSet struct {
	bins     [][]float64 // [band][bin]
	binWidth float64
	numBins  int
}

func newHistogramSet(numBands int, rc RadiosityConfig) *histogramSet {
	numBins := int(math.Ceil(rc.MaxTime / rc.HistogramResolution))
	if numBins < 1 {
		numBins = 1
	}
	bins := make([][]float64, numBands)
	for b := range bins {
		bins[b] = make([]float64, numBins)
	}
	return &histogramSet{
		bins:     bins,
		binWidth: rc.HistogramResolution,
		numBins:  numBins,
	}
}

// add merges another histogram set bin-wise
func (h *histogramSet) add(other *histogramSet) {
	for b := range h.bins {
		dst, src := h.bins[b], other.bins[b]
		for i := range dst {
			dst[i] += src[i]
		}
	}
}

// synthesize converts one band's energy histogram into a Poisson process
// of signed pulses. Each non-empty bin above the energy threshold emits
// k ~ max(1, Poisson(E·λ_d)) pulses of amplitude √(E/k), uniformly
// jittered within the bin, each with a random ±1 sign.
func (h *histogramSet) synthesize(band int, rc RadiosityConfig, random *rand.Rand) []Arrival {
	var pulses []Arrival

	for i, energy := range h.bins[band] {
		if energy <= rc.MinEnergyThreshold {
			continue
		}

		lambda := energy * rc.PoissonDensity
		count := core.SamplePoisson(lambda, random)
		if count < 1 {
			count = 1
		}

		perPulseEnergy := energy / float64(count)
		amplitude := math.Sqrt(perPulseEnergy)

		binStart := float64(i) * h.binWidth
		for j := 0; j < count; j++ {
			t := binStart + random.Float64()*h.binWidth
			sign := 1.0
			if random.Float64() < 0.5 {
				sign = -1.0
			}
			pulses = append(pulses, Arrival{Time: t, Amplitude: amplitude * sign})
		}
	}

	return pulses
}
