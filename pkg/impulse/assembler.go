package impulse

import (
	"math"

	"github.com/df07/go-room-acoustics/pkg/simulation"
)

// Buffer sizing: the IR extends half a second past the last arrival and
// is never shorter than one second.
const (
	tailPadding = 0.5
	minDuration = 1.0
)

// assembleBand builds one band's raw (pre-filter) IR buffer from its
// arrival list. Each arrival is split across the two neighboring samples
// in proportion to its fractional sample position.
func assembleBand(arrivals []simulation.Arrival, sampleRate int, numSamples int) []float64 {
	buffer := make([]float64, numSamples)

	fs := float64(sampleRate)
	for _, arrival := range arrivals {
		x := arrival.Time * fs
		i := int(math.Floor(x))
		f := x - float64(i)

		if i < 0 || i >= numSamples {
			continue
		}
		buffer[i] += arrival.Amplitude * (1 - f)
		if i+1 < numSamples {
			buffer[i+1] += arrival.Amplitude * f
		}
	}

	// Per-band safety normalization: keep raw peaks within unity so the
	// filter stage operates on bounded input
	peak := 0.0
	for _, sample := range buffer {
		if abs := math.Abs(sample); abs > peak {
			peak = abs
		}
	}
	if peak > 1.0 {
		for i := range buffer {
			buffer[i] /= peak
		}
	}

	return buffer
}

// bufferLength returns the sample count covering every arrival in the
// result plus the tail padding.
func bufferLength(result *simulation.Result, sampleRate int) int {
	tauMax := 0.0
	for _, arrivals := range result.Arrivals {
		for _, arrival := range arrivals {
			if arrival.Time > tauMax {
				tauMax = arrival.Time
			}
		}
	}

	duration := math.Max(tauMax+tailPadding, minDuration)
	return int(math.Ceil(duration * float64(sampleRate)))
}
