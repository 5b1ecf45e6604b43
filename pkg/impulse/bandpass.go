package impulse

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// numTaps is the FIR length of every band filter. Odd, so the filter is
// linear-phase with an integer group delay of (numTaps-1)/2 samples.
const numTaps = 257

// responseFFTSize is the zero-padded transform length used to measure
// kernel magnitude responses (~3 Hz resolution at 48 kHz).
const responseFFTSize = 16384

// bandEdges returns the passband of a filter centered at fc with a
// bandwidth of one fc, clamped to the representable range.
func bandEdges(center, sampleRate float64) (low, high float64) {
	low = math.Max(20, center-center/2)
	high = math.Min(sampleRate/2-1, center+center/2)
	return low, high
}

// bandpassKernel designs a Hann-windowed linear-phase FIR bandpass for
// the band centered at fc, normalized to unit magnitude response at fc.
func bandpassKernel(center, sampleRate float64) []float64 {
	low, high := bandEdges(center, sampleRate)
	fl := low / sampleRate
	fh := high / sampleRate

	kernel := make([]float64, numTaps)
	mid := (numTaps - 1) / 2

	for n := 0; n < numTaps; n++ {
		k := float64(n - mid)

		var h float64
		if n == mid {
			h = 2 * (fh - fl)
		} else {
			h = (math.Sin(2*math.Pi*fh*k) - math.Sin(2*math.Pi*fl*k)) / (math.Pi * k)
		}

		// Hann window
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(n)/float64(numTaps-1)))
		kernel[n] = h * w
	}

	// Normalize to peak response 1.0 at the center frequency so summed
	// bands carry comparable weight
	gain := kernelResponse(kernel, sampleRate, center)
	if gain > 0 {
		for n := range kernel {
			kernel[n] /= gain
		}
	}

	return kernel
}

// kernelResponse measures the kernel's magnitude response at the given
// frequency from a zero-padded FFT.
func kernelResponse(kernel []float64, sampleRate, freq float64) float64 {
	padded := make([]float64, responseFFTSize)
	copy(padded, kernel)

	fft := fourier.NewFFT(responseFFTSize)
	coeffs := fft.Coefficients(nil, padded)

	bin := int(math.Round(freq / sampleRate * responseFFTSize))
	if bin < 0 {
		bin = 0
	}
	if bin >= len(coeffs) {
		bin = len(coeffs) - 1
	}
	return cmplxAbs(coeffs[bin])
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// convolve filters the buffer with the kernel, compensating the filter's
// group delay so arrival sample positions are preserved. The output has
// the same length as the input.
func convolve(buffer, kernel []float64) []float64 {
	out := make([]float64, len(buffer))
	delay := (len(kernel) - 1) / 2

	for i := range out {
		sum := 0.0
		for k, h := range kernel {
			j := i + delay - k
			if j < 0 || j >= len(buffer) {
				continue
			}
			sum += h * buffer[j]
		}
		out[i] = sum
	}
	return out
}
