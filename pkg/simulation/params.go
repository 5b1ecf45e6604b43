package simulation

import (
	"fmt"
	"math"
	"sort"
)

// DefaultSpeedOfSound is the propagation speed used to convert path
// length to arrival time, in m/s.
const DefaultSpeedOfSound = 343.0

// DefaultBatchSize is the number of rays traced between scheduler yields.
const DefaultBatchSize = 4096

// DefaultBandCenters is the band set used when the caller does not
// provide one.
var DefaultBandCenters = []float64{200, 800, 3200, 10000}

// Band is one frequency band of the simulation: a center frequency and
// the wall absorption coefficient applied per reflection.
type Band struct {
	Center float64 // Hz
	Alpha  float64 // absorption coefficient in [0, 1]
}

// RadiosityConfig controls the hybrid diffuse tail model.
type RadiosityConfig struct {
	Enabled               bool
	ScatteringCoeff       float64 // specular/diffuse mix in [0, 1]
	HistogramResolution   float64 // histogram bin width Δt, seconds
	MaxTime               float64 // tail horizon T_max, seconds
	HybridBounceThreshold int     // bounce index at which diffuse accumulation begins
	PoissonDensity        float64 // λ_d mapping bin energy to pulse count
	DiffuseGain           float64 // global gain g_d for diffuse energy
	MinEnergyThreshold    float64 // energies below this are dropped
}

// DefaultRadiosityConfig returns the tail configuration used when the
// caller enables radiosity without tuning it.
func DefaultRadiosityConfig() RadiosityConfig {
	return RadiosityConfig{
		Enabled:               true,
		ScatteringCoeff:       0.3,
		HistogramResolution:   0.0025,
		MaxTime:               3.0,
		HybridBounceThreshold: 3,
		PoissonDensity:        10,
		DiffuseGain:           1.0,
		MinEnergyThreshold:    1e-9,
	}
}

// Params configures one simulation invocation.
type Params struct {
	NumRays        int
	MaxBounces     int
	Bands          []Band
	Seed           string
	SpeedOfSound   float64 // 0 means DefaultSpeedOfSound
	BatchSize      int     // 0 means DefaultBatchSize
	NumWorkers     int     // 0 means runtime.NumCPU()
	RandomizePhase bool    // random ±1 sign on late specular arrivals
	Radiosity      RadiosityConfig
}

// withDefaults returns a copy with zero-valued knobs filled in and the
// band set sorted by ascending center frequency.
func (p Params) withDefaults() Params {
	if p.SpeedOfSound == 0 {
		p.SpeedOfSound = DefaultSpeedOfSound
	}
	if p.BatchSize == 0 {
		p.BatchSize = DefaultBatchSize
	}
	bands := make([]Band, len(p.Bands))
	copy(bands, p.Bands)
	sort.Slice(bands, func(i, j int) bool { return bands[i].Center < bands[j].Center })
	p.Bands = bands
	return p
}

// Validate checks every parameter against its documented range.
func (p Params) Validate() error {
	if p.NumRays <= 0 {
		return fmt.Errorf("%w: numRays must be positive, got %d", ErrInvalidParams, p.NumRays)
	}
	if p.MaxBounces <= 0 {
		return fmt.Errorf("%w: maxBounces must be positive, got %d", ErrInvalidParams, p.MaxBounces)
	}
	if p.BatchSize < 0 {
		return fmt.Errorf("%w: batchSize must not be negative, got %d", ErrInvalidParams, p.BatchSize)
	}
	if p.SpeedOfSound < 0 {
		return fmt.Errorf("%w: speedOfSound must not be negative, got %f", ErrInvalidParams, p.SpeedOfSound)
	}
	if len(p.Bands) == 0 {
		return fmt.Errorf("%w: empty band set", ErrInvalidParams)
	}
	for _, band := range p.Bands {
		if band.Center <= 0 {
			return fmt.Errorf("%w: band center %f must be positive", ErrInvalidParams, band.Center)
		}
		if band.Alpha < 0 || band.Alpha > 1 || math.IsNaN(band.Alpha) {
			return fmt.Errorf("%w: absorption %f for band %.0f Hz outside [0, 1]", ErrInvalidParams, band.Alpha, band.Center)
		}
	}
	if p.Radiosity.Enabled {
		return p.Radiosity.validate()
	}
	return nil
}

func (rc RadiosityConfig) validate() error {
	if rc.ScatteringCoeff < 0 || rc.ScatteringCoeff > 1 {
		return fmt.Errorf("%w: scatteringCoeff %f outside [0, 1]", ErrInvalidParams, rc.ScatteringCoeff)
	}
	if rc.HistogramResolution < 5e-4 {
		return fmt.Errorf("%w: histogramResolution %f below minimum 5e-4 s", ErrInvalidParams, rc.HistogramResolution)
	}
	if rc.MaxTime < rc.HistogramResolution {
		return fmt.Errorf("%w: maxTime %f shorter than one histogram bin", ErrInvalidParams, rc.MaxTime)
	}
	if rc.HybridBounceThreshold < 0 || rc.HybridBounceThreshold > 64 {
		return fmt.Errorf("%w: hybridBounceThreshold %d outside [0, 64]", ErrInvalidParams, rc.HybridBounceThreshold)
	}
	if rc.PoissonDensity < 0.1 {
		return fmt.Errorf("%w: poissonDensity %f below minimum 0.1", ErrInvalidParams, rc.PoissonDensity)
	}
	if rc.DiffuseGain < 0.01 {
		return fmt.Errorf("%w: diffuseGain %f below minimum 0.01", ErrInvalidParams, rc.DiffuseGain)
	}
	if rc.MinEnergyThreshold < 1e-12 || rc.MinEnergyThreshold > 1e-3 {
		return fmt.Errorf("%w: minEnergyThreshold %g outside [1e-12, 1e-3]", ErrInvalidParams, rc.MinEnergyThreshold)
	}
	return nil
}

// Arrival is one recorded ray arrival at the receiver: a time in seconds
// and a signed pressure-like amplitude.
type Arrival struct {
	Time      float64
	Amplitude float64
}

// Progress describes the state of a running simulation after a batch.
type Progress struct {
	Fraction      float64 // rays completed / rays requested
	RaysPerSecond float64
	TotalArrivals int
}

// Result is the outcome of one simulation run. Arrivals are parallel to
// Bands and sorted by ascending time.
type Result struct {
	Bands            []Band
	Arrivals         [][]Arrival
	TotalArrivals    int
	LateArrivalCount int
	HistogramBins    int
	AvgRaysPerSecond float64
	AbortedRays      int
	EscapedRays      int
}
