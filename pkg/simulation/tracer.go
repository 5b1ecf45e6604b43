package simulation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/df07/go-room-acoustics/pkg/core"
	"github.com/df07/go-room-acoustics/pkg/geometry"
)

// epsHit is the minimum intersection distance; closer hits are treated as
// self-intersection after the reflection offset.
const epsHit = 1e-3

// offsetEps advances the ray origin along the reflected direction to
// escape the surface.
const offsetEps = 1e-3

// phaseFlipMinBounces: with RandomizePhase set, arrivals whose bounce
// count exceeds this get a random ±1 sign.
const phaseFlipMinBounces = 3

// Simulator traces rays from a point source through a mesh enclosure and
// records arrivals at a spherical receiver.
type Simulator struct {
	mesh     *geometry.Mesh
	receiver geometry.ReceiverSphere
	source   core.Vec3
	params   Params
	logger   core.Logger
	seedHash uint64
}

// NewSimulator validates the configuration and prepares a run. The mesh
// and its BVH must already be built.
func NewSimulator(mesh *geometry.Mesh, receiver geometry.ReceiverSphere, source core.Vec3, params Params, logger core.Logger) (*Simulator, error) {
	if mesh == nil {
		return nil, ErrNotReady
	}
	if receiver.Radius <= 0 {
		return nil, fmt.Errorf("%w: receiver radius must be positive, got %f", ErrInvalidParams, receiver.Radius)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = &nopLogger{}
	}

	return &Simulator{
		mesh:     mesh,
		receiver: receiver,
		source:   source,
		params:   params.withDefaults(),
		logger:   logger,
		seedHash: core.SeedFromString(params.Seed),
	}, nil
}

type nopLogger struct{}

func (*nopLogger) Printf(format string, args ...interface{}) {}

// shard collects one worker's output for a batch. Shards are merged in
// chunk order at batch end, so collection needs no locking.
type shard struct {
	arrivals [][]Arrival
	hist     *histogramSet
	aborted  int
	escaped  int
}

func (s *Simulator) newShard() *shard {
	sh := &shard{arrivals: make([][]Arrival, len(s.params.Bands))}
	if s.params.Radiosity.Enabled {
		sh.hist = newHistogramSet(len(s.params.Bands), s.params.Radiosity)
	}
	return sh
}

// Run executes the full simulation. progressFn, if non-nil, is invoked
// after every batch; cancellation is observed between batches only.
func (s *Simulator) Run(ctx context.Context, progressFn func(Progress)) (*Result, error) {
	p := s.params
	numBands := len(p.Bands)

	arrivals := make([][]Arrival, numBands)
	var hist *histogramSet
	if p.Radiosity.Enabled {
		hist = newHistogramSet(numBands, p.Radiosity)
	}

	pool := newWorkerPool(s, p.NumWorkers)
	pool.start()
	defer pool.stop()

	s.logger.Printf("Tracing %d rays in batches of %d (%d workers)\n", p.NumRays, p.BatchSize, pool.numWorkers)

	aborted := 0
	escaped := 0
	totalArrivals := 0
	startTime := time.Now()

	for batchStart := 0; batchStart < p.NumRays; batchStart += p.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		batchEnd := batchStart + p.BatchSize
		if batchEnd > p.NumRays {
			batchEnd = p.NumRays
		}

		shards := pool.runBatch(batchStart, batchEnd)

		// Merge shards in chunk order so collection is deterministic for
		// a fixed worker count
		for _, sh := range shards {
			for b := 0; b < numBands; b++ {
				arrivals[b] = append(arrivals[b], sh.arrivals[b]...)
				totalArrivals += len(sh.arrivals[b])
			}
			if hist != nil {
				hist.add(sh.hist)
			}
			aborted += sh.aborted
			escaped += sh.escaped
		}

		elapsed := time.Since(startTime).Seconds()
		raysDone := batchEnd
		if progressFn != nil {
			progressFn(Progress{
				Fraction:      float64(raysDone) / float64(p.NumRays),
				RaysPerSecond: float64(raysDone) / math.Max(elapsed, 1e-9),
				TotalArrivals: totalArrivals,
			})
		}
	}

	if aborted*100 > p.NumRays {
		return nil, fmt.Errorf("%w: %d of %d rays aborted", ErrInternal, aborted, p.NumRays)
	}

	// Synthesize the diffuse tail and fold it into the arrival lists
	lateCount := 0
	histogramBins := 0
	if hist != nil {
		histogramBins = hist.numBins
		tail := core.NewStream(s.seedHash, core.StreamTail)
		for b := 0; b < numBands; b++ {
			pulses := hist.synthesize(b, p.Radiosity, tail)
			arrivals[b] = append(arrivals[b], pulses...)
			lateCount += len(pulses)
			totalArrivals += len(pulses)
		}
	}

	for b := range arrivals {
		band := arrivals[b]
		sort.SliceStable(band, func(i, j int) bool { return band[i].Time < band[j].Time })
	}

	elapsed := time.Since(startTime).Seconds()
	avgRPS := float64(p.NumRays) / math.Max(elapsed, 1e-9)
	s.logger.Printf("Traced %d rays in %.2fs (%.0f rays/s), %d arrivals (%d late)\n",
		p.NumRays, elapsed, avgRPS, totalArrivals, lateCount)

	return &Result{
		Bands:            p.Bands,
		Arrivals:         arrivals,
		TotalArrivals:    totalArrivals,
		LateArrivalCount: lateCount,
		HistogramBins:    histogramBins,
		AvgRaysPerSecond: avgRPS,
		AbortedRays:      aborted,
		EscapedRays:      escaped,
	}, nil
}

// traceRay follows a single ray through the enclosure, writing arrivals
// and diffuse energy into the worker's shard. amplitudes is worker-local
// scratch, one slot per band.
func (s *Simulator) traceRay(rayIndex int, sh *shard, amplitudes []float64) {
	p := s.params
	rc := p.Radiosity

	random := core.NewRayStream(s.seedHash, rayIndex)
	sampler := core.NewRandomSampler(random)

	origin := s.source
	direction := core.SampleOnUnitSphere(sampler.Get2D())
	totalDistance := 0.0

	for b := range amplitudes {
		amplitudes[b] = 1.0
	}

	for bounce := 0; bounce < p.MaxBounces; bounce++ {
		ray := core.NewRay(origin, direction)

		receiverT, receiverHit := s.receiver.Hit(ray, epsHit)
		meshHit, meshHitOK := s.mesh.ClosestHit(ray, epsHit)

		// Receiver reached first: record an early arrival and end the ray
		if receiverHit && (!meshHitOK || receiverT < meshHit.T) {
			totalDistance += receiverT
			tau := totalDistance / p.SpeedOfSound

			sign := 1.0
			if p.RandomizePhase && bounce > phaseFlipMinBounces && random.Float64() < 0.5 {
				sign = -1.0
			}
			for b := range amplitudes {
				sh.arrivals[b] = append(sh.arrivals[b], Arrival{Time: tau, Amplitude: amplitudes[b] * sign})
			}
			return
		}

		// No wall either: the ray escapes the enclosure
		if !meshHitOK {
			sh.escaped++
			return
		}

		// Unexpected intersection numerics abandon the ray; the run only
		// fails if too many rays do this
		if math.IsNaN(meshHit.T) || !meshHit.Point.IsFinite() {
			sh.aborted++
			return
		}

		totalDistance += meshHit.T

		maxAmplitude := 0.0
		for b, band := range p.Bands {
			amplitudes[b] *= math.Max(0, 1-band.Alpha)
			if amplitudes[b] > maxAmplitude {
				maxAmplitude = amplitudes[b]
			}
		}
		// Fully absorbed in every band; nothing left to carry
		if maxAmplitude == 0 {
			return
		}

		if rc.Enabled && bounce >= rc.HybridBounceThreshold {
			s.accumulateDiffuse(sh, meshHit.Point, totalDistance, amplitudes)
		}

		// Orient the normal against the incident direction so hemisphere
		// sampling stays on the incident side
		normal := meshHit.Normal
		if direction.Dot(normal) > 0 {
			normal = normal.Negate()
		}

		specular := direction.Reflect(normal)
		newDirection := specular
		if rc.Enabled && rc.ScatteringCoeff > 0 {
			diffuse := core.SampleCosineHemisphere(normal, sampler.Get2D())
			newDirection = specular.Multiply(1 - rc.ScatteringCoeff).
				Add(diffuse.Multiply(rc.ScatteringCoeff)).Normalize()
		}

		origin = meshHit.Point.Add(newDirection.Multiply(offsetEps))
		direction = newDirection
	}
}

// accumulateDiffuse adds the receiver-visible energy of a wall hit to the
// shard's per-band histograms.
func (s *Simulator) accumulateDiffuse(sh *shard, point core.Vec3, totalDistance float64, amplitudes []float64) {
	rc := s.params.Radiosity

	dRx := point.Subtract(s.receiver.Center).Length()
	dRx = math.Max(dRx, math.Max(s.receiver.Radius/2, 0.01))

	tauRx := (totalDistance + dRx) / s.params.SpeedOfSound
	if tauRx > rc.MaxTime {
		return
	}

	bin := int(tauRx / rc.HistogramResolution)
	if bin >= sh.hist.numBins {
		bin = sh.hist.numBins - 1
	}

	inverseSquare := 1.0 / math.Max(4*math.Pi*dRx*dRx, 1e-6)
	scatter := math.Max(rc.ScatteringCoeff, 1e-3)

	for b, amplitude := range amplitudes {
		if amplitude <= 0 {
			continue
		}
		energy := amplitude * amplitude * rc.DiffuseGain * inverseSquare * scatter
		if energy > rc.MinEnergyThreshold {
			sh.hist.bins[b][bin] += energy
		}
	}
}
