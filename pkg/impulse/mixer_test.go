package impulse

import (
	"context"
	"math"
	"testing"

	"github.com/df07/go-room-acoustics/pkg/core"
	"github.com/df07/go-room-acoustics/pkg/geometry"
	"github.com/df07/go-room-acoustics/pkg/simulation"
)

func TestMixBands_NormalizesToHeadroom(t *testing.T) {
	// Per-band peaks {0.2, 1.4, 0.6, 0.9} in disjoint samples; the summed
	// peak is 1.4 and must land exactly on 0.98
	peaks := []float64{0.2, 1.4, 0.6, 0.9}
	buffers := make([][]float64, len(peaks))
	for b, peak := range peaks {
		buffers[b] = make([]float64, 100)
		buffers[b][b*10] = peak
	}

	mixed := mixBands(buffers)

	maxAbs := 0.0
	for _, sample := range mixed {
		if abs := math.Abs(sample); abs > maxAbs {
			maxAbs = abs
		}
	}
	if math.Abs(maxAbs-0.98) > 1e-12 {
		t.Errorf("Expected mixed peak exactly 0.98, got %.15f", maxAbs)
	}
}

func TestMixBands_ZeroExtendsShorterBuffers(t *testing.T) {
	buffers := [][]float64{
		{1, 0, 0},
		{0, 0, 0, 0, 0.5},
	}
	mixed := mixBands(buffers)

	if len(mixed) != 5 {
		t.Fatalf("Expected length 5, got %d", len(mixed))
	}
	// Relative level is preserved by the scaling
	if math.Abs(mixed[4]/mixed[0]-0.5) > 1e-12 {
		t.Errorf("Expected sample ratio 0.5, got %f", mixed[4]/mixed[0])
	}
}

func TestMixBands_SilenceStaysSilent(t *testing.T) {
	mixed := mixBands([][]float64{make([]float64, 10)})
	for i, sample := range mixed {
		if sample != 0 {
			t.Fatalf("Expected silence, got %f at %d", sample, i)
		}
	}
}

func TestRenderer_EndToEnd(t *testing.T) {
	mesh, err := geometry.NewBoxMesh(core.NewVec3(0, 0, 0), core.NewVec3(10, 10, 10))
	if err != nil {
		t.Fatalf("Failed to build room: %v", err)
	}
	receiver := geometry.NewReceiverSphere(core.NewVec3(3, 0, 0), 0.5)

	params := simulation.Params{
		NumRays:    2000,
		MaxBounces: 20,
		Bands: []simulation.Band{
			{Center: 200, Alpha: 0.1},
			{Center: 800, Alpha: 0.2},
			{Center: 3200, Alpha: 0.3},
			{Center: 10000, Alpha: 0.5},
		},
		Seed:      "render",
		Radiosity: simulation.DefaultRadiosityConfig(),
	}
	sim, err := simulation.NewSimulator(mesh, receiver, core.NewVec3(0, 0, 0), params, nil)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	result, err := sim.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ir := NewRenderer(48000).Render(result)

	if ir.SampleRate != 48000 {
		t.Errorf("Expected sample rate 48000, got %d", ir.SampleRate)
	}
	if len(ir.Bands) != 4 {
		t.Fatalf("Expected 4 band buffers, got %d", len(ir.Bands))
	}
	if ir.Duration() < 1.0 {
		t.Errorf("Expected at least 1s of IR, got %f", ir.Duration())
	}

	peak := 0.0
	for _, sample := range ir.Samples {
		if abs := math.Abs(sample); abs > peak {
			peak = abs
		}
	}
	if math.Abs(peak-0.98) > 1e-9 {
		t.Errorf("Expected IR peak 0.98, got %f", peak)
	}

	for _, band := range ir.Bands {
		if len(band.Samples) != len(ir.Samples) {
			t.Errorf("Band %.0f Hz buffer length %d differs from mix length %d",
				band.Center, len(band.Samples), len(ir.Samples))
		}
	}
}
