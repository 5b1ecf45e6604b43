package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-room-acoustics/pkg/simulation"
)

const fullConfig = `
room:
  width: 10
  height: 3
  depth: 8
source:
  x: 1
  y: 1.5
  z: 1
receiver:
  position:
    x: 5
    y: 1.5
    z: 4
  radius: 0.5
numRays: 20000
maxBounces: 40
absorption:
  200: 0.1
  800: 0.2
  3200: 0.3
  10000: 0.5
seed: abcdef
batchSize: 2048
sampleRate: 48000
radiosity:
  enabled: true
  scatteringCoeff: 0.3
  histogramResolution: 0.0025
  maxTime: 3.0
  hybridBounceThreshold: 3
  poissonDensity: 10
  diffuseGain: 1.0
  minEnergyThreshold: 1e-9
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadFromFile_FullConfig(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Room.Width != 10 || cfg.Room.Height != 3 || cfg.Room.Depth != 8 {
		t.Errorf("Room dimensions wrong: %+v", cfg.Room)
	}
	if cfg.Receiver.Radius != 0.5 {
		t.Errorf("Expected receiver radius 0.5, got %f", cfg.Receiver.Radius)
	}
	if cfg.Seed != "abcdef" {
		t.Errorf("Expected seed abcdef, got %q", cfg.Seed)
	}

	params, err := cfg.Params()
	if err != nil {
		t.Fatalf("Params failed: %v", err)
	}
	if len(params.Bands) != 4 {
		t.Fatalf("Expected 4 bands, got %d", len(params.Bands))
	}
	if params.Bands[0].Center != 200 || params.Bands[3].Center != 10000 {
		t.Errorf("Expected sorted bands, got %v", params.Bands)
	}
	if !params.Radiosity.Enabled || params.Radiosity.PoissonDensity != 10 {
		t.Errorf("Radiosity config not carried through: %+v", params.Radiosity)
	}
}

func TestConfig_DefaultBands(t *testing.T) {
	cfg := &Config{NumRays: 100, MaxBounces: 10, Seed: "x"}
	params, err := cfg.Params()
	if err != nil {
		t.Fatalf("Params failed: %v", err)
	}
	if len(params.Bands) != len(simulation.DefaultBandCenters) {
		t.Errorf("Expected default band set, got %v", params.Bands)
	}
}

func TestConfig_InvalidParamsSurface(t *testing.T) {
	cfg := &Config{NumRays: 0, MaxBounces: 10}
	_, err := cfg.Params()
	if !errors.Is(err, simulation.ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams, got %v", err)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile("/does/not/exist.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadFromFile_Malformed(t *testing.T) {
	if _, err := LoadFromFile(writeConfig(t, "room: [not a map")); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}
