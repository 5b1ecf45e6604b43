// Package config loads simulation descriptions for the CLI from YAML.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-room-acoustics/pkg/core"
	"github.com/df07/go-room-acoustics/pkg/simulation"
)

// Position is a 3D point in a config file.
type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Vec3 converts the config position to an engine vector.
func (p Position) Vec3() core.Vec3 {
	return core.NewVec3(p.X, p.Y, p.Z)
}

// Room describes the box enclosure the CLI simulates. External mesh
// formats stay out of scope; the box covers the common measurement case.
type Room struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Depth  float64 `yaml:"depth"`
}

// Receiver describes the listening sphere.
type Receiver struct {
	Position Position `yaml:"position"`
	Radius   float64  `yaml:"radius"`
}

// Radiosity mirrors the engine's tail configuration in YAML.
type Radiosity struct {
	Enabled               bool    `yaml:"enabled"`
	ScatteringCoeff       float64 `yaml:"scatteringCoeff"`
	HistogramResolution   float64 `yaml:"histogramResolution"`
	MaxTime               float64 `yaml:"maxTime"`
	HybridBounceThreshold int     `yaml:"hybridBounceThreshold"`
	PoissonDensity        float64 `yaml:"poissonDensity"`
	DiffuseGain           float64 `yaml:"diffuseGain"`
	MinEnergyThreshold    float64 `yaml:"minEnergyThreshold"`
}

// Config is a complete CLI simulation description.
type Config struct {
	Room       Room                `yaml:"room"`
	Source     Position            `yaml:"source"`
	Receiver   Receiver            `yaml:"receiver"`
	NumRays    int                 `yaml:"numRays"`
	MaxBounces int                 `yaml:"maxBounces"`
	Absorption map[float64]float64 `yaml:"absorption"` // band center Hz -> alpha
	Seed       string              `yaml:"seed"`
	BatchSize  int                 `yaml:"batchSize"`
	SampleRate int                 `yaml:"sampleRate"`
	Radiosity  *Radiosity          `yaml:"radiosity,omitempty"`
}

// LoadFromFile reads and decodes a YAML config.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Params converts the config to validated engine parameters.
func (c *Config) Params() (simulation.Params, error) {
	var bands []simulation.Band
	if len(c.Absorption) > 0 {
		for center, alpha := range c.Absorption {
			bands = append(bands, simulation.Band{Center: center, Alpha: alpha})
		}
		sort.Slice(bands, func(i, j int) bool { return bands[i].Center < bands[j].Center })
	} else {
		for _, center := range simulation.DefaultBandCenters {
			bands = append(bands, simulation.Band{Center: center, Alpha: 0.2})
		}
	}

	params := simulation.Params{
		NumRays:    c.NumRays,
		MaxBounces: c.MaxBounces,
		Bands:      bands,
		Seed:       c.Seed,
		BatchSize:  c.BatchSize,
	}
	if c.Radiosity != nil {
		params.Radiosity = simulation.RadiosityConfig{
			Enabled:               c.Radiosity.Enabled,
			ScatteringCoeff:       c.Radiosity.ScatteringCoeff,
			HistogramResolution:   c.Radiosity.HistogramResolution,
			MaxTime:               c.Radiosity.MaxTime,
			HybridBounceThreshold: c.Radiosity.HybridBounceThreshold,
			PoissonDensity:        c.Radiosity.PoissonDensity,
			DiffuseGain:           c.Radiosity.DiffuseGain,
			MinEnergyThreshold:    c.Radiosity.MinEnergyThreshold,
		}
	}
	return params, params.Validate()
}
