package worker

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/df07/go-room-acoustics/pkg/simulation"
)

// Message is an incoming command envelope. Data is decoded per command.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Command types accepted by the worker.
const (
	TypeInit        = "init"
	TypeSetGeometry = "setGeometry"
	TypeSimulate    = "simulate"
	TypeCancel      = "cancel"
	TypeTerminate   = "terminate"
)

// Event types emitted by the worker.
const (
	TypeReady       = "ready"
	TypeGeometrySet = "geometrySet"
	TypeProgress    = "progress"
	TypeComplete    = "complete"
	TypeError       = "error"
)

// Point is a JSON {x,y,z} position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// RoomGeometry is raw mesh data. Normals are accepted for compatibility
// with mesh-producing callers but face normals are recomputed from the
// winding.
type RoomGeometry struct {
	Positions []float64 `json:"positions"`
	Normals   []float64 `json:"normals,omitempty"`
	Indices   []int     `json:"indices,omitempty"`
}

// GeometryData is the payload of a setGeometry command. The emitter
// sphere is the listening volume; sourcePosition, when present, moves the
// emitting point away from the origin.
type GeometryData struct {
	RoomGeometry    RoomGeometry `json:"roomGeometry"`
	EmitterRadius   float64      `json:"emitterRadius"`
	EmitterPosition Point        `json:"emitterPosition"`
	SourcePosition  *Point       `json:"sourcePosition,omitempty"`
}

// RRConfigData mirrors simulation.RadiosityConfig on the wire.
type RRConfigData struct {
	Enabled               bool    `json:"enabled"`
	ScatteringCoeff       float64 `json:"scatteringCoeff"`
	HistogramResolution   float64 `json:"histogramResolution"`
	MaxTime               float64 `json:"maxTime"`
	HybridBounceThreshold int     `json:"hybridBounceThreshold"`
	PoissonDensity        float64 `json:"poissonDensity"`
	MinEnergyThreshold    float64 `json:"minEnergyThreshold"`
	DiffuseGain           float64 `json:"diffuseGain"`
}

// SimulateData is the payload of a simulate command.
type SimulateData struct {
	NumRays          int                `json:"numRays"`
	MaxBounces       int                `json:"maxBounces"`
	UseFreqDependent bool               `json:"useFreqDependent"`
	AbsorptionCoeffs map[string]float64 `json:"absorptionCoeffs"`
	Seed             string             `json:"seed"`
	SpeedOfSound     float64            `json:"speedOfSound"`
	BatchSize        int                `json:"batchSize"`
	RandomizePhase   bool               `json:"randomizePhase,omitempty"`
	RRConfig         RRConfigData       `json:"rrConfig"`
}

// singleBandCenter labels the one band used when the caller disables
// frequency-dependent absorption.
const singleBandCenter = 1000.0

// ToParams converts wire-format simulation data into validated engine
// parameters. Band centers come from the absorption map keys; with
// frequency dependence off, one band carries the mean coefficient.
func (d SimulateData) ToParams() (simulation.Params, error) {
	var bands []simulation.Band

	if d.UseFreqDependent {
		for key, alpha := range d.AbsorptionCoeffs {
			center, err := strconv.ParseFloat(key, 64)
			if err != nil {
				return simulation.Params{}, fmt.Errorf("%w: absorption key %q is not a frequency", simulation.ErrInvalidParams, key)
			}
			bands = append(bands, simulation.Band{Center: center, Alpha: alpha})
		}
		sort.Slice(bands, func(i, j int) bool { return bands[i].Center < bands[j].Center })
	} else {
		mean := 0.0
		for _, alpha := range d.AbsorptionCoeffs {
			mean += alpha
		}
		if len(d.AbsorptionCoeffs) > 0 {
			mean /= float64(len(d.AbsorptionCoeffs))
		}
		bands = []simulation.Band{{Center: singleBandCenter, Alpha: mean}}
	}

	params := simulation.Params{
		NumRays:        d.NumRays,
		MaxBounces:     d.MaxBounces,
		Bands:          bands,
		Seed:           d.Seed,
		SpeedOfSound:   d.SpeedOfSound,
		BatchSize:      d.BatchSize,
		RandomizePhase: d.RandomizePhase,
		Radiosity: simulation.RadiosityConfig{
			Enabled:               d.RRConfig.Enabled,
			ScatteringCoeff:       d.RRConfig.ScatteringCoeff,
			HistogramResolution:   d.RRConfig.HistogramResolution,
			MaxTime:               d.RRConfig.MaxTime,
			HybridBounceThreshold: d.RRConfig.HybridBounceThreshold,
			PoissonDensity:        d.RRConfig.PoissonDensity,
			MinEnergyThreshold:    d.RRConfig.MinEnergyThreshold,
			DiffuseGain:           d.RRConfig.DiffuseGain,
		},
	}
	return params, params.Validate()
}

// Event is an outgoing message; EventType returns its wire type tag.
type Event interface {
	EventType() string
}

// ReadyEvent acknowledges init.
type ReadyEvent struct {
	Type string `json:"type"`
}

// GeometrySetEvent acknowledges setGeometry.
type GeometrySetEvent struct {
	Type string `json:"type"`
}

// ProgressEvent streams batch progress during a simulation.
type ProgressEvent struct {
	Type            string  `json:"type"`
	Progress        float64 `json:"progress"`
	RaysPerSecond   int     `json:"raysPerSecond"`
	CurrentArrivals int     `json:"currentArrivals"`
}

// ArrivalData is one arrival on the wire.
type ArrivalData struct {
	Time      float64 `json:"time"`
	Amplitude float64 `json:"amplitude"`
}

// RadiosityReport summarizes the late-tail synthesis in a complete event.
type RadiosityReport struct {
	Enabled          bool         `json:"enabled"`
	LateArrivalCount int          `json:"lateArrivalCount"`
	HistogramBins    int          `json:"histogramBins"`
	RRConfig         RRConfigData `json:"rrConfig"`
}

// CompleteEvent carries the final simulation result. ArrivalsByBand is
// used with frequency-dependent absorption; Arrivals otherwise.
type CompleteEvent struct {
	Type             string                   `json:"type"`
	ArrivalsByBand   map[string][]ArrivalData `json:"arrivalsByBand,omitempty"`
	Arrivals         []ArrivalData            `json:"arrivals,omitempty"`
	FreqBands        []int                    `json:"freqBands"`
	TotalArrivals    int                      `json:"totalArrivals"`
	AvgRaysPerSecond int                      `json:"avgRaysPerSecond"`
	RayRadiosity     RadiosityReport          `json:"rayRadiosity"`
}

// ErrorEvent reports a recoverable failure; the worker keeps its state.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func (ReadyEvent) EventType() string       { return TypeReady }
func (GeometrySetEvent) EventType() string { return TypeGeometrySet }
func (ProgressEvent) EventType() string    { return TypeProgress }
func (CompleteEvent) EventType() string    { return TypeComplete }
func (ErrorEvent) EventType() string       { return TypeError }

func newReadyEvent() ReadyEvent             { return ReadyEvent{Type: TypeReady} }
func newGeometrySetEvent() GeometrySetEvent { return GeometrySetEvent{Type: TypeGeometrySet} }

func newErrorEvent(err error) ErrorEvent {
	return ErrorEvent{Type: TypeError, Error: err.Error()}
}

// newCompleteEvent converts an engine result into its wire form.
func newCompleteEvent(result *simulation.Result, useFreqDependent bool, rrConfig RRConfigData) CompleteEvent {
	event := CompleteEvent{
		Type:             TypeComplete,
		TotalArrivals:    result.TotalArrivals,
		AvgRaysPerSecond: int(result.AvgRaysPerSecond),
		RayRadiosity: RadiosityReport{
			Enabled:          rrConfig.Enabled,
			LateArrivalCount: result.LateArrivalCount,
			HistogramBins:    result.HistogramBins,
			RRConfig:         rrConfig,
		},
	}

	for _, band := range result.Bands {
		event.FreqBands = append(event.FreqBands, int(band.Center))
	}

	if useFreqDependent {
		event.ArrivalsByBand = make(map[string][]ArrivalData, len(result.Bands))
		for b, band := range result.Bands {
			event.ArrivalsByBand[strconv.Itoa(int(band.Center))] = toArrivalData(result.Arrivals[b])
		}
	} else {
		event.Arrivals = toArrivalData(result.Arrivals[0])
	}
	return event
}

func toArrivalData(arrivals []simulation.Arrival) []ArrivalData {
	out := make([]ArrivalData, len(arrivals))
	for i, arrival := range arrivals {
		out[i] = ArrivalData{Time: arrival.Time, Amplitude: arrival.Amplitude}
	}
	return out
}
