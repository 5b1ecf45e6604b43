package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/cwbudde/algo-dsp/measure/ir"

	"github.com/df07/go-room-acoustics/log"
	"github.com/df07/go-room-acoustics/pkg/config"
	"github.com/df07/go-room-acoustics/pkg/core"
	"github.com/df07/go-room-acoustics/pkg/geometry"
	"github.com/df07/go-room-acoustics/pkg/impulse"
	"github.com/df07/go-room-acoustics/pkg/simulation"
)

var logger = log.New("room-acoustics")

var CLI struct {
	Verbose  bool        `name:"verbose" short:"v" help:"Enable debug logging"`
	Simulate SimulateCmd `cmd:"" help:"Trace a room and render its impulse response"`
}

type SimulateCmd struct {
	Config string `arg:"" name:"config" help:"YAML simulation config"`
	Output string `name:"output" short:"o" default:"ir.wav" help:"Output WAV path"`
}

func (c SimulateCmd) Run() error {
	cfg, err := config.LoadFromFile(c.Config)
	if err != nil {
		return err
	}

	params, err := cfg.Params()
	if err != nil {
		return err
	}

	roomCenter := core.NewVec3(cfg.Room.Width/2, cfg.Room.Height/2, cfg.Room.Depth/2)
	roomSize := core.NewVec3(cfg.Room.Width, cfg.Room.Height, cfg.Room.Depth)
	mesh, err := geometry.NewBoxMesh(roomCenter, roomSize)
	if err != nil {
		return err
	}
	logger.Infof("Room %gx%gx%g m, %d triangles", cfg.Room.Width, cfg.Room.Height, cfg.Room.Depth, mesh.TriangleCount())

	receiver := geometry.NewReceiverSphere(cfg.Receiver.Position.Vec3(), cfg.Receiver.Radius)
	sim, err := simulation.NewSimulator(mesh, receiver, cfg.Source.Vec3(), params, log.EnginePrintf{Logger: logger})
	if err != nil {
		return err
	}

	// Ctrl-C cancels between batches
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	lastPercent := -10
	result, err := sim.Run(ctx, func(p simulation.Progress) {
		percent := int(p.Fraction * 100)
		if percent >= lastPercent+10 {
			logger.Infof("%3d%% - %.0f rays/s, %d arrivals", percent, p.RaysPerSecond, p.TotalArrivals)
			lastPercent = percent
		}
	})
	if err != nil {
		return err
	}

	response := impulse.NewRenderer(cfg.SampleRate).Render(result)
	if err := impulse.WriteWAVFile(c.Output, response); err != nil {
		return err
	}
	logger.Infof("Wrote %s (%.2fs at %d Hz)", c.Output, response.Duration(), response.SampleRate)

	printMetrics(response)
	return nil
}

// printMetrics reports standard room-acoustics figures of the rendered IR.
func printMetrics(response *impulse.ImpulseResponse) {
	analyzer := ir.NewAnalyzer(float64(response.SampleRate))
	metrics, err := analyzer.Analyze(response.Samples)
	if err != nil {
		logger.Warningf("IR analysis failed: %v", err)
		return
	}

	fmt.Printf("\nImpulse response metrics:\n")
	fmt.Printf("  RT60: %.2f s  (T20 %.2f, T30 %.2f, EDT %.2f)\n", metrics.RT60, metrics.T20, metrics.T30, metrics.EDT)
	fmt.Printf("  C50:  %.1f dB   C80: %.1f dB\n", metrics.C50, metrics.C80)
	fmt.Printf("  D50:  %.2f      center time: %.0f ms\n", metrics.D50, metrics.CenterTime*1000)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("room-acoustics"),
		kong.Description("Acoustic Monte-Carlo ray tracer: room impulse responses from mesh enclosures"),
	)
	if CLI.Verbose {
		log.SetLevel(log.Debug)
	}
	if err := ctx.Run(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
