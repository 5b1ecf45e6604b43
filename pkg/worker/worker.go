package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/df07/go-room-acoustics/pkg/core"
	"github.com/df07/go-room-acoustics/pkg/geometry"
	"github.com/df07/go-room-acoustics/pkg/simulation"
)

// ErrBusy is reported when a command arrives that cannot run while a
// simulation is in flight.
var ErrBusy = errors.New("worker: simulation already running")

// ErrUnknownMessage is reported for unrecognized command types.
var ErrUnknownMessage = errors.New("worker: unknown message type")

// Worker owns the simulation state machine: it accepts commands, builds
// geometry, drives simulations off the caller's goroutine, and streams
// events back. One Worker handles one command stream.
type Worker struct {
	logger   core.Logger
	mesh     *geometry.Mesh
	receiver geometry.ReceiverSphere
	source   core.Vec3

	// In-flight simulation bookkeeping, touched only by the Run loop
	runDone   chan struct{}
	cancelRun context.CancelFunc
}

// New creates a worker. logger may be nil.
func New(logger core.Logger) *Worker {
	return &Worker{logger: logger}
}

// Run processes commands from in until terminate, context cancellation,
// or channel close. Events are delivered to out in emission order;
// progress events are dropped rather than block a slow reader.
func (w *Worker) Run(ctx context.Context, in <-chan json.RawMessage, out chan<- Event) {
	for {
		select {
		case <-ctx.Done():
			w.stopSimulation()
			return
		case raw, ok := <-in:
			if !ok {
				w.stopSimulation()
				return
			}
			if exit := w.handle(ctx, raw, out); exit {
				return
			}
		}
	}
}

// handle dispatches one command. Returns true when the worker should exit.
func (w *Worker) handle(ctx context.Context, raw json.RawMessage, out chan<- Event) bool {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		out <- newErrorEvent(fmt.Errorf("worker: malformed message: %w", err))
		return false
	}

	switch msg.Type {
	case TypeInit:
		out <- newReadyEvent()

	case TypeSetGeometry:
		w.handleSetGeometry(msg.Data, out)

	case TypeSimulate:
		w.handleSimulate(ctx, msg.Data, out)

	case TypeCancel:
		// Soft cancel: stop the current run, keep everything else
		w.stopSimulation()

	case TypeTerminate:
		// Terminate acts as a cancel while a simulation is running and
		// geometry stays usable; when idle it disposes and exits
		if w.runDone != nil && !w.runFinished() {
			w.stopSimulation()
			return false
		}
		w.stopSimulation()
		w.mesh = nil
		return true

	default:
		out <- newErrorEvent(fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type))
	}
	return false
}

func (w *Worker) handleSetGeometry(data json.RawMessage, out chan<- Event) {
	if w.runDone != nil && !w.runFinished() {
		out <- newErrorEvent(ErrBusy)
		return
	}

	var geo GeometryData
	if err := json.Unmarshal(data, &geo); err != nil {
		out <- newErrorEvent(fmt.Errorf("%w: %v", geometry.ErrInvalidGeometry, err))
		return
	}

	mesh, err := geometry.NewMesh(geometry.MeshData{
		Positions: geo.RoomGeometry.Positions,
		Indices:   geo.RoomGeometry.Indices,
	})
	if err != nil {
		out <- newErrorEvent(err)
		return
	}

	w.mesh = mesh
	w.receiver = geometry.NewReceiverSphere(
		core.NewVec3(geo.EmitterPosition.X, geo.EmitterPosition.Y, geo.EmitterPosition.Z),
		geo.EmitterRadius,
	)
	w.source = core.NewVec3(0, 0, 0)
	if geo.SourcePosition != nil {
		w.source = core.NewVec3(geo.SourcePosition.X, geo.SourcePosition.Y, geo.SourcePosition.Z)
	}

	if w.logger != nil {
		w.logger.Printf("Geometry set: %d triangles, receiver radius %.2f\n", mesh.TriangleCount(), geo.EmitterRadius)
	}
	out <- newGeometrySetEvent()
}

func (w *Worker) handleSimulate(ctx context.Context, data json.RawMessage, out chan<- Event) {
	if w.runDone != nil && !w.runFinished() {
		out <- newErrorEvent(ErrBusy)
		return
	}
	if w.mesh == nil {
		out <- newErrorEvent(simulation.ErrNotReady)
		return
	}

	var simData SimulateData
	if err := json.Unmarshal(data, &simData); err != nil {
		out <- newErrorEvent(fmt.Errorf("%w: %v", simulation.ErrInvalidParams, err))
		return
	}

	params, err := simData.ToParams()
	if err != nil {
		out <- newErrorEvent(err)
		return
	}

	sim, err := simulation.NewSimulator(w.mesh, w.receiver, w.source, params, w.logger)
	if err != nil {
		out <- newErrorEvent(err)
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.runDone = done
	w.cancelRun = cancel

	go func() {
		defer close(done)
		defer cancel()

		result, err := sim.Run(runCtx, func(p simulation.Progress) {
			event := ProgressEvent{
				Type:            TypeProgress,
				Progress:        p.Fraction,
				RaysPerSecond:   int(p.RaysPerSecond),
				CurrentArrivals: p.TotalArrivals,
			}
			// Never block the tracing loop on a slow reader
			select {
			case out <- event:
			default:
			}
		})

		if err != nil {
			// Cancellation is silent: no complete, no error
			if errors.Is(err, simulation.ErrCancelled) {
				return
			}
			select {
			case out <- newErrorEvent(err):
			case <-runCtx.Done():
			}
			return
		}

		select {
		case out <- newCompleteEvent(result, simData.UseFreqDependent, simData.RRConfig):
		case <-runCtx.Done():
		}
	}()
}

// runFinished non-blockingly checks whether the in-flight simulation has
// completed, clearing the bookkeeping when it has.
func (w *Worker) runFinished() bool {
	select {
	case <-w.runDone:
		w.runDone = nil
		w.cancelRun = nil
		return true
	default:
		return false
	}
}

// stopSimulation cancels any in-flight run and waits for it to drain.
// Cancellation is observed between batches, so this returns promptly.
func (w *Worker) stopSimulation() {
	if w.runDone == nil {
		return
	}
	w.cancelRun()
	<-w.runDone
	w.runDone = nil
	w.cancelRun = nil
}
