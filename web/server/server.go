package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/df07/go-room-acoustics/log"
	"github.com/df07/go-room-acoustics/pkg/core"
	"github.com/df07/go-room-acoustics/pkg/geometry"
	"github.com/df07/go-room-acoustics/pkg/impulse"
	"github.com/df07/go-room-acoustics/pkg/simulation"
	"github.com/df07/go-room-acoustics/pkg/worker"
)

// Server exposes the acoustic engine over HTTP with SSE progress
// streaming.
type Server struct {
	port   int
	logger log.Logger
}

// NewServer creates a new web server
func NewServer(port int) *Server {
	return &Server{port: port, logger: log.New("server")}
}

// SimulateRequest is the JSON body of a simulation request: geometry and
// parameters in the worker's wire format.
type SimulateRequest struct {
	Geometry worker.GeometryData `json:"geometry"`
	Params   worker.SimulateData `json:"params"`
}

// Handler returns the server's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/simulate", s.handleSimulate)
	mux.HandleFunc("/api/render-ir", s.handleRenderIR)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Infof("Listening on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleSimulate runs a simulation, streaming worker events via SSE.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Drive a worker with the decoded request; the request context
	// cancels the run when the client disconnects
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	in := make(chan json.RawMessage, 4)
	out := make(chan worker.Event, 64)
	engine := worker.New(log.EnginePrintf{Logger: s.logger})

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		engine.Run(ctx, in, out)
	}()

	send := func(msgType string, data interface{}) {
		payload, err := json.Marshal(worker.Message{Type: msgType, Data: mustMarshal(data)})
		if err != nil {
			s.logger.Errorf("Encoding %s command: %v", msgType, err)
			return
		}
		in <- payload
	}
	send(worker.TypeSetGeometry, req.Geometry)
	send(worker.TypeSimulate, req.Params)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-out:
			if err := s.sendSSEEvent(w, event); err != nil {
				s.logger.Warningf("Client gone: %v", err)
				return
			}
			switch event.EventType() {
			case worker.TypeComplete, worker.TypeError:
				return
			}
		}
	}
}

// handleRenderIR runs a simulation synchronously and returns the
// rendered impulse response as a WAV download.
func (s *Server) handleRenderIR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.runSimulation(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response := impulse.NewRenderer(0).Render(result)

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", `attachment; filename="impulse-response.wav"`)
	if err := impulse.WriteWAV(w, response.Samples, response.SampleRate); err != nil {
		s.logger.Errorf("Writing WAV response: %v", err)
	}
}

// runSimulation builds geometry and runs the engine directly, without
// the message loop.
func (s *Server) runSimulation(ctx context.Context, req SimulateRequest) (*simulation.Result, error) {
	mesh, err := geometry.NewMesh(geometry.MeshData{
		Positions: req.Geometry.RoomGeometry.Positions,
		Indices:   req.Geometry.RoomGeometry.Indices,
	})
	if err != nil {
		return nil, err
	}

	receiver := geometry.NewReceiverSphere(
		core.NewVec3(req.Geometry.EmitterPosition.X, req.Geometry.EmitterPosition.Y, req.Geometry.EmitterPosition.Z),
		req.Geometry.EmitterRadius,
	)
	source := core.NewVec3(0, 0, 0)
	if req.Geometry.SourcePosition != nil {
		source = core.NewVec3(req.Geometry.SourcePosition.X, req.Geometry.SourcePosition.Y, req.Geometry.SourcePosition.Z)
	}

	params, err := req.Params.ToParams()
	if err != nil {
		return nil, err
	}

	sim, err := simulation.NewSimulator(mesh, receiver, source, params, log.EnginePrintf{Logger: s.logger})
	if err != nil {
		return nil, err
	}
	return sim.Run(ctx, nil)
}

// sendSSEEvent writes one worker event as an SSE frame.
func (s *Server) sendSSEEvent(w http.ResponseWriter, event worker.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType(), data); err != nil {
		return err
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
		return nil
	}
	return fmt.Errorf("streaming not supported")
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
