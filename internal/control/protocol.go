// Package control implements a JSON-over-WebSocket request/response and
// notification server fronting an engine.Engine. Message schema grounded
// on original_source/rust-core/src/ipc/protocol.rs's Message/Request/
// Response/Notification enums, re-expressed as Go structs keyed by a
// "method" string rather than a tagged Rust enum.
package control

import "encoding/json"

// Request is an inbound client frame. Method selects the command; Params
// holds its method-specific payload, decoded lazily by the handler.
type Request struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the reply to a single Request, correlated by ID.
type Response struct {
	ID     string      `json:"id,omitempty"`
	Status string      `json:"status"` // "success" or "error"
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func successResponse(id string, result interface{}) Response {
	return Response{ID: id, Status: "success", Result: result}
}

func errorResponse(id string, err error) Response {
	return Response{ID: id, Status: "error", Error: err.Error()}
}

// Notification is an unsolicited server-to-client frame reporting an
// Engine event. Framed as {"type":"event", "event": ..., "data": ...} per
// the distilled command surface.
type Notification struct {
	Type  string      `json:"type"`
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

func newNotification(event string, data interface{}) Notification {
	return Notification{Type: "event", Event: event, Data: data}
}

// Request payload shapes, one per method that takes parameters.

type seekParams struct {
	Seconds float64 `json:"seconds"`
}

type loadParams struct {
	Path string `json:"path"`
}

type volumeParams struct {
	Volume float32 `json:"volume"`
}

type eqParams struct {
	Bands []float32 `json:"bands"`
}

type dspParams struct {
	Enabled bool `json:"enabled"`
}

type deviceParams struct {
	Index int `json:"index"`
}

// Response payload shapes.

type stateResult struct {
	State    string  `json:"state"`
	Position float64 `json:"position"`
}

type formatResult struct {
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Encoding   string `json:"encoding"`
}

type deviceInfoResult struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	HostAPI           string  `json:"host_api"`
	MaxOutputChannels int     `json:"max_output_channels"`
	DefaultSampleRate float64 `json:"default_sample_rate"`
}

type metricsResult struct {
	BufferUnderruns uint64  `json:"buffer_underruns"`
	FramesOutput    uint64  `json:"frames_output"`
	LatencyMs       float64 `json:"latency_ms"`
	JitterNs        float64 `json:"jitter_ns"`
	DriftPPM        float64 `json:"drift_ppm"`
}
