package control

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/drgolem/audioengine/pkg/audioformat"
	"github.com/drgolem/audioengine/pkg/dsp"
	"github.com/drgolem/audioengine/pkg/engine"
	"github.com/drgolem/audioengine/pkg/transport"
)

// notifyBufferSize bounds each client's outbound notification queue. A full
// queue discards its oldest queued notification to make room for the new
// one, so a fresh StateChanged frame is always enqueued.
const notifyBufferSize = 64

// Server is a JSON-over-WebSocket front end for an *engine.Engine: it
// translates inbound request frames into engine commands/queries and
// relays engine events to every connected client as notifications.
// Grounded on original_source/rust-core/src/ipc/server.rs's
// WebSocketServer (one goroutine per connection, a shared client
// registry) and on the teacher corpus's gorilla/websocket usage in
// tphakala-birdnet-go's AudioStreamManager.
type Server struct {
	addr string
	eng  *engine.Engine

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}

	httpServer *http.Server
}

type client struct {
	conn   *websocket.Conn
	send   chan Notification
	writeMu sync.Mutex
}

// New constructs a Server bound to addr (e.g. "127.0.0.1:9090") and backed
// by eng. Call Start to accept connections and begin relaying events.
func New(addr string, eng *engine.Engine) *Server {
	return &Server{
		addr: addr,
		eng:  eng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Start begins listening and serving WebSocket connections, and launches
// the event-broadcast loop. It returns once the listener is bound;
// serving happens in background goroutines.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWebSocket)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("control: failed to bind %s: %w", s.addr, err)
	}

	go s.broadcastLoop()
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("control server stopped", "error", err)
		}
	}()

	slog.Info("control server listening", "addr", s.addr)
	return nil
}

// Shutdown closes the listener and every connected client.
func (s *Server) Shutdown() {
	if s.httpServer != nil {
		s.httpServer.Close()
	}
	s.mu.Lock()
	for c := range s.clients {
		c.conn.Close()
	}
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()
}

// broadcastLoop drains the engine's event channel for the server's
// lifetime and fans each event out to every connected client.
func (s *Server) broadcastLoop() {
	for ev := range s.eng.Events() {
		note := eventToNotification(ev)
		s.mu.RLock()
		for c := range s.clients {
			select {
			case c.send <- note:
			default:
				// Drop-oldest policy: pop one stale notification to make
				// room for the new one, whatever its kind.
				select {
				case <-c.send:
				default:
				}
				select {
				case c.send <- note:
				default:
				}
			}
		}
		s.mu.RUnlock()
	}
}

func eventToNotification(ev transport.Event) Notification {
	switch ev.Kind {
	case transport.EventStateChanged:
		return newNotification("player.state_changed", map[string]string{"state": ev.State.String()})
	case transport.EventTrackChanged:
		return newNotification("player.track_changed", map[string]string{"path": ev.Track})
	case transport.EventPositionChanged:
		return newNotification("player.position_changed", map[string]float64{"position": ev.Position.Seconds()})
	case transport.EventBufferUnderrun:
		return newNotification("player.buffer_underrun", nil)
	case transport.EventError:
		return newNotification("error", map[string]string{"message": ev.Err})
	default:
		return newNotification("unknown", nil)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("control: websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan Notification, notifyBufferSize)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	slog.Debug("control: client connected", "remote", conn.RemoteAddr())

	done := make(chan struct{})
	go s.writePump(c, done)
	s.readPump(c)

	close(done)
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	conn.Close()
	slog.Debug("control: client disconnected", "remote", conn.RemoteAddr())
}

func (s *Server) writePump(c *client, done <-chan struct{}) {
	ping := time.NewTicker(25 * time.Second)
	defer ping.Stop()
	for {
		select {
		case note := <-c.send:
			c.writeMu.Lock()
			err := c.conn.WriteJSON(note)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-ping.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) readPump(c *client) {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			s.writeResponse(c, errorResponse("", fmt.Errorf("control: invalid request frame: %w", err)))
			continue
		}
		resp := s.dispatch(req)
		s.writeResponse(c, resp)
	}
}

func (s *Server) writeResponse(c *client, resp Response) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(resp); err != nil {
		slog.Debug("control: write response failed", "error", err)
	}
}

// dispatch executes one request against the engine and returns the
// response frame to send back. Method surface per the distilled command
// table: player.play/pause/stop/seek/load/set_volume/set_eq/enable_dsp/
// get_state/get_position/get_format/get_metrics, output.get_devices/
// set_device/get_volume.
func (s *Server) dispatch(req Request) Response {
	switch req.Method {
	case "player.play":
		s.eng.Play()
		return successResponse(req.ID, nil)
	case "player.pause":
		s.eng.Pause()
		return successResponse(req.ID, nil)
	case "player.stop":
		s.eng.StopPlayback()
		return successResponse(req.ID, nil)
	case "player.seek":
		var p seekParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return errorResponse(req.ID, err)
		}
		s.eng.Seek(time.Duration(p.Seconds * float64(time.Second)))
		return successResponse(req.ID, nil)
	case "player.load":
		var p loadParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return errorResponse(req.ID, err)
		}
		s.eng.LoadTrack(p.Path)
		return successResponse(req.ID, nil)
	case "player.set_volume":
		var p volumeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return errorResponse(req.ID, err)
		}
		s.eng.SetVolume(p.Volume)
		return successResponse(req.ID, nil)
	case "player.set_eq":
		var p eqParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return errorResponse(req.ID, err)
		}
		s.eng.SetEQ(bandsFromGains(p.Bands))
		return successResponse(req.ID, nil)
	case "player.enable_dsp":
		var p dspParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return errorResponse(req.ID, err)
		}
		s.eng.EnableDSP(p.Enabled)
		return successResponse(req.ID, nil)
	case "player.get_state":
		return successResponse(req.ID, stateResult{
			State:    s.eng.State().String(),
			Position: s.eng.Position().Seconds(),
		})
	case "player.get_position":
		return successResponse(req.ID, map[string]float64{"position": s.eng.Position().Seconds()})
	case "player.get_format":
		format, ok := s.eng.Format()
		if !ok {
			return errorResponse(req.ID, fmt.Errorf("control: no track loaded"))
		}
		return successResponse(req.ID, formatResult{
			SampleRate: format.SampleRate,
			Channels:   format.Channels,
			Encoding:   encodingName(format.Encoding),
		})
	case "player.get_metrics":
		stats := s.eng.ClockStats()
		return successResponse(req.ID, metricsResult{
			BufferUnderruns: s.eng.Underruns(),
			FramesOutput:    s.eng.FramesOutput(),
			LatencyMs:       s.eng.LatencyMs(),
			DriftPPM:        stats.DriftPPM,
			JitterNs:        stats.JitterNs,
		})
	case "output.get_devices":
		devices, err := s.eng.DeviceList()
		if err != nil {
			return errorResponse(req.ID, err)
		}
		result := make([]deviceInfoResult, len(devices))
		for i, d := range devices {
			result[i] = deviceInfoResult{
				Index:             d.Index,
				Name:              d.Name,
				HostAPI:           d.HostAPI,
				MaxOutputChannels: d.MaxOutputChannels,
				DefaultSampleRate: d.DefaultSampleRate,
			}
		}
		return successResponse(req.ID, result)
	case "output.set_device":
		var p deviceParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return errorResponse(req.ID, err)
		}
		s.eng.SetDevice(p.Index)
		return successResponse(req.ID, nil)
	case "output.get_volume":
		return successResponse(req.ID, map[string]float32{"volume": s.eng.Volume()})
	default:
		return errorResponse(req.ID, fmt.Errorf("control: unknown method %q", req.Method))
	}
}

func encodingName(enc audioformat.Encoding) string {
	return enc.String()
}

// isoGraphicBandsHz is the standard ISO 10-band graphic-EQ center-frequency
// ladder. player.set_eq's wire format is a flat gain array (f32[]); each
// gain is paired with the ladder entry at the same index, same convention
// as a hardware graphic EQ's slider bank.
var isoGraphicBandsHz = [...]float64{31, 62, 125, 250, 500, 1000, 2000, 4000, 8000, 16000}

func bandsFromGains(gains []float32) []dsp.Band {
	n := len(gains)
	if n > len(isoGraphicBandsHz) {
		n = len(isoGraphicBandsHz)
	}
	bands := make([]dsp.Band, n)
	for i := 0; i < n; i++ {
		bands[i] = dsp.Band{FrequencyHz: isoGraphicBandsHz[i], GainDb: float64(gains[i]), Q: 1.0}
	}
	return bands
}
