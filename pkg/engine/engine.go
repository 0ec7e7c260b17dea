// Package engine wires the decoder, DSP chain, buffer pool, byte ring,
// bit-perfect negotiator, and output backend into a single command-driven
// playback engine. Exactly one goroutine (the worker) ever touches the
// decoder, DSP chain, or buffer pool; every other goroutine communicates
// with it only through the command channel, mirroring the teacher's
// single-writer-per-resource discipline in pkg/audioplayer and the
// original's crossbeam-channel command queue.
package engine

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drgolem/audioengine/pkg/audioformat"
	"github.com/drgolem/audioengine/pkg/bitperfect"
	"github.com/drgolem/audioengine/pkg/bufferpool"
	"github.com/drgolem/audioengine/pkg/clock"
	"github.com/drgolem/audioengine/pkg/decoder"
	"github.com/drgolem/audioengine/pkg/device"
	"github.com/drgolem/audioengine/pkg/dsp"
	"github.com/drgolem/audioengine/pkg/output"
	"github.com/drgolem/audioengine/pkg/ring"
	"github.com/drgolem/audioengine/pkg/transport"
)

// Recorder receives the engine's metrics samples. Narrowed to exactly
// what the engine and output backend emit, so the concrete Prometheus
// collectors in internal/metrics satisfy it structurally without this
// package importing internal/.
type Recorder interface {
	RecordDecodeError()
	RecordOutputError()
	RecordFramesDecoded(frames uint64)
	RecordFramesOutput(frames uint64)
	RecordBufferUnderrun()
	RecordBufferOverrun()
	RecordLatency(ms float64)
	RecordJitter(ns float64)
	RecordDrift(ppm float64)
	RecordRingFillRatio(ratio float64)
}

type noopRecorder struct{}

func (noopRecorder) RecordDecodeError()            {}
func (noopRecorder) RecordOutputError()            {}
func (noopRecorder) RecordFramesDecoded(uint64)    {}
func (noopRecorder) RecordFramesOutput(uint64)     {}
func (noopRecorder) RecordBufferUnderrun()         {}
func (noopRecorder) RecordBufferOverrun()          {}
func (noopRecorder) RecordLatency(float64)         {}
func (noopRecorder) RecordJitter(float64)          {}
func (noopRecorder) RecordDrift(float64)           {}
func (noopRecorder) RecordRingFillRatio(float64)   {}

// Config holds the engine's tunables. Grounded on
// original_source/rust-core/src/config/audio.rs's AudioConfig.
type Config struct {
	RingBufferSize    uint64        // bytes
	BufferPoolSize    int           // number of pooled buffers
	FramesPerBuffer   int           // decode batch / PortAudio callback size
	TargetBufferLevel float32       // fraction of ring capacity the worker tries to keep full
	CommandPollPeriod time.Duration // how long the worker waits for a command before polling the decode loop
	BitPerfect        bitperfect.Config
	EventQueueSize    int
}

// DefaultConfig matches the original's defaults translated to this
// module's units.
func DefaultConfig() Config {
	return Config{
		RingBufferSize:    256 * 1024,
		BufferPoolSize:    8,
		FramesPerBuffer:   1024,
		TargetBufferLevel: 0.5,
		CommandPollPeriod: 10 * time.Millisecond,
		BitPerfect:        bitperfect.DefaultConfig(),
		EventQueueSize:    64,
	}
}

// Engine is the command-driven playback engine.
type Engine struct {
	cfg Config

	commands chan Command
	events   chan transport.Event

	transport  *transport.Transport
	ring       *ring.Ring
	pool       *bufferpool.Pool
	dspChain   *dsp.Chain
	registry   *device.Registry
	negotiator *bitperfect.Negotiator

	// clockPtr/backendPtr are swapped to a fresh pair by doLoadTrack (worker
	// goroutine) on every track load. atomic.Pointer rather than plain
	// fields because ClockStats/Volume/Underruns/FramesOutput/LatencyMs are
	// called from control-plane goroutines concurrently with that swap.
	clockPtr   atomic.Pointer[clock.Clock]
	backendPtr atomic.Pointer[output.Backend]

	dec          decoder.Decoder
	sourceFormat audioformat.Format
	deliveryInfo device.Info

	// formatMu guards the snapshot the control plane reads via Format();
	// sourceFormat/dec above are otherwise touched only by the worker goroutine.
	formatMu    sync.RWMutex
	hasFormat   bool
	formatSnap  audioformat.Format

	volumeGain         float32
	recorder           Recorder
	lastFramesOut      uint64          // last value of backend.FramesOut() observed by pollClock
	deliverySampleRate atomic.Int64 // sample rate bytes written to the ring drain at; 0 until a track loads

	running atomic.Bool
	wg      sync.WaitGroup
	done    chan struct{}
}

// New constructs an Engine. Call Start to launch its worker goroutine.
func New(cfg Config) *Engine {
	events := make(chan transport.Event, cfg.EventQueueSize)
	registry := device.NewRegistry()

	e := &Engine{
		cfg:        cfg,
		commands:   make(chan Command, 32),
		events:     events,
		transport:  transport.New(events),
		ring:       ring.New(cfg.RingBufferSize),
		dspChain:   dsp.NewChain(),
		registry:   registry,
		negotiator: bitperfect.New(cfg.BitPerfect, registry),
		volumeGain: 1.0,
		recorder:   noopRecorder{},
		done:       make(chan struct{}),
	}
	e.clockPtr.Store(clock.New(44100))
	// Sized for the maximum channel count audioformat.Format allows (8), so
	// every buffer has enough capacity regardless of the loaded track's
	// actual channel count.
	fmt32, _ := audioformat.New(44100, 8, audioformat.EncodingF32)
	e.pool = bufferpool.New(fmt32, cfg.FramesPerBuffer, cfg.BufferPoolSize)
	e.backendPtr.Store(output.New(e.ring, e.clock(), e.onUnderrun, e.onRecovered))
	return e
}

// clock returns the engine's current audio clock. Safe from any goroutine.
func (e *Engine) clock() *clock.Clock { return e.clockPtr.Load() }

// backend returns the engine's current output backend. Safe from any
// goroutine.
func (e *Engine) backend() *output.Backend { return e.backendPtr.Load() }

// Events returns the channel the control plane should drain for
// StateChanged/TrackChanged/PositionChanged/BufferUnderrun/Error
// notifications.
func (e *Engine) Events() <-chan transport.Event { return e.events }

// State returns the transport's current state.
func (e *Engine) State() transport.State { return e.transport.State() }

// Position returns the transport's last-recorded position.
func (e *Engine) Position() time.Duration { return e.transport.Position() }

// Track returns the path of the currently loaded track, or "" if none.
func (e *Engine) Track() string { return e.transport.Track() }

// Format returns the currently loaded track's native (source) format and
// whether a track is loaded at all.
func (e *Engine) Format() (audioformat.Format, bool) {
	e.formatMu.RLock()
	defer e.formatMu.RUnlock()
	return e.formatSnap, e.hasFormat
}

func (e *Engine) setFormatSnapshot(format audioformat.Format, ok bool) {
	e.formatMu.Lock()
	e.formatSnap, e.hasFormat = format, ok
	e.formatMu.Unlock()
}

// Volume returns the engine's current volume gain, as last applied via
// SetVolume.
func (e *Engine) Volume() float32 { return e.backend().Volume() }

// Start launches the worker goroutine. Calling Start twice is a no-op.
func (e *Engine) Start() {
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	e.wg.Add(1)
	go e.run()
	slog.Info("engine worker started")
}

// Stop sends a Shutdown command and blocks until the worker exits.
func (e *Engine) Stop() {
	if !e.running.Load() {
		return
	}
	e.Send(Shutdown())
	e.wg.Wait()
}

// Send enqueues a command for the worker. Blocks only if the command
// channel (capacity 32) is full, which indicates the worker has stalled.
func (e *Engine) Send(cmd Command) {
	e.commands <- cmd
}

// LoadTrack, Play, Pause, Stop, Seek, SetVolume, SetEQ, EnableDSP are
// convenience wrappers over Send for the common commands.
func (e *Engine) LoadTrack(path string) { e.Send(LoadTrack(path)) }
func (e *Engine) Play()                 { e.Send(Play()) }
func (e *Engine) Pause()                { e.Send(Pause()) }
func (e *Engine) StopPlayback()         { e.Send(Stop()) }
func (e *Engine) Seek(pos time.Duration) { e.Send(Seek(pos)) }
func (e *Engine) SetVolume(gain float32) { e.Send(SetVolume(gain)) }
func (e *Engine) SetEQ(bands []dsp.Band) { e.Send(SetEQ(bands)) }
func (e *Engine) EnableDSP(enabled bool) { e.Send(EnableDSP(enabled)) }
func (e *Engine) SetDevice(index int)    { e.Send(SetDevice(index)) }

func (e *Engine) onUnderrun() {
	e.recorder.RecordBufferUnderrun()
	e.transport.NoteUnderrunStart()
}
func (e *Engine) onRecovered()  { e.transport.NoteUnderrunRecovered() }

// run is the worker goroutine: drains commands (bounded wait) and, while
// playing, keeps the ring topped up from the decoder through the DSP
// chain. Grounded on original_source/rust-core/src/audio/engine.rs's
// engine_worker and the teacher's pkg/audioplayer.Player producer loop.
func (e *Engine) run() {
	defer e.wg.Done()
	defer e.running.Store(false)

	decodeScratch := make([]float32, e.cfg.FramesPerBuffer*8)
	processedScratch := make([]float32, e.cfg.FramesPerBuffer*8)

	for {
		select {
		case cmd := <-e.commands:
			if !e.handle(cmd) {
				e.shutdown()
				return
			}
		case <-time.After(e.cfg.CommandPollPeriod):
		}

		e.pollClock()
		e.recordMetrics()

		if e.transport.State() != transport.Playing && e.transport.State() != transport.Buffering {
			continue
		}
		e.fillRing(decodeScratch, processedScratch)
	}
}

// pollClock drives the audio clock from the worker goroutine rather than
// the realtime output callback: it reads the backend's lock-free
// FramesOut counter, feeds the delta since the last poll to Clock.Update
// (which does take a mutex), and remembers the new total. Called once per
// worker loop iteration regardless of transport state, so drift/jitter
// stay current even while paused.
func (e *Engine) pollClock() {
	total := e.backend().FramesOut()
	delta := total - e.lastFramesOut
	e.lastFramesOut = total
	if delta > 0 {
		e.clock().Update(int64(delta))
		e.recorder.RecordFramesOutput(delta)
	}
}

// recordMetrics pushes the gauge-valued samples (ring fill ratio, output
// latency, clock drift/jitter) through the recorder once per worker loop
// tick, so the Prometheus /metrics scrape and player.get_metrics always
// read the same live values.
func (e *Engine) recordMetrics() {
	e.recorder.RecordRingFillRatio(float64(e.RingFillRatio()))
	e.recorder.RecordLatency(e.LatencyMs())
	stats := e.clock().GetStats()
	e.recorder.RecordDrift(stats.DriftPPM)
	e.recorder.RecordJitter(stats.JitterNs)
}

// RingFillRatio returns the fraction of the byte ring currently occupied.
func (e *Engine) RingFillRatio() float32 {
	size := e.ring.Size()
	if size == 0 {
		return 0
	}
	return float32(e.ring.Len()) / float32(size)
}

// LatencyMs estimates the output latency contributed by audio already
// queued in the ring: how long, at the delivery sample rate, the output
// callback will take to drain what's currently buffered. 0 until a track
// has loaded and negotiated a delivery sample rate.
func (e *Engine) LatencyMs() float64 {
	format, ok := e.Format()
	sampleRate := e.deliverySampleRate.Load()
	if !ok || format.Channels == 0 || sampleRate == 0 {
		return 0
	}
	bytesPerFrame := format.Channels * 4 // the ring always carries interleaved float32
	frames := float64(e.ring.Len()) / float64(bytesPerFrame)
	return frames / float64(sampleRate) * 1000
}

// FramesOutput returns the cumulative count of frames the output backend
// has handed to the device, the same counter frames_output_total reports.
func (e *Engine) FramesOutput() uint64 {
	return e.backend().FramesOut()
}

func (e *Engine) shutdown() {
	if e.backend().IsPlaying() {
		e.backend().Stop()
	}
	if e.dec != nil {
		e.dec.Close()
	}
}

func (e *Engine) handle(cmd Command) (keepRunning bool) {
	switch cmd.Kind {
	case CmdLoadTrack:
		e.doLoadTrack(cmd.Path)
	case CmdPlay:
		e.doPlay()
	case CmdPause:
		e.doPause()
	case CmdStop:
		e.doStop()
	case CmdSeek:
		e.doSeek(cmd.Position)
	case CmdSetVolume:
		e.volumeGain = cmd.Volume
		e.backend().SetVolume(cmd.Volume)
	case CmdSetEQ:
		e.doSetEQ(cmd.EQBands)
	case CmdEnableDSP:
		e.dspChain.SetEnabled(cmd.Enabled)
	case CmdSetDevice:
		// Takes effect on the next LoadTrack/Prepare cycle; the currently
		// open output stream is left alone until then.
		e.negotiator.SetPreferredDevice(cmd.DeviceIndex)
	case CmdShutdown:
		return false
	}
	return true
}

func (e *Engine) doLoadTrack(path string) {
	// Carry forward a pending Stopped-state seek when reopening the same
	// track path, per the resolved Stopped->Stopped seek ambiguity (see
	// DESIGN.md): the position is captured before transport.Stop, so
	// reloading the same path resumes from it rather than restarting at
	// frame 0.
	resumeFrom := time.Duration(0)
	if e.transport.Track() == path {
		resumeFrom = e.transport.Position()
	}

	if err := e.transport.Stop(); err != nil {
		slog.Warn("stop before load failed", "error", err)
	}
	if e.backend().IsPlaying() {
		e.backend().Stop()
	}
	if e.dec != nil {
		e.dec.Close()
		e.dec = nil
	}
	e.setFormatSnapshot(audioformat.Format{}, false)

	dec, err := decoder.Open(path)
	if err != nil {
		slog.Error("failed to load track", "path", path, "error", err)
		e.recorder.RecordDecodeError()
		e.transport.Fail(err.Error())
		return
	}

	e.dec = dec
	e.sourceFormat = dec.Format()
	e.setFormatSnapshot(e.sourceFormat, true)

	if resumeFrom > 0 {
		targetFrame := int64(resumeFrom.Seconds() * float64(e.sourceFormat.SampleRate))
		if err := e.dec.Seek(targetFrame); err != nil {
			slog.Warn("decoder does not support resuming seek", "error", err)
			resumeFrom = 0
		}
	}

	deliveryFormat, devInfo, err := e.negotiator.Prepare(e.sourceFormat)
	if err != nil {
		slog.Error("bit-perfect negotiation failed", "error", err)
		e.transport.Fail(err.Error())
		return
	}
	e.deliveryInfo = devInfo
	e.configureResampling(e.sourceFormat, deliveryFormat)

	newClock := clock.New(deliveryFormat.SampleRate)
	e.clockPtr.Store(newClock)
	e.deliverySampleRate.Store(int64(deliveryFormat.SampleRate))
	e.ring.Clear()
	newBackend := output.New(e.ring, newClock, e.onUnderrun, e.onRecovered)
	e.backendPtr.Store(newBackend)
	e.lastFramesOut = 0
	// Force integer delivery for the output stage, matching Open Question 1:
	// the ring always carries float32; only the callback quantizes.
	pcmFormat, ferr := audioformat.New(deliveryFormat.SampleRate, deliveryFormat.Channels, audioformat.EncodingS32)
	if ferr != nil {
		e.transport.Fail(ferr.Error())
		return
	}
	if err := newBackend.Open(devInfo.Index, pcmFormat, e.cfg.FramesPerBuffer); err != nil {
		slog.Error("failed to open output backend", "error", err)
		e.recorder.RecordOutputError()
		e.transport.Fail(err.Error())
		return
	}
	newBackend.SetVolume(e.volumeGain)

	e.transport.SetTrack(path)
	if resumeFrom > 0 {
		e.transport.Seek(resumeFrom)
	}
	slog.Info("track loaded", "path", path, "format", e.sourceFormat.String())
}

// configureResampling adds or removes a "resampler" DSP stage so the data
// written to the ring always matches deliveryFormat's sample rate.
func (e *Engine) configureResampling(source, delivery audioformat.Format) {
	e.dspChain.Remove("resampler")
	if source.SampleRate == delivery.SampleRate {
		return
	}
	r, err := dsp.NewResampler(source.SampleRate, delivery.SampleRate, source.Channels, dsp.QualityHigh)
	if err != nil {
		slog.Error("failed to construct resampler", "error", err)
		return
	}
	e.dspChain.Add(r)
}

func (e *Engine) doPlay() {
	if err := e.transport.Play(); err != nil {
		slog.Warn("play rejected", "error", err)
		return
	}
	if !e.backend().IsPlaying() {
		if err := e.backend().Start(); err != nil {
			slog.Error("failed to start output", "error", err)
			e.transport.Fail(err.Error())
		}
	}
}

func (e *Engine) doPause() {
	if err := e.transport.Pause(); err != nil {
		slog.Warn("pause rejected", "error", err)
		return
	}
	if err := e.backend().Pause(); err != nil {
		slog.Error("failed to pause output", "error", err)
	}
}

func (e *Engine) doStop() {
	if err := e.transport.Stop(); err != nil {
		slog.Warn("stop rejected", "error", err)
		return
	}
	if e.backend().IsPlaying() {
		e.backend().Pause()
	}
	e.ring.Clear()
	e.clock().Reset()
}

// doSeek clears the ring, resets the clock and DSP chain (so a stateful
// resampler/EQ doesn't carry pre-seek samples or filter phase into
// post-seek audio), and seeks the decoder itself when one is loaded. A
// running output stream is paused around the ring clear so the callback
// never consumes concurrently with it, then restarted.
func (e *Engine) doSeek(pos time.Duration) {
	if e.dec == nil {
		e.transport.Seek(pos)
		return
	}
	targetFrame := int64(pos.Seconds() * float64(e.sourceFormat.SampleRate))
	if err := e.dec.Seek(targetFrame); err != nil {
		slog.Warn("decoder does not support seek", "error", err)
	}
	wasPlaying := e.backend().IsPlaying()
	if wasPlaying {
		e.backend().Pause()
	}
	e.ring.Clear()
	e.clock().Reset()
	e.dspChain.Reset()
	e.transport.Seek(pos)
	if wasPlaying {
		if err := e.backend().Start(); err != nil {
			slog.Error("failed to restart output after seek", "error", err)
			e.transport.Fail(err.Error())
		}
	}
}

func (e *Engine) doSetEQ(bands []dsp.Band) {
	e.dspChain.Remove("eq")
	if len(bands) == 0 {
		return
	}
	eq := dsp.NewEqualizer(e.sourceFormat.SampleRate, e.sourceFormat.Channels, bands)
	e.dspChain.Add(eq)
}

// fillRing decodes one batch, runs it through the DSP chain, and writes
// the resulting float32 bytes to the ring, backing off briefly when the
// buffer pool or ring is saturated (mirroring the teacher's producer
// backoff loop).
func (e *Engine) fillRing(decodeScratch, processedScratch []float32) {
	if e.dec == nil {
		return
	}

	level := float32(e.ring.Len()) / float32(e.ring.Size())
	if level >= e.cfg.TargetBufferLevel {
		return
	}

	buf := e.pool.Acquire()
	if buf == nil {
		return // pool exhausted this tick; retry next
	}
	defer e.pool.Release(buf)

	channels := e.sourceFormat.Channels
	maxFrames := e.cfg.FramesPerBuffer
	if need := maxFrames * channels; need > len(decodeScratch) {
		decodeScratch = make([]float32, need)
		processedScratch = make([]float32, need)
	}

	frames, err := e.dec.DecodeNext(decodeScratch, maxFrames)
	if frames == 0 {
		if err != nil {
			slog.Info("track finished", "error", err)
		}
		e.doStop()
		return
	}
	e.recorder.RecordFramesDecoded(uint64(frames))
	n := frames * channels
	in := decodeScratch[:n]
	out := processedScratch[:n]
	if perr := e.dspChain.Process(in, out); perr != nil {
		slog.Error("dsp chain error", "error", perr)
		return
	}

	need := n * 4
	if cap(buf.Data) < need {
		return
	}
	floatsToBytesLE(out, buf.Data[:need])
	buf.Len = need
	written := e.ring.Write(buf.Data[:need])
	if written < need {
		e.recorder.RecordBufferOverrun()
	}

	e.transport.SetPosition(time.Duration(e.dec.CurrentFrame()) * time.Second / time.Duration(e.sourceFormat.SampleRate))
}

func floatsToBytesLE(src []float32, dst []byte) {
	for i, f := range src {
		bits := math.Float32bits(f)
		o := i * 4
		dst[o] = byte(bits)
		dst[o+1] = byte(bits >> 8)
		dst[o+2] = byte(bits >> 16)
		dst[o+3] = byte(bits >> 24)
	}
}

// DeviceList enumerates available output devices, for the control plane's
// get_devices surface.
func (e *Engine) DeviceList() ([]device.Info, error) {
	return e.registry.List()
}

// Diagnostics returns the bit-perfect negotiator's status snapshot.
func (e *Engine) Diagnostics() bitperfect.Diagnostics {
	return e.negotiator.Diagnostics()
}

// ClockStats returns the current audio clock drift/jitter snapshot.
func (e *Engine) ClockStats() clock.Stats {
	return e.clock().GetStats()
}

// Underruns returns the cumulative count of output-callback underruns.
func (e *Engine) Underruns() uint64 {
	return e.backend().Underruns()
}

// SetRecorder attaches a metrics recorder. Must be called before Start;
// the worker goroutine reads e.recorder without synchronization on the
// assumption it is fixed for the engine's lifetime.
func (e *Engine) SetRecorder(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	e.recorder = r
}
