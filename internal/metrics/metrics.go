// Package metrics exposes the engine's counters and gauges as Prometheus
// collectors. Recorder naming is grounded on tphakala-birdnet-go's
// internal/observability/metrics Recorder interface (RecordOperation/
// RecordDuration/RecordError); the concrete field set and units are
// grounded on original_source/rust-core/src/utils/metrics.rs's
// MetricsCollector (record_buffer_underrun/record_frames_decoded/
// record_latency/record_jitter/record_clock_drift).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the set of samples the Engine pushes (pkg/engine declares a
// matching Recorder interface of its own, which *Collectors satisfies
// structurally), so the engine need not import prometheus directly.
type Recorder interface {
	RecordBufferUnderrun()
	RecordBufferOverrun()
	RecordDecodeError()
	RecordOutputError()
	RecordFramesDecoded(frames uint64)
	RecordFramesOutput(frames uint64)
	RecordLatency(ms float64)
	RecordJitter(ns float64)
	RecordDrift(ppm float64)
	RecordRingFillRatio(ratio float64)
}

// Collectors is a registry of Prometheus collectors implementing
// Recorder, constructed once at startup and registered against a
// *prometheus.Registry so /metrics and an in-process test registry never
// collide.
type Collectors struct {
	bufferUnderruns prometheus.Counter
	bufferOverruns  prometheus.Counter
	decodeErrors    prometheus.Counter
	outputErrors    prometheus.Counter
	framesDecoded   prometheus.Counter
	framesOutput    prometheus.Counter
	latencyMs       prometheus.Gauge
	jitterNs        prometheus.Gauge
	driftPPM        prometheus.Gauge
	ringFillRatio   prometheus.Gauge
}

// New constructs a Collectors and registers every collector against reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		bufferUnderruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "audioengine", Name: "buffer_underruns_total",
			Help: "Cumulative count of output-callback buffer underruns.",
		}),
		bufferOverruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "audioengine", Name: "buffer_overruns_total",
			Help: "Cumulative count of ring-buffer overruns.",
		}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "audioengine", Name: "decode_errors_total",
			Help: "Cumulative count of decode errors.",
		}),
		outputErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "audioengine", Name: "output_errors_total",
			Help: "Cumulative count of output device errors.",
		}),
		framesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "audioengine", Name: "frames_decoded_total",
			Help: "Cumulative count of frames decoded.",
		}),
		framesOutput: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "audioengine", Name: "frames_output_total",
			Help: "Cumulative count of frames written to the output device.",
		}),
		latencyMs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "audioengine", Name: "latency_ms",
			Help: "Estimated output latency in milliseconds.",
		}),
		jitterNs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "audioengine", Name: "jitter_ns",
			Help: "Audio clock jitter in nanoseconds.",
		}),
		driftPPM: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "audioengine", Name: "drift_ppm",
			Help: "Audio clock drift in parts per million.",
		}),
		ringFillRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "audioengine", Name: "ring_fill_ratio",
			Help: "Fraction of the byte ring currently occupied.",
		}),
	}

	reg.MustRegister(
		c.bufferUnderruns, c.bufferOverruns, c.decodeErrors, c.outputErrors,
		c.framesDecoded, c.framesOutput, c.latencyMs, c.jitterNs, c.driftPPM,
		c.ringFillRatio,
	)
	return c
}

func (c *Collectors) RecordBufferUnderrun()              { c.bufferUnderruns.Inc() }
func (c *Collectors) RecordBufferOverrun()                { c.bufferOverruns.Inc() }
func (c *Collectors) RecordDecodeError()                  { c.decodeErrors.Inc() }
func (c *Collectors) RecordOutputError()                  { c.outputErrors.Inc() }
func (c *Collectors) RecordFramesDecoded(frames uint64)    { c.framesDecoded.Add(float64(frames)) }
func (c *Collectors) RecordFramesOutput(frames uint64)     { c.framesOutput.Add(float64(frames)) }
func (c *Collectors) RecordLatency(ms float64)             { c.latencyMs.Set(ms) }
func (c *Collectors) RecordJitter(ns float64)              { c.jitterNs.Set(ns) }
func (c *Collectors) RecordDrift(ppm float64)              { c.driftPPM.Set(ppm) }
func (c *Collectors) RecordRingFillRatio(ratio float64)    { c.ringFillRatio.Set(ratio) }

var _ Recorder = (*Collectors)(nil)
