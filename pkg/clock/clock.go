// Package clock measures playback position, drift, and jitter from wall
// time and frames consumed by the output backend.
package clock

import (
	"math"
	"sync"
	"time"
)

const defaultWindowSize = 100

// Clock tracks drift (ppm) and jitter (stddev of frame-arrival delta, in
// ns) by comparing frames actually consumed against frames expected to have
// elapsed given wall-clock time since the last update. It is driven by a
// single caller (the output backend reporting consumed frames) but reads
// (GetStats) may come from the control plane, so all mutable state is
// behind a mutex; none of this runs on the realtime audio callback itself,
// only from the producer/output-driver goroutine reporting progress.
type Clock struct {
	mu sync.Mutex

	sampleRate int

	startInstant    time.Time
	running         bool
	lastUpdate      time.Time
	framesObserved  int64
	driftAccum      float64 // signed accumulated (actual-expected) in frames
	window          []float64
	windowPos       int
	windowFilled    int
}

// New constructs a Clock for the given sample rate. The clock is stopped
// until Start is called.
func New(sampleRate int) *Clock {
	return &Clock{
		sampleRate: sampleRate,
		window:     make([]float64, defaultWindowSize),
	}
}

// Start captures the start instant and zeros all counters.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.startInstant = now
	c.lastUpdate = now
	c.running = true
	c.framesObserved = 0
	c.driftAccum = 0
	c.windowPos = 0
	c.windowFilled = 0
}

// Stop drops the start instant, marking the clock as not running.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.startInstant = time.Time{}
}

// Reset zeros counters without affecting whether the clock is running.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.lastUpdate = now
	c.framesObserved = 0
	c.driftAccum = 0
	c.windowPos = 0
	c.windowFilled = 0
}

// Update is called whenever frames are consumed by the output. It compares
// actual frames against the frames expected from elapsed wall time since
// the previous update, appends the absolute difference to the jitter
// window, accumulates signed drift, and advances framesObserved.
func (c *Clock) Update(framesThisTick int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(c.lastUpdate)
	c.lastUpdate = now

	expectedFrames := elapsed.Seconds() * float64(c.sampleRate)
	delta := float64(framesThisTick) - expectedFrames

	c.driftAccum += delta
	c.window[c.windowPos] = math.Abs(delta)
	c.windowPos = (c.windowPos + 1) % len(c.window)
	if c.windowFilled < len(c.window) {
		c.windowFilled++
	}

	c.framesObserved += framesThisTick
}

// Stats is the point-in-time snapshot returned by GetStats.
type Stats struct {
	DriftPPM    float64
	JitterNs    float64
	FramesObserved int64
}

// GetStats computes drift_ppm and jitter_ns per the spec's formulas.
// drift_ppm is 0 immediately after Start with no updates; jitter_ns is 0
// with a single update (stddev of a single-element window is 0).
func (c *Clock) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.startInstant.IsZero() {
		return Stats{}
	}

	var driftPPM float64
	if c.framesObserved > 0 {
		elapsed := time.Since(c.startInstant).Seconds()
		expectedTotal := elapsed * float64(c.sampleRate)
		if expectedTotal > 0 {
			driftPPM = (float64(c.framesObserved) - expectedTotal) / expectedTotal * 1e6
		}
	}

	jitterNs := c.jitterNsLocked()

	return Stats{
		DriftPPM:       driftPPM,
		JitterNs:       jitterNs,
		FramesObserved: c.framesObserved,
	}
}

func (c *Clock) jitterNsLocked() float64 {
	n := c.windowFilled
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += c.window[i]
	}
	mean := sum / float64(n)

	var variance float64
	for i := 0; i < n; i++ {
		d := c.window[i] - mean
		variance += d * d
	}
	variance /= float64(n)

	stddevFrames := math.Sqrt(variance)
	if c.sampleRate == 0 {
		return 0
	}
	return stddevFrames * 1e9 / float64(c.sampleRate)
}

// Running reports whether the clock has been started and not yet stopped.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
