package dsp

import (
	"math"
	"sync/atomic"
)

// Gain applies a decibel gain, converted to a linear multiplier as
// 10^(gain_db/20), grounded on the reference implementation's
// GainProcessor. Unlike Volume it has no clamp of its own; callers
// combine it with Volume or rely on the output backend's final clamp.
type Gain struct {
	base
	gainDbBits atomic.Uint32
}

// NewGain returns an enabled Gain processor with the given initial gain in
// decibels.
func NewGain(gainDb float32) *Gain {
	g := &Gain{base: base{name: "gain", enabled: true}}
	g.SetGainDb(gainDb)
	return g
}

// SetGainDb updates the gain in decibels.
func (g *Gain) SetGainDb(db float32) {
	g.gainDbBits.Store(float32bits(db))
}

// GainDb returns the current gain in decibels.
func (g *Gain) GainDb() float32 {
	return float32frombits(g.gainDbBits.Load())
}

// LinearGain returns the current gain converted to a linear multiplier.
func (g *Gain) LinearGain() float32 {
	db := g.GainDb()
	return float32(math.Pow(10, float64(db)/20))
}

func (g *Gain) SetEnabled(enabled bool) {
	if g.setEnabledRaw(enabled) {
		g.Reset()
	}
}

func (g *Gain) Reset() {}

func (g *Gain) Process(input, output []float32) error {
	if len(input) != len(output) {
		return &ErrSizeMismatch{Processor: g.name, InputLen: len(input), OutputLen: len(output)}
	}
	linear := g.LinearGain()
	for i, s := range input {
		output[i] = s * linear
	}
	return nil
}
