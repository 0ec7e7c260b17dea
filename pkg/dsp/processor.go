// Package dsp implements the engine's processor chain: an ordered list of
// polymorphic processors (volume, gain, parametric EQ, resampler) that
// transform interleaved float32 frames between the decoder and the output
// ring.
package dsp

import "fmt"

// Processor is the closed interface every DSP stage implements. The
// processor set is known ahead of time (Passthrough, Volume, Gain,
// Equalizer, Resampler) so dispatch through this interface value in a slice
// avoids both a registry lookup and a switch statement on the audio-hot
// path.
type Processor interface {
	// Process transforms input into output. len(input) and len(output) of
	// the *channel count* multiple must agree with the processor's own
	// notion of a frame; Resampler is the only processor whose output
	// length can legitimately differ in frame count (see its own docs).
	Process(input, output []float32) error

	// Reset clears any internal filter/resampler state. Called on track
	// change and whenever the processor transitions from disabled to
	// enabled.
	Reset()

	// Enabled reports whether this processor currently participates in the
	// chain; a disabled processor is skipped entirely by Chain.Process.
	Enabled() bool

	// SetEnabled toggles participation; implementations must Reset their
	// internal state when transitioning from disabled to enabled.
	SetEnabled(bool)

	// Name identifies the processor for Chain.Remove and diagnostics.
	Name() string
}

// ErrSizeMismatch is returned by a processor when input and output lengths
// are incompatible with its fixed per-frame ratio.
type ErrSizeMismatch struct {
	Processor string
	InputLen  int
	OutputLen int
}

func (e *ErrSizeMismatch) Error() string {
	return fmt.Sprintf("dsp: %s: size mismatch (input=%d, output=%d)", e.Processor, e.InputLen, e.OutputLen)
}

// base holds the Enabled/Name bookkeeping shared by every concrete
// processor. Concrete types embed base and define their own SetEnabled so
// they can Reset their internal state on the disabled->enabled edge.
type base struct {
	name    string
	enabled bool
}

func (b *base) Name() string  { return b.name }
func (b *base) Enabled() bool { return b.enabled }

// setEnabledRaw stores the flag and reports whether this call is a
// disabled->enabled transition, so callers know whether to Reset.
func (b *base) setEnabledRaw(v bool) (wasDisabledNowEnabled bool) {
	wasDisabledNowEnabled = v && !b.enabled
	b.enabled = v
	return wasDisabledNowEnabled
}
