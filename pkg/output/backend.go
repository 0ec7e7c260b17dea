// Package output drives the realtime PortAudio callback that turns
// buffered float32 frames from the engine's byte ring into quantized
// samples on the wire. It is the only component that runs on PortAudio's
// own audio thread rather than a goroutine: Backend's callback must never
// allocate, never block, and never touch anything but atomics and the
// ring's lock-free read path, mirroring the realtime discipline of the
// teacher's internal/fileplayer callback.
package output

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/drgolem/go-portaudio/portaudio"

	"github.com/drgolem/audioengine/pkg/audioformat"
	"github.com/drgolem/audioengine/pkg/clock"
	"github.com/drgolem/audioengine/pkg/ring"
)

// underrunDebounce is how long a persistent underrun must last before
// OnUnderrun fires, matching the resolved 150ms debounce (Open Question 2).
const underrunDebounce = 150 * time.Millisecond

// Backend owns one PortAudio output stream and the realtime callback that
// drains a Ring of interleaved float32 bytes into it, applying volume and
// quantizing to the device's native sample format just before the wire —
// never earlier, so volume always acts on full float precision (Open
// Question 1).
type Backend struct {
	ring  *ring.Ring
	clock *clock.Clock

	stream *portaudio.PaStream
	format audioformat.Format // device delivery format (post-negotiation)

	volumeBits   atomic.Uint32 // float32 bits, linear gain 0..2
	playing      atomic.Bool
	underrunSince atomic.Int64 // unix nanos of first tick of a persistent underrun, 0 = none
	underrunFired atomic.Bool
	underruns    atomic.Uint64
	framesOut    atomic.Uint64

	onUnderrun func()
	onRecovered func()
}

// New constructs a Backend reading from r and reporting clock updates to
// c. onUnderrun is invoked on the realtime callback thread once a
// ring-starvation condition has persisted for underrunDebounce;
// onRecovered fires, also from the callback, once output resumes normally.
func New(r *ring.Ring, c *clock.Clock, onUnderrun, onRecovered func()) *Backend {
	b := &Backend{ring: r, clock: c, onUnderrun: onUnderrun, onRecovered: onRecovered}
	b.volumeBits.Store(math.Float32bits(1.0))
	return b
}

// Open negotiates and starts a PortAudio output stream for format on the
// given device index. format.Encoding must be S16, S24 or S32 (U8 is an
// integer encoding but is rejected as unsupported); the ring always
// carries float32, quantized here.
func (b *Backend) Open(deviceIndex int, format audioformat.Format, framesPerBuffer int) error {
	if !format.Encoding.IsInteger() {
		return fmt.Errorf("output: device delivery format must be integer PCM, got %s", format.Encoding)
	}

	var sampleFormat portaudio.PaSampleFormat
	switch format.Encoding {
	case audioformat.EncodingS16:
		sampleFormat = portaudio.SampleFmtInt16
	case audioformat.EncodingS24:
		sampleFormat = portaudio.SampleFmtInt24
	case audioformat.EncodingS32:
		sampleFormat = portaudio.SampleFmtInt32
	default:
		return fmt.Errorf("output: unsupported delivery encoding: %s", format.Encoding)
	}

	b.format = format

	b.stream = &portaudio.PaStream{
		OutputParameters: &portaudio.PaStreamParameters{
			DeviceIndex:  deviceIndex,
			ChannelCount: format.Channels,
			SampleFormat: sampleFormat,
		},
		SampleRate: float64(format.SampleRate),
	}

	if err := b.stream.OpenCallback(framesPerBuffer, b.audioCallback); err != nil {
		return fmt.Errorf("output: open stream: %w", err)
	}
	return nil
}

// Start begins stream playback.
func (b *Backend) Start() error {
	if b.stream == nil {
		return fmt.Errorf("output: not open")
	}
	if err := b.stream.StartStream(); err != nil {
		return fmt.Errorf("output: start stream: %w", err)
	}
	b.playing.Store(true)
	b.clock.Start()
	return nil
}

// Pause stops the stream without closing it; Resume restarts it.
func (b *Backend) Pause() error {
	if b.stream == nil {
		return fmt.Errorf("output: not open")
	}
	if err := b.stream.StopStream(); err != nil {
		return fmt.Errorf("output: pause: %w", err)
	}
	b.playing.Store(false)
	b.clock.Stop()
	return nil
}

// Resume restarts a paused stream.
func (b *Backend) Resume() error {
	return b.Start()
}

// Stop closes the stream entirely. Open must be called again before reuse.
func (b *Backend) Stop() error {
	if b.stream == nil {
		return nil
	}
	err := b.stream.CloseStream()
	b.stream = nil
	b.playing.Store(false)
	b.clock.Stop()
	if err != nil {
		return fmt.Errorf("output: stop: %w", err)
	}
	return nil
}

// SetVolume sets the linear gain applied in the callback, clamped to
// [0, 2]. Lock-free: safe to call from any goroutine.
func (b *Backend) SetVolume(gain float32) {
	if gain < 0 {
		gain = 0
	}
	if gain > 2 {
		gain = 2
	}
	b.volumeBits.Store(math.Float32bits(gain))
}

// Volume returns the current linear gain.
func (b *Backend) Volume() float32 {
	return math.Float32frombits(b.volumeBits.Load())
}

// IsPlaying reports whether the stream is actively started.
func (b *Backend) IsPlaying() bool { return b.playing.Load() }

// Format returns the negotiated device delivery format.
func (b *Backend) Format() audioformat.Format { return b.format }

// Underruns returns the total count of debounced (not momentary) underrun
// events fired so far.
func (b *Backend) Underruns() uint64 { return b.underruns.Load() }

// FramesOut returns the cumulative count of frames written to the device
// so far. Safe to poll from any goroutine; the producer side uses the
// delta between polls to drive the audio clock off the realtime thread.
func (b *Backend) FramesOut() uint64 { return b.framesOut.Load() }

// audioCallback is PortAudio's realtime callback: it must not allocate,
// lock a mutex, or perform any blocking call. It reads float32 bytes from
// the ring via zero-copy slices, applies the volume scalar at float
// precision, quantizes to the negotiated integer encoding, and writes the
// result to output. Any shortfall is padded with silence.
func (b *Backend) audioCallback(
	input, output []byte,
	frameCount uint,
	timeInfo *portaudio.StreamCallbackTimeInfo,
	statusFlags portaudio.StreamCallbackFlags,
) portaudio.StreamCallbackResult {
	floatBytesPerFrame := b.format.Channels * 4
	framesWanted := int(frameCount)
	floatBytesWanted := framesWanted * floatBytesPerFrame

	gain := math.Float32frombits(b.volumeBits.Load())

	first, second, total := b.ring.ReadSlices()
	available := int(total)
	if available > floatBytesWanted {
		available = floatBytesWanted
	}
	framesAvailable := available / floatBytesPerFrame

	outBytesPerFrame := b.format.BytesPerFrame()
	consumed := uint64(0)

	writeFrame := func(src []byte, frameIdx int) {
		o := frameIdx * outBytesPerFrame
		for ch := 0; ch < b.format.Channels; ch++ {
			fo := ch * 4
			sample := math.Float32frombits(
				uint32(src[fo]) | uint32(src[fo+1])<<8 | uint32(src[fo+2])<<16 | uint32(src[fo+3])<<24,
			) * gain
			writeQuantized(output[o+ch*b.format.BytesPerSample():], sample, b.format.Encoding)
		}
	}

	frameIdx := 0
	firstFrames := len(first) / floatBytesPerFrame
	for frameIdx < framesAvailable && frameIdx < firstFrames {
		writeFrame(first[frameIdx*floatBytesPerFrame:], frameIdx)
		frameIdx++
	}
	for frameIdx < framesAvailable {
		o := (frameIdx - firstFrames) * floatBytesPerFrame
		writeFrame(second[o:], frameIdx)
		frameIdx++
	}
	consumed = uint64(framesAvailable * floatBytesPerFrame)
	b.ring.Consume(consumed)

	if framesAvailable < framesWanted {
		clear(output[framesAvailable*outBytesPerFrame : framesWanted*outBytesPerFrame])
		b.noteUnderrun()
	} else {
		b.noteRecovered()
	}

	// framesOut is the only bookkeeping the callback does: a plain atomic
	// add. Clock.Update takes a mutex, so it is never called from here —
	// the producer goroutine polls FramesOut() and drives the clock from
	// off the realtime thread instead (see Engine.pollClock).
	b.framesOut.Add(uint64(framesAvailable))

	return portaudio.Continue
}

func (b *Backend) noteUnderrun() {
	now := time.Now().UnixNano()
	since := b.underrunSince.Load()
	if since == 0 {
		b.underrunSince.Store(now)
		return
	}
	if !b.underrunFired.Load() && time.Duration(now-since) >= underrunDebounce {
		b.underrunFired.Store(true)
		b.underruns.Add(1)
		if b.onUnderrun != nil {
			b.onUnderrun()
		}
	}
}

func (b *Backend) noteRecovered() {
	wasFired := b.underrunFired.Load()
	b.underrunSince.Store(0)
	b.underrunFired.Store(false)
	if wasFired && b.onRecovered != nil {
		b.onRecovered()
	}
}

// writeQuantized converts a [-1, 1] float32 sample to dst in enc, writing
// BytesPerSample(enc) little-endian bytes. Out-of-range samples (from gain
// > 1) are clamped rather than wrapped.
func writeQuantized(dst []byte, sample float32, enc audioformat.Encoding) {
	switch enc {
	case audioformat.EncodingS16:
		v := clampf(sample, -1, 1) * 32767
		iv := int16(v)
		dst[0] = byte(iv)
		dst[1] = byte(iv >> 8)
	case audioformat.EncodingS24:
		v := clampf(sample, -1, 1) * 8388607
		iv := int32(v)
		dst[0] = byte(iv)
		dst[1] = byte(iv >> 8)
		dst[2] = byte(iv >> 16)
	case audioformat.EncodingS32:
		v := float64(clampf(sample, -1, 1)) * 2147483647
		iv := int32(v)
		dst[0] = byte(iv)
		dst[1] = byte(iv >> 8)
		dst[2] = byte(iv >> 16)
		dst[3] = byte(iv >> 24)
	case audioformat.EncodingU8:
		v := clampf(sample, -1, 1) * 127
		dst[0] = byte(int8(v)) + 128
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
