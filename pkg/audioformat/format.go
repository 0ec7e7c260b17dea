// Package audioformat describes the immutable sample-rate/channel/encoding
// triple that every other component in the engine agrees on.
package audioformat

import "fmt"

// Encoding identifies how a single sample is stored in memory.
type Encoding int

const (
	EncodingUnknown Encoding = iota
	EncodingU8
	EncodingS16
	EncodingS24
	EncodingS32
	EncodingF32
	EncodingF64
)

func (e Encoding) String() string {
	switch e {
	case EncodingU8:
		return "u8"
	case EncodingS16:
		return "s16"
	case EncodingS24:
		return "s24"
	case EncodingS32:
		return "s32"
	case EncodingF32:
		return "f32"
	case EncodingF64:
		return "f64"
	default:
		return "unknown"
	}
}

// BytesPerSample returns the storage width of one sample of this encoding, or
// 0 for EncodingUnknown.
func (e Encoding) BytesPerSample() int {
	switch e {
	case EncodingU8:
		return 1
	case EncodingS16:
		return 2
	case EncodingS24:
		return 3
	case EncodingS32, EncodingF32:
		return 4
	case EncodingF64:
		return 8
	default:
		return 0
	}
}

// IsInteger reports whether the encoding stores integer PCM samples.
func (e Encoding) IsInteger() bool {
	switch e {
	case EncodingU8, EncodingS16, EncodingS24, EncodingS32:
		return true
	default:
		return false
	}
}

// Format is an immutable description of an interleaved PCM stream. Two
// Formats compare equal with == iff all three fields are equal.
type Format struct {
	SampleRate int
	Channels   int
	Encoding   Encoding
}

// New validates and constructs a Format. Channels outside 1..8 or a zero
// sample rate are rejected, matching the data model's invariant that a
// Format's fields never change after construction.
func New(sampleRate, channels int, encoding Encoding) (Format, error) {
	if sampleRate <= 0 {
		return Format{}, fmt.Errorf("audioformat: sample rate must be positive, got %d", sampleRate)
	}
	if channels < 1 || channels > 8 {
		return Format{}, fmt.Errorf("audioformat: channels must be in 1..8, got %d", channels)
	}
	if encoding == EncodingUnknown {
		return Format{}, fmt.Errorf("audioformat: unknown sample encoding")
	}
	return Format{SampleRate: sampleRate, Channels: channels, Encoding: encoding}, nil
}

// BytesPerSample returns the per-channel sample width in bytes.
func (f Format) BytesPerSample() int {
	return f.Encoding.BytesPerSample()
}

// BytesPerFrame returns channels * BytesPerSample, the size of one
// simultaneous sample across all channels.
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BytesPerSample()
}

// BytesPerSecond returns the data rate of this format in bytes/second.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.BytesPerFrame()
}

// FramesToDuration converts a frame count to a time duration in nanoseconds,
// given this format's sample rate.
func (f Format) FramesToDuration(frames int64) int64 {
	if f.SampleRate == 0 {
		return 0
	}
	return frames * 1_000_000_000 / int64(f.SampleRate)
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%s", f.SampleRate, f.Channels, f.Encoding)
}
