package decoder

import (
	"errors"
	"fmt"

	"github.com/drgolem/audioengine/pkg/audioformat"
)

// ErrSeekUnsupported is returned by Adapter.Seek when the wrapped
// NativeDecoder does not implement Seeker.
var ErrSeekUnsupported = errors.New("decoder: seek not supported by this source")

// pcmScratchFrames bounds the native-PCM scratch buffer batch size used by
// DecodeNext, trading memory for fewer DecodeSamples calls per tick.
const pcmScratchFrames = 4096

// Adapter wraps a NativeDecoder (raw integer PCM) and exposes it as a
// Decoder producing interleaved float32 frames, normalizing every bit
// depth the corpus's codec wrappers report (8/16/24/32) to [-1, 1].
type Adapter struct {
	native   NativeDecoder
	format   audioformat.Format
	pcmBuf   []byte
	frame    int64
	total    int64
	hasTotal bool
}

// totalFramesReporter is optionally implemented by a NativeDecoder that
// knows its own length (e.g. FLAC's STREAMINFO total-samples field).
type totalFramesReporter interface {
	TotalFrames() int64
}

// NewAdapter wraps an already-Open NativeDecoder.
func NewAdapter(native NativeDecoder) (*Adapter, error) {
	rate, channels, bitsPerSample := native.GetFormat()
	encoding, err := encodingForBits(bitsPerSample)
	if err != nil {
		return nil, err
	}
	format, err := audioformat.New(rate, channels, encoding)
	if err != nil {
		return nil, fmt.Errorf("decoder: invalid native format: %w", err)
	}

	a := &Adapter{native: native, format: format}
	if tr, ok := native.(totalFramesReporter); ok {
		if tf := tr.TotalFrames(); tf > 0 {
			a.total, a.hasTotal = tf, true
		}
	}
	return a, nil
}

func encodingForBits(bits int) (audioformat.Encoding, error) {
	switch bits {
	case 8:
		return audioformat.EncodingU8, nil
	case 16:
		return audioformat.EncodingS16, nil
	case 24:
		return audioformat.EncodingS24, nil
	case 32:
		return audioformat.EncodingS32, nil
	default:
		return audioformat.EncodingUnknown, fmt.Errorf("decoder: unsupported bit depth: %d", bits)
	}
}

func (a *Adapter) Open(string) error { return nil } // already open; NewAdapter requires it

func (a *Adapter) Close() error { return a.native.Close() }

func (a *Adapter) Format() audioformat.Format { return a.format }

func (a *Adapter) TotalFrames() (int64, bool) { return a.total, a.hasTotal }

func (a *Adapter) CurrentFrame() int64 { return a.frame }

func (a *Adapter) DecodeNext(dst []float32, maxFrames int) (int, error) {
	if maxFrames <= 0 {
		return 0, nil
	}
	batch := maxFrames
	if batch > pcmScratchFrames {
		batch = pcmScratchFrames
	}
	needBytes := batch * a.format.BytesPerFrame()
	if cap(a.pcmBuf) < needBytes {
		a.pcmBuf = make([]byte, needBytes)
	}
	buf := a.pcmBuf[:needBytes]

	frames, err := a.native.DecodeSamples(batch, buf)
	if frames <= 0 {
		return 0, err
	}
	wantFloats := frames * a.format.Channels
	if len(dst) < wantFloats {
		wantFloats = len(dst)
	}
	decodePCMToFloat32(buf, a.format.Encoding, dst[:wantFloats])
	a.frame += int64(frames)
	return frames, err
}

func (a *Adapter) Seek(targetFrame int64) error {
	seeker, ok := a.native.(Seeker)
	if !ok {
		return ErrSeekUnsupported
	}
	if err := seeker.SeekFrame(targetFrame); err != nil {
		return err
	}
	a.frame = targetFrame
	return nil
}

func (a *Adapter) Reset() {}

// decodePCMToFloat32 normalizes interleaved little-endian PCM in src to
// [-1, 1] float32 in dst, per encoding. dst is filled up to its own length
// or the number of samples represented in src, whichever is smaller.
func decodePCMToFloat32(src []byte, enc audioformat.Encoding, dst []float32) {
	bps := enc.BytesPerSample()
	n := len(src) / bps
	if n > len(dst) {
		n = len(dst)
	}
	switch enc {
	case audioformat.EncodingU8:
		for i := 0; i < n; i++ {
			dst[i] = (float32(src[i]) - 128) / 128
		}
	case audioformat.EncodingS16:
		for i := 0; i < n; i++ {
			v := int16(uint16(src[i*2]) | uint16(src[i*2+1])<<8)
			dst[i] = float32(v) / 32768
		}
	case audioformat.EncodingS24:
		for i := 0; i < n; i++ {
			o := i * 3
			v := int32(src[o]) | int32(src[o+1])<<8 | int32(src[o+2])<<16
			if v&0x800000 != 0 {
				v |= ^0xFFFFFF
			}
			dst[i] = float32(v) / 8388608
		}
	case audioformat.EncodingS32:
		for i := 0; i < n; i++ {
			o := i * 4
			v := int32(uint32(src[o]) | uint32(src[o+1])<<8 | uint32(src[o+2])<<16 | uint32(src[o+3])<<24)
			dst[i] = float32(v) / 2147483648
		}
	}
}
