package decoder

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drgolem/audioengine/pkg/audioformat"
)

// fakeNative is a NativeDecoder backed by a fixed PCM byte slice, for
// exercising Adapter without touching a real codec.
type fakeNative struct {
	rate, channels, bps int
	pcm                 []byte
	pos                 int
}

func (f *fakeNative) Open(string) error { return nil }
func (f *fakeNative) Close() error      { return nil }
func (f *fakeNative) GetFormat() (int, int, int) {
	return f.rate, f.channels, f.bps
}
func (f *fakeNative) DecodeSamples(samples int, audio []byte) (int, error) {
	bytesPerFrame := f.channels * (f.bps / 8)
	avail := (len(f.pcm) - f.pos) / bytesPerFrame
	if avail <= 0 {
		return 0, io.EOF
	}
	n := samples
	if n > avail {
		n = avail
	}
	copy(audio, f.pcm[f.pos:f.pos+n*bytesPerFrame])
	f.pos += n * bytesPerFrame
	return n, nil
}

func TestAdapterS16RoundTrip(t *testing.T) {
	// Two frames, stereo, s16: full-scale positive and negative values.
	pcm := []byte{
		0xFF, 0x7F, 0x00, 0x80, // frame0: L=32767, R=-32768
		0x00, 0x00, 0xFF, 0xFF, // frame1: L=0, R=-1
	}
	native := &fakeNative{rate: 44100, channels: 2, bps: 16, pcm: pcm}
	a, err := NewAdapter(native)
	require.NoError(t, err)
	assert.Equal(t, audioformat.EncodingS16, a.Format().Encoding)

	dst := make([]float32, 4)
	frames, err := a.DecodeNext(dst, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, frames)
	assert.InDelta(t, 1.0, dst[0], 1e-4)
	assert.InDelta(t, -1.0, dst[1], 1e-4)
	assert.InDelta(t, 0.0, dst[2], 1e-4)
	assert.InDelta(t, -1.0/32768, dst[3], 1e-4)
	assert.Equal(t, int64(2), a.CurrentFrame())
}

func TestAdapterUnsupportedBitDepth(t *testing.T) {
	native := &fakeNative{rate: 44100, channels: 2, bps: 12}
	_, err := NewAdapter(native)
	assert.Error(t, err)
}

func TestAdapterSeekUnsupportedByDefault(t *testing.T) {
	native := &fakeNative{rate: 44100, channels: 1, bps: 16, pcm: make([]byte, 8)}
	a, err := NewAdapter(native)
	require.NoError(t, err)
	assert.ErrorIs(t, a.Seek(0), ErrSeekUnsupported)
}

func TestAdapterEOFWhenExhausted(t *testing.T) {
	native := &fakeNative{rate: 44100, channels: 1, bps: 16, pcm: make([]byte, 4)}
	a, err := NewAdapter(native)
	require.NoError(t, err)

	dst := make([]float32, 16)
	frames, err := a.DecodeNext(dst, 16)
	require.NoError(t, err)
	assert.Equal(t, 2, frames)

	frames, err = a.DecodeNext(dst, 16)
	assert.Equal(t, 0, frames)
	assert.ErrorIs(t, err, io.EOF)
}
