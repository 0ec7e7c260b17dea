package stream

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drgolem/audioengine/pkg/audioformat"
)

type fixedProvider struct {
	packets []*Packet
	idx     int
}

func (p *fixedProvider) ReadPacket(ctx context.Context, maxFrames int) (*Packet, error) {
	if p.idx >= len(p.packets) {
		return nil, io.EOF
	}
	pkt := p.packets[p.idx]
	p.idx++
	return pkt, nil
}

func TestStreamDecoderDeliversPackets(t *testing.T) {
	format, err := audioformat.New(48000, 2, audioformat.EncodingF32)
	require.NoError(t, err)

	provider := &fixedProvider{packets: []*Packet{
		{Samples: []float32{0.1, 0.2, 0.3, 0.4}, Frames: 2, Format: format},
	}}
	d := New(context.Background(), provider, format)

	dst := make([]float32, 4)
	frames, err := d.DecodeNext(dst, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, frames)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, dst)
	assert.Equal(t, int64(2), d.CurrentFrame())
}

func TestStreamDecoderEOF(t *testing.T) {
	format, _ := audioformat.New(48000, 2, audioformat.EncodingF32)
	d := New(context.Background(), &fixedProvider{}, format)

	dst := make([]float32, 4)
	frames, err := d.DecodeNext(dst, 2)
	assert.Equal(t, 0, frames)
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamDecoderSeekUnsupported(t *testing.T) {
	format, _ := audioformat.New(48000, 2, audioformat.EncodingF32)
	d := New(context.Background(), &fixedProvider{}, format)
	assert.Error(t, d.Seek(0))
}
