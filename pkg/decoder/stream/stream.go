// Package stream adapts an arbitrary pull-based source (network stream,
// synthetic signal generator, test fixture) into decoder.Decoder, so the
// engine can play from anything that can hand back interleaved float32
// packets, not just local files.
package stream

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/drgolem/audioengine/pkg/audioformat"
)

// Packet is one chunk of decoded audio handed back by a Provider.
type Packet struct {
	Samples []float32 // interleaved
	Frames  int
	Format  audioformat.Format
}

// Provider is implemented by sources that can produce audio packets on
// demand: network streams, synthetic generators, fixtures. ReadPacket
// returns io.EOF when the stream ends.
type Provider interface {
	ReadPacket(ctx context.Context, maxFrames int) (*Packet, error)
}

// Decoder wraps a Provider as a decoder.Decoder. It carries no total frame
// count (a live stream's length is unknown) and does not support Seek.
type Decoder struct {
	ctx      context.Context
	provider Provider

	mu     sync.RWMutex
	format audioformat.Format
	frame  int64
}

// New constructs a stream Decoder, reporting initialFormat until the first
// packet (which may carry an updated format, e.g. after a mid-stream
// sample-rate change) arrives.
func New(ctx context.Context, provider Provider, initialFormat audioformat.Format) *Decoder {
	return &Decoder{ctx: ctx, provider: provider, format: initialFormat}
}

func (d *Decoder) Open(string) error { return nil }
func (d *Decoder) Close() error      { return nil }

func (d *Decoder) Format() audioformat.Format {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.format
}

func (d *Decoder) TotalFrames() (int64, bool) { return 0, false }
func (d *Decoder) CurrentFrame() int64        { return d.frame }

func (d *Decoder) DecodeNext(dst []float32, maxFrames int) (int, error) {
	pkt, err := d.provider.ReadPacket(d.ctx, maxFrames)
	if pkt == nil {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	d.mu.Lock()
	d.format = pkt.Format
	d.mu.Unlock()

	n := pkt.Frames * pkt.Format.Channels
	if n > len(dst) {
		n = len(dst)
	}
	copy(dst[:n], pkt.Samples[:n])
	frames := n / pkt.Format.Channels
	d.frame += int64(frames)
	return frames, err
}

func (d *Decoder) Seek(int64) error {
	return fmt.Errorf("stream: seek not supported on live sources")
}

func (d *Decoder) Reset() {}
