// Package bufferpool implements a bounded, reusable set of fixed-size frame
// buffers so the engine's steady-state playing loop never allocates.
package bufferpool

import (
	"sync"

	"github.com/drgolem/audioengine/pkg/audioformat"
)

// Buffer is an owned, reusable chunk of PCM bytes. At any instant it is
// either free (sitting in the pool's free list) or held by exactly one
// caller. Len tracks how many of Data's bytes are currently valid; capacity
// never shrinks below format.BytesPerFrame() * framesPerBuffer.
type Buffer struct {
	Data []byte
	Len  int
}

// Capacity returns the buffer's fixed byte capacity.
func (b *Buffer) Capacity() int {
	return cap(b.Data)
}

// Pool is a fixed-size free list of Buffers, constructed once per format
// change and dropped on engine shutdown.
type Pool struct {
	mu         sync.Mutex
	free       []*Buffer
	frameSize  int // format.BytesPerFrame() * framesPerBuffer at construction time
	size       int // pool_size
	inFlight   int
}

// New constructs a Pool holding exactly size Buffers of
// format.BytesPerFrame()*framesPerBuffer bytes each, all initially free and
// zeroed.
func New(format audioformat.Format, framesPerBuffer, size int) *Pool {
	frameSize := format.BytesPerFrame() * framesPerBuffer
	p := &Pool{
		free:      make([]*Buffer, 0, size),
		frameSize: frameSize,
		size:      size,
	}
	for i := 0; i < size; i++ {
		p.free = append(p.free, &Buffer{Data: make([]byte, frameSize)})
	}
	return p
}

// Acquire returns a zeroed buffer if one is free, else nil. It never
// allocates and is O(1).
func (p *Pool) Acquire() *Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	if n == 0 {
		return nil
	}
	buf := p.free[n-1]
	p.free = p.free[:n-1]
	p.inFlight++
	return buf
}

// Release returns buf to the free list, zeroing its contents first. Buffers
// whose capacity does not match the pool's frame size are dropped rather
// than returned, per the spec's "mismatched buffers are dropped" contract.
func (p *Pool) Release(buf *Buffer) {
	if buf == nil {
		return
	}
	if cap(buf.Data) != p.frameSize {
		return
	}

	clear(buf.Data)
	buf.Len = 0

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight--
	p.free = append(p.free, buf)
}

// Available returns the number of buffers currently free.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Size returns the pool's fixed total buffer count.
func (p *Pool) Size() int {
	return p.size
}

// FrameSize returns the fixed byte capacity of every buffer in this pool.
func (p *Pool) FrameSize() int {
	return p.frameSize
}
