// Package ring implements a lock-free single-producer single-consumer byte
// ring buffer, the only datum shared across the realtime boundary between
// the engine's producer and the output backend's audio callback.
//
// Write must only be called by the producer. Read, ReadSlices, PeekContiguous
// and Consume must only be called by the consumer. Both sides synchronize
// purely through the atomic head/tail indices: writes are made visible to
// the reader in the order issued via the release/acquire semantics of
// sync/atomic loads and stores.
package ring

import "sync/atomic"

// Ring is a power-of-2 sized SPSC byte ring.
type Ring struct {
	buffer   []byte
	size     uint64 // power of 2
	mask     uint64
	writePos atomic.Uint64
	readPos  atomic.Uint64
}

// New creates a Ring with at least the requested capacity in bytes, rounded
// up to the next power of 2.
func New(capacity uint64) *Ring {
	capacity = nextPowerOf2(capacity)
	return &Ring{
		buffer: make([]byte, capacity),
		size:   capacity,
		mask:   capacity - 1,
	}
}

// Write copies as many bytes of data as fit into the ring and returns that
// count. It never blocks and never returns an error: a partial or zero-length
// write is the API's way of signaling backpressure.
func (r *Ring) Write(data []byte) int {
	free := r.AvailableWrite()
	n := uint64(len(data))
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	writePos := r.writePos.Load()
	start := writePos & r.mask
	end := (writePos + n) & r.mask

	if end > start || n == 0 {
		copy(r.buffer[start:start+n], data[:n])
	} else {
		firstChunk := r.size - start
		copy(r.buffer[start:], data[:firstChunk])
		copy(r.buffer[:end], data[firstChunk:n])
	}

	r.writePos.Store(writePos + n)
	return int(n)
}

// Read copies up to len(data) available bytes into data and returns the
// count actually copied. A short or zero read (on an empty ring) is not an
// error.
func (r *Ring) Read(data []byte) int {
	available := r.AvailableRead()
	n := uint64(len(data))
	if n > available {
		n = available
	}
	if n == 0 {
		return 0
	}

	readPos := r.readPos.Load()
	start := readPos & r.mask
	end := (readPos + n) & r.mask

	if end > start || n == 0 {
		copy(data[:n], r.buffer[start:start+n])
	} else {
		firstChunk := r.size - start
		copy(data[:firstChunk], r.buffer[start:])
		copy(data[firstChunk:n], r.buffer[:end])
	}

	r.readPos.Store(readPos + n)
	return int(n)
}

// AvailableWrite returns the number of bytes free for writing.
func (r *Ring) AvailableWrite() uint64 {
	return r.size - r.AvailableRead()
}

// AvailableRead returns the number of bytes available for reading. Alias:
// Len.
func (r *Ring) AvailableRead() uint64 {
	return r.writePos.Load() - r.readPos.Load()
}

// Len is an alias for AvailableRead, matching the spec's operation name.
func (r *Ring) Len() uint64 {
	return r.AvailableRead()
}

// Size returns the ring's total capacity in bytes.
func (r *Ring) Size() uint64 {
	return r.size
}

// IsEmpty reports whether the ring currently holds no unread bytes.
func (r *Ring) IsEmpty() bool {
	return r.AvailableRead() == 0
}

// IsFull reports whether the ring has no free space for writing.
func (r *Ring) IsFull() bool {
	return r.AvailableWrite() == 0
}

// Clear discards all buffered bytes by resetting both indices. Only safe to
// call when the producer and consumer are both quiesced (e.g. during a
// Stop/Seek transition), since it is not itself atomic across the two
// indices.
func (r *Ring) Clear() {
	r.readPos.Store(0)
	r.writePos.Store(0)
}

// ReadSlices returns zero-copy access to the currently available data,
// possibly split into two slices if it wraps around the buffer. Call
// Consume to advance the read position after processing.
func (r *Ring) ReadSlices() (first, second []byte, total uint64) {
	available := r.AvailableRead()
	if available == 0 {
		return nil, nil, 0
	}

	readPos := r.readPos.Load()
	start := readPos & r.mask
	end := (readPos + available) & r.mask

	if end > start {
		return r.buffer[start:end], nil, available
	}
	return r.buffer[start:], r.buffer[:end], available
}

// PeekContiguous returns the contiguous prefix of the available data,
// possibly less than the total if the data wraps.
func (r *Ring) PeekContiguous() []byte {
	first, _, _ := r.ReadSlices()
	return first
}

// Consume advances the read position by n bytes without copying, for use
// after ReadSlices/PeekContiguous. n must not exceed AvailableRead(); if it
// does, Consume clamps to the available count rather than overrunning.
func (r *Ring) Consume(n uint64) {
	available := r.AvailableRead()
	if n > available {
		n = available
	}
	r.readPos.Store(r.readPos.Load() + n)
}

func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
