package ring

import (
	"bytes"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	r := New(64)
	data := []byte("hello ring buffer")

	n := r.Write(data)
	if n != len(data) {
		t.Fatalf("Write: got %d, want %d", n, len(data))
	}

	out := make([]byte, len(data))
	n = r.Read(out)
	if n != len(data) {
		t.Fatalf("Read: got %d, want %d", n, len(data))
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Read data mismatch: got %q, want %q", out, data)
	}
}

func TestWritePartialWhenFull(t *testing.T) {
	r := New(8) // rounds up to 8
	first := r.Write(make([]byte, 5))
	if first != 5 {
		t.Fatalf("first write: got %d, want 5", first)
	}

	second := r.Write(make([]byte, 10))
	if second != 3 {
		t.Fatalf("second write: got %d, want 3 (exactly the free space)", second)
	}
	if !r.IsFull() {
		t.Errorf("expected ring to be full after filling free space")
	}
}

func TestReadPartialWhenEmpty(t *testing.T) {
	r := New(16)
	r.Write([]byte{1, 2, 3})

	buf := make([]byte, 10)
	n := r.Read(buf)
	if n != 3 {
		t.Fatalf("Read: got %d, want 3", n)
	}

	n = r.Read(buf)
	if n != 0 {
		t.Fatalf("Read on empty ring: got %d, want 0", n)
	}
	if !r.IsEmpty() {
		t.Errorf("expected ring to report empty")
	}
}

func TestWraparound(t *testing.T) {
	r := New(8)
	r.Write([]byte{1, 2, 3, 4, 5, 6})
	out := make([]byte, 4)
	r.Read(out)

	// Now writePos=6, readPos=4; writing 6 more bytes wraps.
	n := r.Write([]byte{7, 8, 9, 10, 11, 12})
	if n != 6 {
		t.Fatalf("wraparound write: got %d, want 6", n)
	}

	result := make([]byte, 8)
	n = r.Read(result)
	if n != 8 {
		t.Fatalf("wraparound read: got %d, want 8", n)
	}
	want := []byte{5, 6, 7, 8, 9, 10, 11, 12}
	if !bytes.Equal(result, want) {
		t.Errorf("wraparound data mismatch: got %v, want %v", result, want)
	}
}

func TestClear(t *testing.T) {
	r := New(16)
	r.Write([]byte{1, 2, 3})
	r.Clear()

	if !r.IsEmpty() {
		t.Errorf("expected empty after Clear")
	}
	if r.AvailableWrite() != r.Size() {
		t.Errorf("expected full free space after Clear")
	}
}

func TestZeroLengthOperations(t *testing.T) {
	r := New(16)
	if n := r.Write(nil); n != 0 {
		t.Errorf("Write(nil): got %d, want 0", n)
	}
	if n := r.Read(nil); n != 0 {
		t.Errorf("Read(nil): got %d, want 0", n)
	}
}

func TestPeekAndConsume(t *testing.T) {
	r := New(16)
	r.Write([]byte{1, 2, 3, 4})

	peek := r.PeekContiguous()
	if !bytes.Equal(peek, []byte{1, 2, 3, 4}) {
		t.Fatalf("PeekContiguous: got %v", peek)
	}

	r.Consume(2)
	if r.AvailableRead() != 2 {
		t.Fatalf("AvailableRead after Consume(2): got %d, want 2", r.AvailableRead())
	}

	out := make([]byte, 2)
	r.Read(out)
	if !bytes.Equal(out, []byte{3, 4}) {
		t.Errorf("remaining data mismatch: got %v", out)
	}
}

func TestSizeRoundsUpToPowerOf2(t *testing.T) {
	r := New(100)
	if r.Size() != 128 {
		t.Errorf("Size: got %d, want 128", r.Size())
	}
}
