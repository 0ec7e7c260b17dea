// Package decoder defines the pull-based audio source interface the engine
// drives: probe a container, report its native format, and produce
// interleaved float32 frames on demand.
package decoder

import (
	"errors"
	"fmt"

	"github.com/drgolem/audioengine/pkg/audioformat"
)

// ErrUnsupportedFormat is returned by Open when the file extension is
// recognized but no decoder backs it (AAC/M4A in this implementation; see
// DESIGN.md).
var ErrUnsupportedFormat = errors.New("decoder: unsupported container/codec")

// ErrNotOpen is returned by any operation performed before Open succeeds.
var ErrNotOpen = errors.New("decoder: not open")

// Decoder is the pull-based source the engine's producer drives once per
// tick. Implementations report the file's native AudioFormat and, when
// known, a total frame count; callers must not assume TotalFrames is
// present, since live/synthetic sources may not know it.
type Decoder interface {
	// Open probes path, selects the first audio track, and reads codec
	// parameters. Returns DecodeError (wrapped) if no audio track, unknown
	// codec, or unreadable header.
	Open(path string) error

	// Close releases any underlying file handle or codec context.
	Close() error

	// Format returns the native AudioFormat discovered by Open.
	Format() audioformat.Format

	// TotalFrames returns the container's declared frame count and whether
	// it is known.
	TotalFrames() (frames int64, known bool)

	// CurrentFrame returns the position the next DecodeNext call will
	// start from, monotonically non-decreasing except via Seek.
	CurrentFrame() int64

	// DecodeNext pulls codec packets and writes up to maxFrames interleaved
	// float32 frames into dst (which must be at least
	// maxFrames*Format().Channels long). Returns frames actually written;
	// 0 signals end of stream. Partial packets are retained internally so
	// the next call resumes mid-packet.
	DecodeNext(dst []float32, maxFrames int) (frames int, err error)

	// Seek repositions the container so the next DecodeNext starts at or
	// near targetFrame (codec-dependent rounding to packet boundary is
	// acceptable).
	Seek(targetFrame int64) error

	// Reset clears internal scratch state without changing position.
	Reset()
}

// WrapDecodeError annotates err with the failing path for a consistent
// message across every concrete decoder.
func WrapDecodeError(path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("decoder: %s: %w", path, err)
}
