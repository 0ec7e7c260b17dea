// Package ogg wraps jfreymuth/oggvorbis, a pure-Go Vorbis decoder. Unlike
// the corpus's other codec wrappers it already produces interleaved
// float32, so Decoder implements decoder.Decoder directly rather than
// going through decoder.Adapter.
package ogg

import (
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"github.com/drgolem/audioengine/pkg/audioformat"
)

// Decoder decodes an Ogg Vorbis file into interleaved float32 frames.
type Decoder struct {
	file   *os.File
	reader *oggvorbis.Reader
	format audioformat.Format
	frame  int64
}

// NewDecoder creates a new, unopened Ogg Vorbis decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Open(fileName string) error {
	f, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("failed to open ogg file: %w", err)
	}

	r, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to read ogg vorbis stream: %w", err)
	}

	format, err := audioformat.New(r.SampleRate(), r.Channels(), audioformat.EncodingF32)
	if err != nil {
		f.Close()
		return fmt.Errorf("invalid ogg vorbis format: %w", err)
	}

	d.file = f
	d.reader = r
	d.format = format
	return nil
}

func (d *Decoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

func (d *Decoder) Format() audioformat.Format { return d.format }

func (d *Decoder) TotalFrames() (int64, bool) {
	if d.reader == nil {
		return 0, false
	}
	if n := d.reader.Length(); n > 0 {
		return n, true
	}
	return 0, false
}

func (d *Decoder) CurrentFrame() int64 { return d.frame }

func (d *Decoder) DecodeNext(dst []float32, maxFrames int) (int, error) {
	if d.reader == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}
	want := maxFrames * d.format.Channels
	if want > len(dst) {
		want = len(dst)
	}
	n, err := d.reader.Read(dst[:want])
	frames := n / d.format.Channels
	d.frame += int64(frames)
	if err == io.EOF {
		err = nil
	}
	return frames, err
}

func (d *Decoder) Seek(targetFrame int64) error {
	if err := d.reader.SetPosition(targetFrame); err != nil {
		return fmt.Errorf("ogg seek: %w", err)
	}
	d.frame = targetFrame
	return nil
}

func (d *Decoder) Reset() {}
