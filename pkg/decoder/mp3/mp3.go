// Package mp3 wraps drgolem/go-mpg123 as a decoder.NativeDecoder.
package mp3

import (
	"fmt"

	"github.com/drgolem/go-mpg123/mpg123"

	"github.com/drgolem/audioengine/pkg/decoder/nativewrap"
)

// Decoder wraps mpg123.Decoder via nativewrap.Wrapper, since mpg123
// already does all the mono/stereo and bit-depth expansion work the
// DecodeSamples call needs.
type Decoder struct {
	nativewrap.Wrapper
}

// NewDecoder creates a new, unopened MP3 decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open constructs an mpg123 handle and opens fileName through it.
func (d *Decoder) Open(fileName string) error {
	lib, err := mpg123.NewDecoder("")
	if err != nil {
		return fmt.Errorf("mp3: create decoder: %w", err)
	}
	if err := d.Bind(lib, fileName); err != nil {
		return fmt.Errorf("mp3: %w", err)
	}
	return nil
}
