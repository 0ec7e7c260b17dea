// Package flac wraps drgolem/go-flac as a decoder.NativeDecoder.
package flac

import (
	"fmt"

	goflac "github.com/drgolem/go-flac/flac"

	"github.com/drgolem/audioengine/pkg/decoder/nativewrap"
)

// outputBitsPerSample is the PCM width libFLAC is asked to expand every
// frame to, regardless of the file's native bit depth; 16 matches the
// other native decoders and keeps Adapter's quantization path uniform.
const outputBitsPerSample = 16

// Decoder wraps the go-flac frame decoder via nativewrap.Wrapper.
type Decoder struct {
	nativewrap.Wrapper
}

// NewDecoder creates a new, unopened FLAC decoder requesting 16-bit PCM
// output from libFLAC.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open constructs a libFLAC frame decoder and opens fileName through it.
func (d *Decoder) Open(fileName string) error {
	lib, err := goflac.NewFlacFrameDecoder(outputBitsPerSample)
	if err != nil {
		return fmt.Errorf("flac: create decoder: %w", err)
	}
	if err := d.Bind(lib, fileName); err != nil {
		return fmt.Errorf("flac: %w", err)
	}
	return nil
}
