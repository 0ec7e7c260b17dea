package decoder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/drgolem/audioengine/pkg/decoder/flac"
	"github.com/drgolem/audioengine/pkg/decoder/mp3"
	"github.com/drgolem/audioengine/pkg/decoder/ogg"
	"github.com/drgolem/audioengine/pkg/decoder/wav"
)

// Open selects a decoder by file extension and opens it. Supported
// containers: .wav, .flac/.fla, .mp3, .ogg/.oga. .aac/.m4a are recognized
// but rejected with ErrUnsupportedFormat: no complete, fetchable Go AAC
// decoder exists in this module's dependency set (see DESIGN.md).
func Open(path string) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".wav":
		native := wav.NewDecoder()
		if err := native.Open(path); err != nil {
			return nil, WrapDecodeError(path, err)
		}
		return wrapNative(path, native)

	case ".flac", ".fla":
		native := flac.NewDecoder()
		if err := native.Open(path); err != nil {
			return nil, WrapDecodeError(path, err)
		}
		return wrapNative(path, native)

	case ".mp3":
		native := mp3.NewDecoder()
		if err := native.Open(path); err != nil {
			return nil, WrapDecodeError(path, err)
		}
		return wrapNative(path, native)

	case ".ogg", ".oga":
		d := ogg.NewDecoder()
		if err := d.Open(path); err != nil {
			return nil, WrapDecodeError(path, err)
		}
		return d, nil

	case ".aac", ".m4a":
		return nil, WrapDecodeError(path, fmt.Errorf("%w: aac/m4a not supported", ErrUnsupportedFormat))

	default:
		return nil, WrapDecodeError(path, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext))
	}
}

func wrapNative(path string, native NativeDecoder) (Decoder, error) {
	a, err := NewAdapter(native)
	if err != nil {
		native.Close()
		return nil, WrapDecodeError(path, err)
	}
	return a, nil
}
