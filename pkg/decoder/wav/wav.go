// Package wav wraps youpy/go-wav as a decoder.NativeDecoder.
package wav

import (
	"fmt"
	"os"

	"github.com/youpy/go-wav"
)

// Decoder wraps go-wav for decoding WAV audio files.
type Decoder struct {
	file     *os.File
	reader   *wav.Reader
	rate     int
	channels int
	bps      int
}

// NewDecoder creates a new, unopened WAV decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open opens a WAV file for decoding.
func (d *Decoder) Open(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("wav: open %s: %w", fileName, err)
	}

	reader := wav.NewReader(file)
	format, err := reader.Format()
	if err != nil {
		file.Close()
		return fmt.Errorf("wav: read format of %s: %w", fileName, err)
	}

	if format.AudioFormat != wav.AudioFormatPCM {
		file.Close()
		return fmt.Errorf("wav: %s: unsupported audio format %d, only PCM is supported", fileName, format.AudioFormat)
	}

	d.file = file
	d.reader = reader
	d.rate = int(format.SampleRate)
	d.channels = int(format.NumChannels)
	d.bps = int(format.BitsPerSample)

	return nil
}

// Close closes the underlying file.
func (d *Decoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

// GetFormat returns sample rate, channels, and bits per sample.
func (d *Decoder) GetFormat() (rate, channels, bitsPerSample int) {
	return d.rate, d.channels, d.bps
}

// DecodeSamples decodes up to 'samples' frames into audio. go-wav hands
// back one frame at a time regardless of how many are requested, so the
// loop here is bounded both by samples and by how many whole frames
// still fit in audio, checked once up front rather than per channel.
func (d *Decoder) DecodeSamples(samples int, audio []byte) (int, error) {
	if d.reader == nil {
		return 0, fmt.Errorf("wav: decoder not initialized")
	}

	bytesPerSample := d.bps / 8
	frameBytes := d.channels * bytesPerSample
	if maxFit := len(audio) / frameBytes; samples > maxFit {
		samples = maxFit
	}

	total := 0
	for total < samples {
		frame, err := d.reader.ReadSamples(1)
		if err != nil {
			return total, fmt.Errorf("wav: decode frame %d: %w", total, err)
		}
		if len(frame) == 0 {
			return total, nil
		}

		offset := total * frameBytes
		values := frame[0].Values
		for ch := 0; ch < d.channels; ch++ {
			// go-wav's Sample.Values is sized for the file's own channel
			// count, but callers probing an unusual layout should not
			// panic on a short slice.
			if ch >= len(values) {
				break
			}
			if err := writeLEValue(audio[offset+ch*bytesPerSample:], values[ch], d.bps); err != nil {
				return total, fmt.Errorf("wav: %w", err)
			}
		}
		total++
	}

	return total, nil
}

// writeLEValue quantizes value to bitsPerSample bits and writes it
// little-endian at the start of dst, matching the layout decoder.Adapter
// expects from every NativeDecoder regardless of codec.
func writeLEValue(dst []byte, value int, bitsPerSample int) error {
	switch bitsPerSample {
	case 8:
		dst[0] = byte(value)
	case 16:
		dst[0] = byte(value)
		dst[1] = byte(value >> 8)
	case 24:
		dst[0] = byte(value)
		dst[1] = byte(value >> 8)
		dst[2] = byte(value >> 16)
	case 32:
		dst[0] = byte(value)
		dst[1] = byte(value >> 8)
		dst[2] = byte(value >> 16)
		dst[3] = byte(value >> 24)
	default:
		return fmt.Errorf("unsupported bits per sample: %d", bitsPerSample)
	}
	return nil
}
