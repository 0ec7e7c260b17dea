package decoder

// NativeDecoder is implemented by codec wrappers that hand back raw
// interleaved PCM bytes at their own bit depth (signed little-endian,
// except 8-bit which is unsigned) rather than float32. Adapter bridges a
// NativeDecoder into the Decoder interface used by the rest of the engine.
type NativeDecoder interface {
	Open(fileName string) error
	Close() error

	// GetFormat returns sample rate (Hz), channel count, and bits per
	// sample (8/16/24/32).
	GetFormat() (rate, channels, bitsPerSample int)

	// DecodeSamples decodes up to samples frames into audio, which must be
	// at least samples*channels*(bitsPerSample/8) bytes. Returns the
	// number of frames actually decoded; 0 with a nil error signals EOF.
	DecodeSamples(samples int, audio []byte) (int, error)
}

// Seeker is optionally implemented by a NativeDecoder that supports
// repositioning. Decoders that don't implement it (e.g. streaming mp3)
// report ErrSeekUnsupported through Adapter.Seek.
type Seeker interface {
	SeekFrame(frame int64) error
}
