// Package nativewrap factors out the Open/Close/GetFormat/DecodeSamples
// delegation shared by every NativeDecoder that wraps a cgo-backed codec
// library (mpg123, libFLAC): both mp3.Decoder and flac.Decoder do nothing
// but construct their library handle and hand decode calls straight
// through to it, so that bookkeeping lives here once instead of twice.
package nativewrap

import "fmt"

// LibDecoder is the shape every wrapped codec library handle already
// exposes: construct via the library's own constructor, Open a path,
// read its negotiated format, then DecodeSamples until exhausted.
// Close/Delete release the native handle and must be safe to call once.
type LibDecoder interface {
	Open(fileName string) error
	Close()
	Delete()
	GetFormat() (rate, channels, bitsPerSample int)
	DecodeSamples(samples int, audio []byte) (int, error)
}

// Wrapper implements the GetFormat/DecodeSamples/Close half of
// decoder.NativeDecoder for any LibDecoder. Embedders supply their own
// Open method (library construction differs) and call Bind once the
// library handle is open.
type Wrapper struct {
	lib      LibDecoder
	rate     int
	channels int
	bps      int
}

// Bind takes ownership of an already-constructed LibDecoder, opens
// fileName through it, and records its negotiated format. On failure the
// library handle is deleted before returning.
func (w *Wrapper) Bind(lib LibDecoder, fileName string) error {
	if err := lib.Open(fileName); err != nil {
		lib.Delete()
		return fmt.Errorf("open %s: %w", fileName, err)
	}
	w.lib = lib
	w.rate, w.channels, w.bps = lib.GetFormat()
	return nil
}

// GetFormat returns sample rate, channels, and bits per sample.
func (w *Wrapper) GetFormat() (rate, channels, bitsPerSample int) {
	return w.rate, w.channels, w.bps
}

// DecodeSamples delegates straight to the wrapped library; it handles
// the format's mono/stereo and bit-depth expansion internally.
func (w *Wrapper) DecodeSamples(samples int, audio []byte) (int, error) {
	if w.lib == nil {
		return 0, fmt.Errorf("nativewrap: decoder not initialized")
	}
	return w.lib.DecodeSamples(samples, audio)
}

// Close releases the native handle. Safe to call on an unbound or
// already-closed Wrapper.
func (w *Wrapper) Close() error {
	if w.lib != nil {
		w.lib.Close()
		w.lib.Delete()
		w.lib = nil
	}
	return nil
}
