package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drgolem/audioengine/pkg/audioformat"
	"github.com/drgolem/audioengine/pkg/clock"
	"github.com/drgolem/audioengine/pkg/ring"
)

func newTestBackend(onUnderrun, onRecovered func()) *Backend {
	return New(ring.New(4096), clock.New(44100), onUnderrun, onRecovered)
}

func TestVolumeClamp(t *testing.T) {
	b := newTestBackend(nil, nil)
	b.SetVolume(5)
	assert.InDelta(t, 2.0, b.Volume(), 1e-6)

	b.SetVolume(-1)
	assert.InDelta(t, 0.0, b.Volume(), 1e-6)
}

func TestDefaultVolumeIsUnity(t *testing.T) {
	b := newTestBackend(nil, nil)
	assert.InDelta(t, 1.0, b.Volume(), 1e-6)
}

func TestWriteQuantizedS16FullScale(t *testing.T) {
	buf := make([]byte, 2)
	writeQuantized(buf, 1.0, audioformat.EncodingS16)
	v := int16(uint16(buf[0]) | uint16(buf[1])<<8)
	assert.Equal(t, int16(32767), v)
}

func TestNoteUnderrunFiresOnlyAfterDebounce(t *testing.T) {
	fired := 0
	b := newTestBackend(func() { fired++ }, nil)

	b.noteUnderrun() // first tick, starts the window
	assert.Equal(t, 0, fired)

	time.Sleep(underrunDebounce + 20*time.Millisecond)
	b.noteUnderrun() // persisted past debounce
	assert.Equal(t, 1, fired)

	b.noteUnderrun() // still underrunning, must not refire
	assert.Equal(t, 1, fired)
}

func TestNoteRecoveredFiresOnlyAfterAFiredUnderrun(t *testing.T) {
	recovered := 0
	b := newTestBackend(nil, func() { recovered++ })

	b.noteRecovered() // never underran, must not fire
	assert.Equal(t, 0, recovered)

	b.noteUnderrun()
	time.Sleep(underrunDebounce + 20*time.Millisecond)
	b.noteUnderrun()
	require.Equal(t, uint64(1), b.Underruns())

	b.noteRecovered()
	assert.Equal(t, 1, recovered)
}

func TestClampf(t *testing.T) {
	assert.Equal(t, float32(1.0), clampf(2.5, -1, 1))
	assert.Equal(t, float32(-1.0), clampf(-2.5, -1, 1))
	assert.Equal(t, float32(0.5), clampf(0.5, -1, 1))
}
