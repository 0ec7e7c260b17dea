package bitperfect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drgolem/audioengine/pkg/audioformat"
	"github.com/drgolem/audioengine/pkg/device"
)

type fakeDevices struct {
	devices []device.Info
	def     device.Info
	best    device.Info
	bestErr error
}

func (f *fakeDevices) List() ([]device.Info, error) { return f.devices, nil }
func (f *fakeDevices) Default() (device.Info, error) { return f.def, nil }
func (f *fakeDevices) FindBestFor(format audioformat.Format) (device.Info, error) {
	return f.best, f.bestErr
}

func TestPrepareBitPerfectWhenDeviceSupportsFormat(t *testing.T) {
	exact := device.Info{Index: 0, MaxOutputChannels: 2, DefaultSampleRate: 44100}
	fd := &fakeDevices{devices: []device.Info{exact}, def: exact, best: exact}
	n := New(DefaultConfig(), fd)

	source, _ := audioformat.New(44100, 2, audioformat.EncodingS16)
	got, d, err := n.Prepare(source)
	require.NoError(t, err)
	assert.Equal(t, source, got)
	assert.Equal(t, exact.Index, d.Index)
	assert.True(t, n.IsBitPerfect())
}

func TestPrepareFailsWhenResamplingDisallowed(t *testing.T) {
	mismatch := device.Info{Index: 0, MaxOutputChannels: 2, DefaultSampleRate: 48000}
	fd := &fakeDevices{devices: []device.Info{mismatch}, def: mismatch, best: mismatch}
	cfg := DefaultConfig()
	cfg.AllowResampling = false
	n := New(cfg, fd)

	source, _ := audioformat.New(44100, 2, audioformat.EncodingS16)
	_, _, err := n.Prepare(source)
	assert.ErrorIs(t, err, ErrBitPerfectUnavailable)
	assert.False(t, n.IsBitPerfect())
}

func TestPrepareResamplesWhenAllowed(t *testing.T) {
	mismatch := device.Info{Index: 0, MaxOutputChannels: 2, DefaultSampleRate: 48000}
	fd := &fakeDevices{devices: []device.Info{mismatch}, def: mismatch, best: mismatch}
	cfg := DefaultConfig()
	cfg.AllowResampling = true
	n := New(cfg, fd)

	source, _ := audioformat.New(44100, 2, audioformat.EncodingS16)
	target, d, err := n.Prepare(source)
	require.NoError(t, err)
	assert.Equal(t, 48000, target.SampleRate)
	assert.Equal(t, mismatch.Index, d.Index)
	assert.False(t, n.IsBitPerfect())
}

func TestDisabledModeSkipsBitPerfectCheck(t *testing.T) {
	def := device.Info{Index: 0, MaxOutputChannels: 2, DefaultSampleRate: 48000}
	fd := &fakeDevices{def: def}
	cfg := DefaultConfig()
	cfg.Mode = ModeDisabled
	n := New(cfg, fd)

	source, _ := audioformat.New(44100, 2, audioformat.EncodingS16)
	got, d, err := n.Prepare(source)
	require.NoError(t, err)
	want, _ := audioformat.New(48000, 2, audioformat.EncodingS16)
	assert.Equal(t, want, got)
	assert.Equal(t, def.Index, d.Index)
	assert.False(t, n.IsBitPerfect())
}

func TestCheckIntegrityReflectsCurrentDefaultDevice(t *testing.T) {
	exact := device.Info{Index: 0, MaxOutputChannels: 2, DefaultSampleRate: 44100}
	fd := &fakeDevices{devices: []device.Info{exact}, def: exact, best: exact}
	n := New(DefaultConfig(), fd)

	source, _ := audioformat.New(44100, 2, audioformat.EncodingS16)
	_, _, err := n.Prepare(source)
	require.NoError(t, err)

	ok, err := n.CheckIntegrity()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckIntegrityFalseBeforePrepare(t *testing.T) {
	n := New(DefaultConfig(), &fakeDevices{})
	ok, err := n.CheckIntegrity()
	require.NoError(t, err)
	assert.False(t, ok)
}
