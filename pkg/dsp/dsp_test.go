package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainEmptyIsPassthrough(t *testing.T) {
	c := NewChain()
	input := []float32{0.1, -0.2, 0.3, -0.4}
	output := make([]float32, len(input))

	require.NoError(t, c.Process(input, output))
	assert.Equal(t, input, output)
}

func TestChainDisabledIsPassthrough(t *testing.T) {
	c := NewChain()
	c.Add(NewVolume(0)) // would zero everything if it ran
	c.SetEnabled(false)

	input := []float32{0.5, 0.25}
	output := make([]float32, len(input))
	require.NoError(t, c.Process(input, output))
	assert.Equal(t, input, output)
}

func TestChainSkipsDisabledProcessor(t *testing.T) {
	c := NewChain()
	v := NewVolume(0)
	v.SetEnabled(false)
	c.Add(v)

	input := []float32{0.5, 0.25}
	output := make([]float32, len(input))
	require.NoError(t, c.Process(input, output))
	assert.Equal(t, input, output)
}

func TestChainSizeMismatch(t *testing.T) {
	c := NewChain()
	err := c.Process(make([]float32, 4), make([]float32, 2))
	require.Error(t, err)
}

func TestVolumeClamp(t *testing.T) {
	v := NewVolume(5)
	assert.InDelta(t, 2.0, v.Gain(), 1e-6)

	v.SetGain(-1)
	assert.InDelta(t, 0.0, v.Gain(), 1e-6)
}

func TestVolumeProcess(t *testing.T) {
	v := NewVolume(0.5)
	input := []float32{1, -1, 0.5}
	output := make([]float32, 3)
	require.NoError(t, v.Process(input, output))
	assert.InDeltaSlice(t, []float32{0.5, -0.5, 0.25}, output, 1e-6)
}

func TestGainDbToLinear(t *testing.T) {
	g := NewGain(0)
	assert.InDelta(t, 1.0, g.LinearGain(), 1e-6)

	g.SetGainDb(20)
	assert.InDelta(t, 10.0, g.LinearGain(), 1e-3)
}

func TestEqGainClamp(t *testing.T) {
	b := &Band{FrequencyHz: 1000, Q: 1}
	b.SetGainDb(100)
	assert.Equal(t, 20.0, b.GainDb)

	b.SetGainDb(-100)
	assert.Equal(t, -20.0, b.GainDb)
}

func TestEqSkipsNegligibleGainBands(t *testing.T) {
	eq := NewEqualizer(44100, 2, []Band{
		{FrequencyHz: 1000, GainDb: 0.001, Q: 1},
	})
	input := []float32{0.3, -0.3, 0.1, -0.1}
	output := make([]float32, len(input))
	require.NoError(t, eq.Process(input, output))
	// Gain below the 0.01dB threshold must be a no-op bypass for that band.
	assert.Equal(t, input, output)
}

func TestEqProcessesAudibleBand(t *testing.T) {
	eq := NewEqualizer(44100, 1, []Band{
		{FrequencyHz: 1000, GainDb: 6, Q: 1},
	})
	input := make([]float32, 256)
	for i := range input {
		input[i] = 0.1
	}
	output := make([]float32, len(input))
	require.NoError(t, eq.Process(input, output))
	// A boosted band must change at least some samples from the input.
	changed := false
	for i := range input {
		if input[i] != output[i] {
			changed = true
			break
		}
	}
	assert.True(t, changed)
}

func TestEqualizerPresetsIncludeFlat(t *testing.T) {
	presets := Presets()
	require.NotEmpty(t, presets)
	assert.Equal(t, "Flat", presets[0].Name)
	assert.Empty(t, presets[0].Bands)
}

func TestResamplerIdentityBypass(t *testing.T) {
	r, err := NewResampler(44100, 44100, 2, QualityHigh)
	require.NoError(t, err)

	input := []float32{0.1, -0.1, 0.2, -0.2}
	output := make([]float32, len(input))
	require.NoError(t, r.Process(input, output))
	assert.Equal(t, input, output)
}
