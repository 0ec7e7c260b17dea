package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4096, s.BufferSizeFrames)
	assert.Equal(t, 16, s.BufferPoolSize)
	assert.Equal(t, float32(1.0), s.Volume)
	assert.Equal(t, "automatic", s.BitPerfect.Mode)
	assert.Equal(t, "127.0.0.1:9090", s.Control.ListenAddress)
}

func TestLoadHonorsEnvironmentOverride(t *testing.T) {
	t.Setenv("AUDIOENGINE_VOLUME", "0.25")
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), s.Volume)
}

func TestLoadRejectsInvalidTargetBufferLevel(t *testing.T) {
	t.Setenv("AUDIOENGINE_TARGET_BUFFER_LEVEL", "1.5")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsUnknownBitPerfectMode(t *testing.T) {
	t.Setenv("AUDIOENGINE_BITPERFECT_MODE", "turbo")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	content := "buffer_pool_size: 32\nvolume: 0.8\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 32, s.BufferPoolSize)
	assert.Equal(t, float32(0.8), s.Volume)
}

func TestEngineConfigTranslatesBitPerfectMode(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	cfg := s.EngineConfig()
	assert.Equal(t, uint64(s.RingBufferSize), cfg.RingBufferSize)
	assert.Equal(t, s.BufferPoolSize, cfg.BufferPoolSize)
}
