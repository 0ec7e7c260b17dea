// Package config loads the audio engine's settings through a layered
// viper configuration: compiled-in defaults, an optional YAML file, then
// environment variable overrides. Grounded on tphakala-birdnet-go's
// internal/conf loader (SetDefault/ReadInConfig/BindEnv) and field set
// grounded on original_source/rust-core/src/config/audio.rs's AudioConfig.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/drgolem/audioengine/pkg/bitperfect"
	"github.com/drgolem/audioengine/pkg/engine"
)

// Settings is the full configuration surface consumed by cmd/ to build an
// engine.Config/bitperfect.Config pair and a control.Server.
type Settings struct {
	BufferSizeFrames  int     `mapstructure:"buffer_size_frames"`
	BufferPoolSize    int     `mapstructure:"buffer_pool_size"`
	RingBufferSize    int     `mapstructure:"ring_buffer_size"`
	TargetBufferLevel float32 `mapstructure:"target_buffer_level"`
	Volume            float32 `mapstructure:"volume"`
	LogLevel          string  `mapstructure:"log_level"`

	BitPerfect struct {
		Mode           string `mapstructure:"mode"` // disabled|automatic|exclusive|passthrough
		PreferInteger  bool   `mapstructure:"prefer_integer"`
		AutoSampleRate bool   `mapstructure:"auto_sample_rate"`
		AllowResampling bool  `mapstructure:"allow_resampling"`
	} `mapstructure:"bitperfect"`

	Control struct {
		ListenAddress string `mapstructure:"listen_address"`
	} `mapstructure:"control"`
}

// Load builds a viper instance from compiled-in defaults, an optional
// config file at path (ignored if empty or not found), and environment
// variables prefixed AUDIOENGINE_ (AUDIOENGINE_BITPERFECT_MODE maps to
// bitperfect.mode, etc., matching the teacher's dot-to-underscore
// replacer). Returns a validated Settings.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix("AUDIOENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("buffer_size_frames", 4096)
	v.SetDefault("buffer_pool_size", 16)
	v.SetDefault("ring_buffer_size", 65536)
	v.SetDefault("target_buffer_level", 0.5)
	v.SetDefault("volume", 1.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("bitperfect.mode", "automatic")
	v.SetDefault("bitperfect.prefer_integer", true)
	v.SetDefault("bitperfect.auto_sample_rate", true)
	v.SetDefault("bitperfect.allow_resampling", false)
	v.SetDefault("control.listen_address", "127.0.0.1:9090")
}

// Validate checks the ranges the spec calls out: target_buffer_level ∈
// (0,1], volume ∈ [0,2], buffer_pool_size > 0.
func (s *Settings) Validate() error {
	if s.BufferPoolSize <= 0 {
		return fmt.Errorf("config: buffer_pool_size must be > 0, got %d", s.BufferPoolSize)
	}
	if s.BufferSizeFrames <= 0 {
		return fmt.Errorf("config: buffer_size_frames must be > 0, got %d", s.BufferSizeFrames)
	}
	if s.RingBufferSize <= 0 {
		return fmt.Errorf("config: ring_buffer_size must be > 0, got %d", s.RingBufferSize)
	}
	if s.TargetBufferLevel <= 0 || s.TargetBufferLevel > 1 {
		return fmt.Errorf("config: target_buffer_level must be in (0,1], got %f", s.TargetBufferLevel)
	}
	if s.Volume < 0 || s.Volume > 2 {
		return fmt.Errorf("config: volume must be in [0,2], got %f", s.Volume)
	}
	if _, err := parseBitPerfectMode(s.BitPerfect.Mode); err != nil {
		return err
	}
	return nil
}

func parseBitPerfectMode(mode string) (bitperfect.Mode, error) {
	switch strings.ToLower(mode) {
	case "disabled":
		return bitperfect.ModeDisabled, nil
	case "automatic":
		return bitperfect.ModeAutomatic, nil
	case "exclusive":
		return bitperfect.ModeExclusive, nil
	case "passthrough":
		return bitperfect.ModePassthrough, nil
	default:
		return 0, fmt.Errorf("config: unknown bitperfect mode %q", mode)
	}
}

// EngineConfig translates Settings into an engine.Config ready for
// engine.New.
func (s *Settings) EngineConfig() engine.Config {
	mode, _ := parseBitPerfectMode(s.BitPerfect.Mode)
	return engine.Config{
		RingBufferSize:    uint64(s.RingBufferSize),
		BufferPoolSize:    s.BufferPoolSize,
		FramesPerBuffer:   s.BufferSizeFrames,
		TargetBufferLevel: s.TargetBufferLevel,
		CommandPollPeriod: 10 * time.Millisecond,
		BitPerfect: bitperfect.Config{
			Mode:            mode,
			PreferInteger:   s.BitPerfect.PreferInteger,
			AutoSampleRate:  s.BitPerfect.AutoSampleRate,
			AllowResampling: s.BitPerfect.AllowResampling,
		},
		EventQueueSize: 64,
	}
}
