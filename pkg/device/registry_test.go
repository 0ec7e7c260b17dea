package device

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drgolem/audioengine/pkg/audioformat"
)

func TestScoreExactChannelMatchBeatsWiderDevice(t *testing.T) {
	format, _ := audioformat.New(44100, 2, audioformat.EncodingS16)

	exact := Info{MaxOutputChannels: 2, DefaultSampleRate: 44100}
	wider := Info{MaxOutputChannels: 8, DefaultSampleRate: 44100}

	assert.Greater(t, Score(exact, format), Score(wider, format))
}

func TestScorePenalizesChannelDeficitProportionally(t *testing.T) {
	format, _ := audioformat.New(44100, 6, audioformat.EncodingS16)
	stereo := Info{MaxOutputChannels: 2, DefaultSampleRate: 44100} // 4 channels short
	quad := Info{MaxOutputChannels: 4, DefaultSampleRate: 44100}   // 2 channels short

	// Further from the requested channel count scores strictly lower, and
	// the gap is exactly 10 points per channel of difference (the
	// remaining +50/+30 bonuses are identical for both devices).
	assert.Less(t, Score(stereo, format), Score(quad, format))
	assert.Equal(t, Score(quad, format)-Score(stereo, format), 20)
}

func TestScoreRewardsMatchingSampleRate(t *testing.T) {
	format, _ := audioformat.New(48000, 2, audioformat.EncodingS16)

	matching := Info{MaxOutputChannels: 2, DefaultSampleRate: 48000}
	mismatched := Info{MaxOutputChannels: 2, DefaultSampleRate: 44100}

	assert.Greater(t, Score(matching, format), Score(mismatched, format))
}

func TestScoreZeroChannelDeviceRejected(t *testing.T) {
	format, _ := audioformat.New(44100, 2, audioformat.EncodingS16)
	assert.Less(t, Score(Info{MaxOutputChannels: 0}, format), 0)
}
