// Package device enumerates PortAudio output devices and scores them
// against a requested AudioFormat, choosing the device that can carry a
// track with the least compromise to its bit-perfect delivery.
package device

import (
	"fmt"

	"github.com/drgolem/go-portaudio/portaudio"

	"github.com/drgolem/audioengine/pkg/audioformat"
)

// Info describes one enumerated output device.
type Info struct {
	Index             int
	Name              string
	HostAPI           string
	MaxOutputChannels int
	DefaultSampleRate float64
}

// Registry enumerates and scores PortAudio output devices. PortAudio must
// already be initialized (portaudio.Initialize) before calling List.
type Registry struct{}

// NewRegistry constructs a Registry. PortAudio initialization is the
// caller's responsibility (one process-wide Initialize/Terminate pair),
// matching the teacher's cmd-level lifecycle.
func NewRegistry() *Registry {
	return &Registry{}
}

// List enumerates every output-capable device PortAudio reports.
func (r *Registry) List() ([]Info, error) {
	count, err := portaudio.GetDeviceCount()
	if err != nil {
		return nil, fmt.Errorf("device: enumerate: %w", err)
	}

	infos := make([]Info, 0, count)
	for i := 0; i < count; i++ {
		di, err := portaudio.GetDeviceInfo(i)
		if err != nil {
			continue
		}
		if di.MaxOutputChannels <= 0 {
			continue
		}
		infos = append(infos, Info{
			Index:             i,
			Name:              di.Name,
			HostAPI:           di.HostApiName,
			MaxOutputChannels: di.MaxOutputChannels,
			DefaultSampleRate: di.DefaultSampleRate,
		})
	}
	return infos, nil
}

// Default returns the host's default output device.
func (r *Registry) Default() (Info, error) {
	idx, err := portaudio.GetDefaultOutputDevice()
	if err != nil {
		return Info{}, fmt.Errorf("device: default output device: %w", err)
	}
	di, err := portaudio.GetDeviceInfo(idx)
	if err != nil {
		return Info{}, fmt.Errorf("device: default output device info: %w", err)
	}
	return Info{
		Index:             idx,
		Name:              di.Name,
		HostAPI:           di.HostApiName,
		MaxOutputChannels: di.MaxOutputChannels,
		DefaultSampleRate: di.DefaultSampleRate,
	}, nil
}

// Score rates how well a device can carry format without compromise.
// Grounded directly on the Rust original's backend.rs::score_config point
// system rather than device.rs's first-match scan (the resolved Open
// Question 3): exact channel match is worth +100, any mismatch (over or
// under-provisioned) costs 10 points per channel of difference rather than
// being rejected outright, since a device advertising fewer channels than
// the track may still be usable via a downmix elsewhere in the chain; +50
// for a sample rate it can run natively (PortAudio devices report only a
// default rate, so "in range" here means within 1% of it, a practical
// proxy for "this device's native clock covers it"), and +30 for the
// encoding, which every device is credited with (see below).
func Score(info Info, format audioformat.Format) int {
	if info.MaxOutputChannels <= 0 {
		return -1000
	}

	score := 0
	if info.MaxOutputChannels == format.Channels {
		score += 100
	} else {
		diff := info.MaxOutputChannels - format.Channels
		if diff < 0 {
			diff = -diff
		}
		score -= diff * 10
	}

	if info.DefaultSampleRate > 0 {
		ratio := float64(format.SampleRate) / info.DefaultSampleRate
		if ratio > 0.99 && ratio < 1.01 {
			score += 50
		}
	}

	// PortAudio reports only a default sample format capability at the
	// device level (the negotiable set lives in the stream-open call), so
	// this credits any device: the bitperfect negotiator (C9) does the
	// real per-stream encoding check at stream-open time.
	score += 30

	return score
}

// FindBestFor scores every enumerated device against format and returns
// the highest scorer, which must score above zero. Returns an error when
// List fails or no device scores above zero; a channel-count mismatch
// costs points (Score) rather than disqualifying a device outright.
func (r *Registry) FindBestFor(format audioformat.Format) (Info, error) {
	devices, err := r.List()
	if err != nil {
		return Info{}, err
	}

	best := Info{}
	bestScore := 0
	for _, d := range devices {
		if s := Score(d, format); s > bestScore {
			bestScore = s
			best = d
		}
	}
	if bestScore <= 0 {
		return Info{}, fmt.Errorf("device: no output device can carry %s", format)
	}
	return best, nil
}
