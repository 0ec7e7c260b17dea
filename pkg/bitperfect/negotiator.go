// Package bitperfect decides whether a source AudioFormat can be delivered
// to an output device unmodified, or whether resampling is required, and
// tracks whether the currently prepared format is still being delivered
// without compromise.
package bitperfect

import (
	"fmt"

	"github.com/drgolem/audioengine/pkg/audioformat"
	"github.com/drgolem/audioengine/pkg/device"
)

// Mode controls how aggressively the negotiator insists on unmodified
// delivery. Grounded on original_source/rust-core/src/output/bitperfect.rs's
// BitPerfectMode.
type Mode int

const (
	ModeDisabled Mode = iota
	ModeAutomatic
	ModeExclusive
	ModePassthrough
)

func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeAutomatic:
		return "automatic"
	case ModeExclusive:
		return "exclusive"
	case ModePassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// Config mirrors the Rust original's BitPerfectConfig.
type Config struct {
	Mode             Mode
	PreferInteger    bool
	AutoSampleRate   bool
	AllowResampling bool
}

// DefaultConfig matches the Rust original's Default impl: Automatic mode,
// prefer integer delivery, auto sample rate, resampling disabled.
func DefaultConfig() Config {
	return Config{
		Mode:           ModeAutomatic,
		PreferInteger:  true,
		AutoSampleRate: true,
		AllowResampling: false,
	}
}

// Diagnostics is the read-only status snapshot exposed to the control
// plane.
type Diagnostics struct {
	Mode           Mode
	IsActive       bool
	CurrentFormat  audioformat.Format
	HasFormat      bool
	DeviceCount    int
	DefaultDevice  device.Info
	HasDefault     bool
}

// ErrBitPerfectUnavailable is returned by Prepare when bit-perfect delivery
// isn't possible and resampling is not allowed by Config.
var ErrBitPerfectUnavailable = fmt.Errorf("bitperfect: cannot achieve bit-perfect output")

// DeviceSource is the subset of *device.Registry the negotiator needs,
// narrowed to an interface so tests can substitute a fixed device list
// instead of calling into PortAudio.
type DeviceSource interface {
	List() ([]device.Info, error)
	Default() (device.Info, error)
	FindBestFor(format audioformat.Format) (device.Info, error)
}

// Negotiator decides, for a given source format and registry of available
// devices, whether delivery can be bit-perfect and which device/format to
// use.
type Negotiator struct {
	config   Config
	registry DeviceSource

	currentFormat   audioformat.Format
	hasFormat       bool
	isBitPerfect    bool
	preferredIndex  int
	hasPreferred    bool
}

// New constructs a Negotiator against the given device source.
func New(config Config, registry DeviceSource) *Negotiator {
	return &Negotiator{config: config, registry: registry}
}

func (n *Negotiator) SetConfig(config Config) { n.config = config }
func (n *Negotiator) Config() Config          { return n.config }
func (n *Negotiator) IsBitPerfect() bool      { return n.isBitPerfect }

// SetPreferredDevice pins device selection to the given device index for
// subsequent Prepare calls, overriding FindBestFor's scoring (control-plane
// output.set_device). ClearPreferredDevice restores automatic scoring.
func (n *Negotiator) SetPreferredDevice(index int) {
	n.preferredIndex = index
	n.hasPreferred = true
}

func (n *Negotiator) ClearPreferredDevice() {
	n.hasPreferred = false
}

func (n *Negotiator) preferredDevice() (device.Info, bool) {
	if !n.hasPreferred {
		return device.Info{}, false
	}
	devices, err := n.registry.List()
	if err != nil {
		return device.Info{}, false
	}
	for _, d := range devices {
		if d.Index == n.preferredIndex {
			return d, true
		}
	}
	return device.Info{}, false
}

// Prepare selects a device and delivery format for sourceFormat. In
// ModeDisabled it always uses the default device's native rate with no
// guarantee of bit-perfect delivery. In Automatic/Exclusive/Passthrough it
// first checks whether some device can carry sourceFormat unmodified; if
// not and resampling is disallowed, it returns ErrBitPerfectUnavailable
// (matching the Rust original's behavior exactly).
func (n *Negotiator) Prepare(sourceFormat audioformat.Format) (audioformat.Format, device.Info, error) {
	n.currentFormat = sourceFormat
	n.hasFormat = true

	if n.config.Mode == ModeDisabled {
		d, err := n.registry.Default()
		if err != nil {
			return audioformat.Format{}, device.Info{}, err
		}
		n.isBitPerfect = false
		targetRate := sourceFormat.SampleRate
		if d.DefaultSampleRate > 0 {
			targetRate = int(d.DefaultSampleRate)
		}
		target, ferr := audioformat.New(targetRate, sourceFormat.Channels, sourceFormat.Encoding)
		if ferr != nil {
			return audioformat.Format{}, device.Info{}, ferr
		}
		return target, d, nil
	}

	best, err := n.registry.FindBestFor(sourceFormat)
	if pref, ok := n.preferredDevice(); ok {
		best, err = pref, nil
	}
	if err == nil && deviceSupports(best, sourceFormat) {
		n.isBitPerfect = true
		return sourceFormat, best, nil
	}

	if !n.config.AllowResampling {
		n.isBitPerfect = false
		return audioformat.Format{}, device.Info{}, ErrBitPerfectUnavailable
	}

	d := best
	var derr error
	if _, ok := n.preferredDevice(); !ok {
		d, derr = n.registry.Default()
	}
	if derr != nil {
		return audioformat.Format{}, device.Info{}, derr
	}
	targetRate := sourceFormat.SampleRate
	if d.DefaultSampleRate > 0 {
		targetRate = int(d.DefaultSampleRate)
	}
	target, ferr := audioformat.New(targetRate, sourceFormat.Channels, sourceFormat.Encoding)
	if ferr != nil {
		return audioformat.Format{}, device.Info{}, ferr
	}
	n.isBitPerfect = false
	return target, d, nil
}

// CheckIntegrity re-validates that the currently prepared format is still
// deliverable unmodified (e.g. after a device hot-unplug/replug).
func (n *Negotiator) CheckIntegrity() (bool, error) {
	if !n.hasFormat {
		return false, nil
	}
	d, err := n.registry.Default()
	if err != nil {
		return false, nil
	}
	return deviceSupports(d, n.currentFormat), nil
}

// Diagnostics returns a read-only status snapshot.
func (n *Negotiator) Diagnostics() Diagnostics {
	diag := Diagnostics{
		Mode:          n.config.Mode,
		IsActive:      n.isBitPerfect,
		CurrentFormat: n.currentFormat,
		HasFormat:     n.hasFormat,
	}
	if devices, err := n.registry.List(); err == nil {
		diag.DeviceCount = len(devices)
	}
	if d, err := n.registry.Default(); err == nil {
		diag.DefaultDevice = d
		diag.HasDefault = true
	}
	return diag
}

func deviceSupports(d device.Info, format audioformat.Format) bool {
	if d.MaxOutputChannels < format.Channels {
		return false
	}
	if d.DefaultSampleRate <= 0 {
		return true
	}
	ratio := float64(format.SampleRate) / d.DefaultSampleRate
	return ratio > 0.99 && ratio < 1.01
}
