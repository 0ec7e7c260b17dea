package dsp

import "math"

// Band is one parametric EQ band: a peaking biquad filter described by
// center frequency, gain, and Q. GainDb is clamped to [-20, 20] on every
// SetGainDb call.
type Band struct {
	FrequencyHz float64
	GainDb      float64
	Q           float64

	// coefficients, recomputed by recalc() whenever the band changes
	b0, b1, b2, a1, a2 float64
}

// SetGainDb clamps and stores gain, matching the spec's
// EQBand.set_gain(x); get_gain() == clamp(x, -20, 20) property.
func (b *Band) SetGainDb(db float64) {
	if db < -20 {
		db = -20
	} else if db > 20 {
		db = 20
	}
	b.GainDb = db
}

// recalc derives the transposed direct-form-II biquad coefficients for this
// band at the given sample rate, using the standard audio-EQ-cookbook
// peaking-filter formulas.
func (b *Band) recalc(sampleRate float64) {
	a := math.Pow(10, b.GainDb/40)
	w0 := 2 * math.Pi * b.FrequencyHz / sampleRate
	alpha := math.Sin(w0) / (2 * b.Q)
	cosW0 := math.Cos(w0)

	b0 := 1 + alpha*a
	b1 := -2 * cosW0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosW0
	a2 := 1 - alpha/a

	b.b0 = b0 / a0
	b.b1 = b1 / a0
	b.b2 = b2 / a0
	b.a1 = a1 / a0
	b.a2 = a2 / a0
}

// channelState holds the two delay registers (transposed direct form II)
// for one band on one channel.
type channelState struct {
	z1, z2 float64
}

// Equalizer is an N-band cascade of peaking biquads, independent per
// channel. Bands whose |gain_db| < 0.01 are skipped entirely in Process to
// save CPU, per the spec's edge case.
type Equalizer struct {
	base
	sampleRate int
	channels   int
	bands      []Band
	state      [][]channelState // state[band][channel]
}

// NewEqualizer constructs an enabled Equalizer for the given format, with
// the provided bands (a copy is taken; mutate via SetBands to recompute
// coefficients).
func NewEqualizer(sampleRate, channels int, bands []Band) *Equalizer {
	eq := &Equalizer{
		base:       base{name: "eq", enabled: true},
		sampleRate: sampleRate,
		channels:   channels,
	}
	eq.SetBands(bands)
	return eq
}

// SetBands replaces the band set and recomputes every band's coefficients
// and per-channel state.
func (eq *Equalizer) SetBands(bands []Band) {
	eq.bands = make([]Band, len(bands))
	copy(eq.bands, bands)
	for i := range eq.bands {
		eq.bands[i].recalc(float64(eq.sampleRate))
	}
	eq.state = make([][]channelState, len(eq.bands))
	for i := range eq.state {
		eq.state[i] = make([]channelState, eq.channels)
	}
}

// Bands returns a copy of the current band set.
func (eq *Equalizer) Bands() []Band {
	out := make([]Band, len(eq.bands))
	copy(out, eq.bands)
	return out
}

func (eq *Equalizer) SetEnabled(enabled bool) {
	if eq.setEnabledRaw(enabled) {
		eq.Reset()
	}
}

// Reset zeros every band's per-channel delay registers.
func (eq *Equalizer) Reset() {
	for i := range eq.state {
		for c := range eq.state[i] {
			eq.state[i][c] = channelState{}
		}
	}
}

func (eq *Equalizer) Process(input, output []float32) error {
	if len(input) != len(output) {
		return &ErrSizeMismatch{Processor: eq.name, InputLen: len(input), OutputLen: len(output)}
	}
	copy(output, input)

	for bi := range eq.bands {
		band := &eq.bands[bi]
		if math.Abs(band.GainDb) < 0.01 {
			continue
		}
		st := eq.state[bi]
		for i := 0; i < len(output); i++ {
			ch := i % eq.channels
			s := &st[ch]
			x := float64(output[i])
			y := band.b0*x + s.z1
			s.z1 = band.b1*x - band.a1*y + s.z2
			s.z2 = band.b2*x - band.a2*y
			output[i] = float32(y)
		}
	}
	return nil
}

// Preset is a named, reusable EQ band configuration.
type Preset struct {
	Name  string
	Bands []Band
}

// Presets returns the named EQ presets shipped with the engine, grounded on
// the reference implementation's preset table.
func Presets() []Preset {
	return []Preset{
		{Name: "Flat", Bands: nil},
		{
			Name: "Bass Boost",
			Bands: []Band{
				{FrequencyHz: 60, GainDb: 6, Q: 0.8},
				{FrequencyHz: 150, GainDb: 4, Q: 0.9},
				{FrequencyHz: 400, GainDb: 1, Q: 1.0},
			},
		},
		{
			Name: "Vocal",
			Bands: []Band{
				{FrequencyHz: 200, GainDb: -2, Q: 1.0},
				{FrequencyHz: 1000, GainDb: 3, Q: 1.2},
				{FrequencyHz: 3000, GainDb: 4, Q: 1.2},
				{FrequencyHz: 8000, GainDb: 2, Q: 0.9},
			},
		},
		{
			Name: "Rock",
			Bands: []Band{
				{FrequencyHz: 100, GainDb: 4, Q: 0.9},
				{FrequencyHz: 500, GainDb: -2, Q: 1.0},
				{FrequencyHz: 3000, GainDb: 3, Q: 1.0},
				{FrequencyHz: 8000, GainDb: 3, Q: 0.9},
			},
		},
		{
			Name: "Classical",
			Bands: []Band{
				{FrequencyHz: 100, GainDb: 2, Q: 0.8},
				{FrequencyHz: 1000, GainDb: 0, Q: 1.0},
				{FrequencyHz: 8000, GainDb: 3, Q: 0.9},
				{FrequencyHz: 12000, GainDb: 2, Q: 0.9},
			},
		},
	}
}
