package dsp

import "math"

// FilterOutput selects which tap of the state-variable filter a caller
// wants (§4.2).
type FilterOutput int

const (
	FilterLowpass FilterOutput = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
	FilterPeak
)

// flushDenormal zeroes values that have decayed below the denormal
// threshold, avoiding a denormal-cascade slowdown on the audio thread
// (§4.2, §7).
func flushDenormal(v float64) float64 {
	if math.Abs(v) < 1e-9 {
		return 0
	}
	return v
}

// StateVariableFilter is a zero-delay-feedback (trapezoidal integration)
// state-variable filter with low/high/band/notch/peak taps (§4.2).
// Coefficients (a tangent and a division) are recomputed only when a
// caller calls UpdateCoefficients; Process never recomputes them. The
// subtractive engine and the effects graph call UpdateCoefficients once
// per sample, not at a reduced control rate.
type StateVariableFilter struct {
	SampleRate float64

	Cutoff    float64 // Hz
	Resonance float64 // Q

	g, k, a1, a2, a3 float64

	ic1eq, ic2eq float64
}

// NewStateVariableFilter returns a filter at the default cutoff (1000 Hz)
// and resonance (Q 0.707), with its coefficients already computed.
func NewStateVariableFilter(sampleRate float64) *StateVariableFilter {
	f := &StateVariableFilter{SampleRate: sampleRate, Cutoff: 1000, Resonance: 0.707}
	f.UpdateCoefficients()
	return f
}

// UpdateCoefficients recomputes g/k and the trapezoidal-integration
// coefficients from Cutoff/Resonance (§4.2).
func (f *StateVariableFilter) UpdateCoefficients() {
	cutoff := f.Cutoff
	if cutoff < 1 {
		cutoff = 1
	}
	nyquist := f.SampleRate / 2
	if cutoff > nyquist-1 {
		cutoff = nyquist - 1
	}
	q := f.Resonance
	if q < 0.1 {
		q = 0.1
	}

	f.g = math.Tan(math.Pi * cutoff / f.SampleRate)
	f.k = 1.0 / q
	f.a1 = 1.0 / (1.0 + f.g*(f.g+f.k))
	f.a2 = f.g * f.a1
	f.a3 = f.g * f.a2
}

// Process runs one sample through the filter and returns all five taps.
func (f *StateVariableFilter) Process(input float64) (low, high, band, notch, peak float64) {
	if math.IsNaN(input) || math.IsInf(input, 0) {
		input = 0
	}

	v3 := input - f.ic2eq
	v1 := f.a1*f.ic1eq + f.a2*v3
	v2 := f.ic2eq + f.a2*f.ic1eq + f.a3*v3

	f.ic1eq = flushDenormal(2*v1 - f.ic1eq)
	f.ic2eq = flushDenormal(2*v2 - f.ic2eq)

	low = v2
	band = v1
	high = input - f.k*band - low
	notch = high + low
	peak = low - high

	for _, v := range []*float64{&low, &high, &band, &notch, &peak} {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
	}
	return
}

// Tap runs one sample through the filter and returns only the requested
// output.
func (f *StateVariableFilter) Tap(input float64, which FilterOutput) float64 {
	low, high, band, notch, peak := f.Process(input)
	switch which {
	case FilterLowpass:
		return low
	case FilterHighpass:
		return high
	case FilterBandpass:
		return band
	case FilterNotch:
		return notch
	case FilterPeak:
		return peak
	default:
		return low
	}
}

// Reset zeroes the filter's internal integrator state.
func (f *StateVariableFilter) Reset() {
	f.ic1eq = 0
	f.ic2eq = 0
}

// EnvelopeFollower tracks the amplitude envelope of an input signal with
// independent attack/release smoothing, used both per-track and as a
// modulation-matrix source (§3, §4.2).
type EnvelopeFollower struct {
	SampleRate    float64
	AttackSeconds  float64
	ReleaseSeconds float64

	level float64
}

// NewEnvelopeFollower returns a follower with sane default timings.
func NewEnvelopeFollower(sampleRate float64) *EnvelopeFollower {
	return &EnvelopeFollower{SampleRate: sampleRate, AttackSeconds: 0.003, ReleaseSeconds: 0.1}
}

// Process feeds one sample (rectified internally) and returns the
// follower's current level, in [0,1]-ish (unbounded above for hot signals,
// clamping is the modulation matrix's job).
func (f *EnvelopeFollower) Process(input float64) float64 {
	rectified := math.Abs(input)
	if math.IsNaN(rectified) || math.IsInf(rectified, 0) {
		rectified = 0
	}

	var coeff float64
	if rectified > f.level {
		coeff = math.Exp(-1.0 / (f.AttackSeconds*f.SampleRate + 1))
	} else {
		coeff = math.Exp(-1.0 / (f.ReleaseSeconds*f.SampleRate + 1))
	}
	f.level = rectified + coeff*(f.level-rectified)
	f.level = flushDenormal(f.level)
	return f.level
}

// Level returns the follower's last computed level without processing a
// new sample.
func (f *EnvelopeFollower) Level() float64 {
	return f.level
}

// Reset zeroes the follower (used by the effects graph on transport start).
func (f *EnvelopeFollower) Reset() {
	f.level = 0
}
