// Package dsp implements the envelope and filter primitives shared by every
// synthesis engine: the ADSR envelope, the zero-delay-feedback
// state-variable filter, and the envelope follower (§4.2).
package dsp

import "math"

// EnvStage is one of the five ADSR stages (§4.2).
type EnvStage int

const (
	EnvIdle EnvStage = iota
	EnvAttack
	EnvDecay
	EnvSustain
	EnvRelease
)

// ADSR is a sample-rate-driven envelope generator. Attack ramps linearly;
// decay and release are exponential toward their targets with a coefficient
// that snaps to the target once within 1e-4, preventing Zeno-style residue
// (§4.2).
type ADSR struct {
	SampleRate float64

	Attack  float64 // seconds
	Decay   float64 // seconds
	Sustain float64 // [0,1]
	Release float64 // seconds

	stage EnvStage
	value float64
}

// NewADSR returns an idle envelope at the given sample rate.
func NewADSR(sampleRate float64) *ADSR {
	return &ADSR{SampleRate: sampleRate, Sustain: 1}
}

// Stage reports the current ADSR stage.
func (e *ADSR) Stage() EnvStage { return e.stage }

// Value returns the envelope's current output, in [0,1].
func (e *ADSR) Value() float64 { return e.value }

// Trigger (re)starts the envelope at the attack stage from its current
// value (no hard reset to zero, avoiding a click on retrigger).
func (e *ADSR) Trigger() {
	e.stage = EnvAttack
}

// ReleaseNote moves the envelope into its release stage. A no-op if already
// idle (§4.2).
func (e *ADSR) ReleaseNote() {
	if e.stage == EnvIdle {
		return
	}
	e.stage = EnvRelease
}

// Active reports whether the envelope is still producing samples.
func (e *ADSR) Active() bool {
	return e.stage != EnvIdle
}

// Advance steps the envelope forward by one sample and returns the new
// value.
func (e *ADSR) Advance() float64 {
	switch e.stage {
	case EnvIdle:
		e.value = 0
	case EnvAttack:
		rate := 1.0 / (e.Attack*e.SampleRate + 1)
		e.value += rate
		if e.Attack <= 0 || e.value >= 1 {
			e.value = 1
			e.stage = EnvDecay
		}
	case EnvDecay:
		coeff := math.Exp(-1.0 / (e.Decay*e.SampleRate*0.2 + 1))
		e.value = e.Sustain + (e.value-e.Sustain)*coeff
		if math.Abs(e.value-e.Sustain) < 1e-4 {
			e.value = e.Sustain
			e.stage = EnvSustain
		}
	case EnvSustain:
		e.value = e.Sustain
	case EnvRelease:
		coeff := math.Exp(-1.0 / (e.Release*e.SampleRate*0.2 + 1))
		e.value = e.value * coeff
		if e.value < 1e-4 {
			e.value = 0
			e.stage = EnvIdle
		}
	}
	if math.IsNaN(e.value) || math.IsInf(e.value, 0) {
		e.value = 0
		e.stage = EnvIdle
	}
	return e.value
}

// Reset forces the envelope fully idle at zero (used by all_notes_off).
func (e *ADSR) Reset() {
	e.stage = EnvIdle
	e.value = 0
}
