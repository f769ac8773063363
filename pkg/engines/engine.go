// Package engines implements the Voice Producer capability set (§4.1): the
// uniform interface every synthesis/sampling engine satisfies, and the
// eight concrete engines the orchestrator dispatches to by integer tag.
//
// Per the polymorphic-dispatch design note (§9), engines are not held as
// interface-typed variants behind a pointer: Engine is a tagged union with
// one inline state field per kind, so a track's array of voice-producing
// engines never allocates on the hot path. Producer documents the
// capability set as a Go interface that *Engine satisfies, for callers that
// want to program against the contract rather than the concrete type.
package engines

import (
	"math"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

// Producer is the capability set every synthesis/sampler engine exposes
// (§4.1).
type Producer interface {
	Trigger(pitch int8, velocity float64)
	Release(pitch int8)
	RenderMono() float64
	RenderStereo() (float64, float64)
	SetParameter(id int, value float64)
	SetSampleRate(sr float64)
	AllNotesOff()
	IsActive() bool
}

// Engine is the tagged-union voice producer. Kind selects which inline
// state is live; the other fields sit zeroed and unused. Stereo-capable
// kinds (sampler, granular) implement RenderStereo directly; the rest
// duplicate their mono output to both channels.
type Engine struct {
	Kind groove.EngineKind

	sampleRate float64

	subtractive subtractiveState
	fm          fmState
	wavetable   wavetableState
	sampler     samplerState
	granular    granularState
	analogDrum  analogDrumState
	fmDrum      fmDrumState
	audioIn     audioInState
}

// New returns an Engine of the given kind, initialized for sampleRate.
func New(kind groove.EngineKind, sampleRate float64) *Engine {
	e := &Engine{Kind: kind, sampleRate: sampleRate}
	e.subtractive.init(sampleRate)
	e.fm.init(sampleRate)
	e.wavetable.init(sampleRate)
	e.sampler.init(sampleRate)
	e.granular.init(sampleRate)
	e.analogDrum.init(sampleRate)
	e.fmDrum.init(sampleRate)
	e.audioIn.init(sampleRate)
	return e
}

// SetKind re-tags the engine (used when a track's engine-type is changed
// from the UI thread). The newly selected arm's state is left as-is — the
// caller is expected to call AllNotesOff first if a clean start is wanted.
func (e *Engine) SetKind(kind groove.EngineKind) {
	e.Kind = kind
}

// Trigger starts a new note. Out-of-range or malformed parameters are
// clamped by the concrete engine, never propagated as errors (§7).
func (e *Engine) Trigger(pitch int8, velocity float64) {
	switch e.Kind {
	case groove.EngineSubtractive:
		e.subtractive.trigger(pitch, velocity)
	case groove.EngineFM:
		e.fm.trigger(pitch, velocity)
	case groove.EngineWavetable:
		e.wavetable.trigger(pitch, velocity)
	case groove.EngineSampler:
		e.sampler.trigger(pitch, velocity)
	case groove.EngineGranular:
		e.granular.trigger(pitch, velocity)
	case groove.EngineAnalogDrum:
		e.analogDrum.trigger(pitch, velocity)
	case groove.EngineFMDrum:
		e.fmDrum.trigger(pitch, velocity)
	case groove.EngineAudioIn:
		e.audioIn.trigger(pitch, velocity)
	}
}

// Release begins the release stage for pitch, if sounding.
func (e *Engine) Release(pitch int8) {
	switch e.Kind {
	case groove.EngineSubtractive:
		e.subtractive.release(pitch)
	case groove.EngineFM:
		e.fm.release(pitch)
	case groove.EngineWavetable:
		e.wavetable.release(pitch)
	case groove.EngineSampler:
		e.sampler.release(pitch)
	case groove.EngineGranular:
		e.granular.release(pitch)
	case groove.EngineAnalogDrum:
		e.analogDrum.release(pitch)
	case groove.EngineFMDrum:
		e.fmDrum.release(pitch)
	case groove.EngineAudioIn:
		e.audioIn.release(pitch)
	}
}

// RenderMono produces the next mono sample.
func (e *Engine) RenderMono() float64 {
	switch e.Kind {
	case groove.EngineSubtractive:
		return e.subtractive.render()
	case groove.EngineFM:
		return e.fm.render()
	case groove.EngineWavetable:
		return e.wavetable.render()
	case groove.EngineSampler:
		l, r := e.sampler.render()
		return (l + r) * 0.5
	case groove.EngineGranular:
		l, r := e.granular.render()
		return (l + r) * 0.5
	case groove.EngineAnalogDrum:
		return e.analogDrum.render()
	case groove.EngineFMDrum:
		return e.fmDrum.render()
	case groove.EngineAudioIn:
		return e.audioIn.render()
	default:
		return 0
	}
}

// RenderStereo produces the next stereo sample pair. Mono-only kinds
// duplicate their mono output to both channels.
func (e *Engine) RenderStereo() (float64, float64) {
	switch e.Kind {
	case groove.EngineSampler:
		return e.sampler.render()
	case groove.EngineGranular:
		return e.granular.render()
	default:
		m := e.RenderMono()
		return m, m
	}
}

// SetParameter routes a parameter write to the active engine by id range
// (§4.1). Ids outside every range this engine understands are ignored.
func (e *Engine) SetParameter(id int, value float64) {
	switch e.Kind {
	case groove.EngineSubtractive:
		e.subtractive.setParameter(id, value)
	case groove.EngineFM:
		e.fm.setParameter(id, value)
	case groove.EngineWavetable:
		e.wavetable.setParameter(id, value)
	case groove.EngineSampler:
		e.sampler.setParameter(id, value)
	case groove.EngineGranular:
		e.granular.setParameter(id, value)
	case groove.EngineAnalogDrum:
		e.analogDrum.setParameter(id, value)
	case groove.EngineFMDrum:
		e.fmDrum.setParameter(id, value)
	case groove.EngineAudioIn:
		e.audioIn.setParameter(id, value)
	}
}

// SetSampleRate re-initializes every arm at the new sample rate, which
// also returns each arm's parameters and envelopes to their defaults.
func (e *Engine) SetSampleRate(sr float64) {
	e.sampleRate = sr
	e.subtractive.init(sr)
	e.fm.init(sr)
	e.wavetable.init(sr)
	e.sampler.init(sr)
	e.granular.init(sr)
	e.analogDrum.init(sr)
	e.fmDrum.init(sr)
	e.audioIn.init(sr)
}

// AllNotesOff silences the active arm immediately.
func (e *Engine) AllNotesOff() {
	switch e.Kind {
	case groove.EngineSubtractive:
		e.subtractive.allNotesOff()
	case groove.EngineFM:
		e.fm.allNotesOff()
	case groove.EngineWavetable:
		e.wavetable.allNotesOff()
	case groove.EngineSampler:
		e.sampler.allNotesOff()
	case groove.EngineGranular:
		e.granular.allNotesOff()
	case groove.EngineAnalogDrum:
		e.analogDrum.allNotesOff()
	case groove.EngineFMDrum:
		e.fmDrum.allNotesOff()
	case groove.EngineAudioIn:
		e.audioIn.allNotesOff()
	}
}

// IsActive reports whether the active arm is still producing sound.
func (e *Engine) IsActive() bool {
	switch e.Kind {
	case groove.EngineSubtractive:
		return e.subtractive.isActive()
	case groove.EngineFM:
		return e.fm.isActive()
	case groove.EngineWavetable:
		return e.wavetable.isActive()
	case groove.EngineSampler:
		return e.sampler.isActive()
	case groove.EngineGranular:
		return e.granular.isActive()
	case groove.EngineAnalogDrum:
		return e.analogDrum.isActive()
	case groove.EngineFMDrum:
		return e.fmDrum.isActive()
	case groove.EngineAudioIn:
		return e.audioIn.isActive()
	default:
		return false
	}
}

// SampleBuffer returns the sampler arm's sample buffer holder, so the UI
// thread can exchange-on-idle a newly loaded sample (§3 Lifecycle, §5
// Shared resources). Nil for every other kind.
func (e *Engine) SampleBuffer() *SampleBuffer {
	return e.sampler.buffer
}

// noteToFreq converts a MIDI-style pitch (A4=69) to Hz, the convention
// every engine in this package uses.
func noteToFreq(pitch int8) float64 {
	return 440.0 * math.Exp2((float64(pitch)-69.0)/12.0)
}
