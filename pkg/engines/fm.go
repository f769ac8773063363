package engines

import (
	"math"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/dsp"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

// fmState is a two-operator FM voice: a modulator sine driving a carrier
// sine's phase, with independent amp envelopes on both operators. This is
// the simplest FM topology that still exposes ratio/index/feedback as
// meaningful parameters (§4.1 engine-specific range 150-199).
type fmState struct {
	sampleRate float64

	carrierPhase   float64
	modPhase       float64
	baseFreq       float64
	ratio          float64
	index          float64
	feedback       float64
	lastModOut     float64

	ampEnv dsp.ADSR
	modEnv dsp.ADSR

	pitch    int8
	sounding bool
}

func (f *fmState) init(sr float64) {
	f.sampleRate = sr
	f.ampEnv = *dsp.NewADSR(sr)
	f.modEnv = *dsp.NewADSR(sr)
	f.ratio = 2.0
	f.index = 2.0
	f.ampEnv.Attack = 0.002
	f.ampEnv.Decay = 0.2
	f.ampEnv.Sustain = 0.6
	f.ampEnv.Release = 0.3
	f.modEnv.Decay = 0.15
	f.modEnv.Sustain = 0.3
}

func (f *fmState) trigger(pitch int8, velocity float64) {
	f.pitch = pitch
	f.baseFreq = noteToFreq(pitch)
	f.carrierPhase = 0
	f.modPhase = 0
	f.lastModOut = 0
	f.sounding = true
	f.ampEnv.Trigger()
	f.modEnv.Trigger()
	_ = velocity
}

func (f *fmState) release(pitch int8) {
	if pitch != f.pitch {
		return
	}
	f.ampEnv.ReleaseNote()
	f.modEnv.ReleaseNote()
}

func (f *fmState) render() float64 {
	if !f.sounding || f.sampleRate <= 0 {
		return 0
	}
	modFreq := f.baseFreq * f.ratio
	f.modPhase += modFreq / f.sampleRate
	if f.modPhase >= 1 {
		f.modPhase -= math.Floor(f.modPhase)
	}
	modEnvVal := f.modEnv.Advance()
	modOut := math.Sin(2*math.Pi*f.modPhase+f.feedback*f.lastModOut) * f.index * modEnvVal
	f.lastModOut = modOut

	f.carrierPhase += f.baseFreq / f.sampleRate
	if f.carrierPhase >= 1 {
		f.carrierPhase -= math.Floor(f.carrierPhase)
	}
	carrier := math.Sin(2*math.Pi*f.carrierPhase + modOut)

	amp := f.ampEnv.Advance()
	if !f.ampEnv.Active() {
		f.sounding = false
	}
	return carrier * amp
}

func (f *fmState) setParameter(id int, value float64) {
	switch id {
	case groove.ParamEngineStart:
		f.ratio = value
	case groove.ParamEngineStart + 1:
		f.index = value
	case groove.ParamEngineStart + 2:
		f.feedback = value
	case groove.ParamAmpAttack:
		f.ampEnv.Attack = value
	case groove.ParamAmpDecay:
		f.ampEnv.Decay = value
	case groove.ParamAmpSustain:
		f.ampEnv.Sustain = value
	case groove.ParamAmpRelease:
		f.ampEnv.Release = value
	case groove.ParamFilterDecay:
		f.modEnv.Decay = value
	case groove.ParamFilterSustain:
		f.modEnv.Sustain = value
	}
}

func (f *fmState) allNotesOff() {
	f.sounding = false
	f.ampEnv.Reset()
	f.modEnv.Reset()
}

func (f *fmState) isActive() bool {
	return f.sounding
}
