package engines

import (
	"math"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/dsp"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

// subtractiveState is a single-oscillator, filtered analog-style voice:
// naive (not band-limited) sawtooth through a state-variable filter with its own
// envelope, shaped by an amplitude ADSR. Grounded on the teacher's
// Oscillator/ChannelState pair, generalized from 4-bit chip waveforms to
// a continuous detuned saw and a real filter.
type subtractiveState struct {
	sampleRate float64

	phase      float64
	freq       float64
	detuneCents float64

	filter   dsp.StateVariableFilter
	ampEnv   dsp.ADSR
	filtEnv  dsp.ADSR
	envAmount float64
	cutoffBase float64

	pitch   int8
	sounding bool
}

func (s *subtractiveState) init(sr float64) {
	s.sampleRate = sr
	s.filter = *dsp.NewStateVariableFilter(sr)
	s.ampEnv = *dsp.NewADSR(sr)
	s.filtEnv = *dsp.NewADSR(sr)
	s.cutoffBase = 2000
	s.ampEnv.Attack = 0.002
	s.ampEnv.Decay = 0.1
	s.ampEnv.Sustain = 0.8
	s.ampEnv.Release = 0.2
}

func (s *subtractiveState) trigger(pitch int8, velocity float64) {
	s.pitch = pitch
	s.freq = noteToFreq(pitch)
	s.phase = 0
	s.sounding = true
	s.ampEnv.Trigger()
	s.filtEnv.Trigger()
	_ = velocity
}

func (s *subtractiveState) release(pitch int8) {
	if pitch != s.pitch {
		return
	}
	s.ampEnv.ReleaseNote()
	s.filtEnv.ReleaseNote()
}

func (s *subtractiveState) render() float64 {
	if !s.sounding {
		return 0
	}
	detuned := s.freq * math.Exp2(s.detuneCents/1200.0)
	if detuned <= 0 || s.sampleRate <= 0 {
		return 0
	}
	s.phase += detuned / s.sampleRate
	if s.phase >= 1 {
		s.phase -= math.Floor(s.phase)
	}
	saw := 2*s.phase - 1

	env := s.filtEnv.Advance()
	s.filter.Cutoff = s.cutoffBase + s.envAmount*env*8000
	s.filter.UpdateCoefficients()
	low, _, _, _, _ := s.filter.Process(saw)

	amp := s.ampEnv.Advance()
	if !s.ampEnv.Active() {
		s.sounding = false
	}
	return low * amp
}

func (s *subtractiveState) setParameter(id int, value float64) {
	switch id {
	case groove.ParamCutoff:
		s.cutoffBase = value
	case groove.ParamResonance:
		s.filter.Resonance = value
	case groove.ParamEnvAmount:
		s.envAmount = value
	case groove.ParamDetune:
		s.detuneCents = value
	case groove.ParamAmpAttack:
		s.ampEnv.Attack = value
	case groove.ParamAmpDecay:
		s.ampEnv.Decay = value
	case groove.ParamAmpSustain:
		s.ampEnv.Sustain = value
	case groove.ParamAmpRelease:
		s.ampEnv.Release = value
	case groove.ParamFilterAttack:
		s.filtEnv.Attack = value
	case groove.ParamFilterDecay:
		s.filtEnv.Decay = value
	case groove.ParamFilterSustain:
		s.filtEnv.Sustain = value
	case groove.ParamFilterRelease:
		s.filtEnv.Release = value
	case groove.ParamFilterCutoff:
		s.cutoffBase = value
	}
}

func (s *subtractiveState) allNotesOff() {
	s.sounding = false
	s.ampEnv.Reset()
	s.filtEnv.Reset()
}

func (s *subtractiveState) isActive() bool {
	return s.sounding
}
