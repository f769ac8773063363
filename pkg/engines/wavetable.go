package engines

import (
	"math"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/dsp"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

const wavetableSize = 512

// wavetableState scans across a small fixed bank of single-cycle tables
// (sine, triangle, saw, pulse) under a position parameter, the same idea
// as the teacher's four-waveform Oscillator generalized from a lookup
// switch to a crossfaded table position.
type wavetableState struct {
	sampleRate float64

	tables   [4][wavetableSize]float64
	position float64 // 0..3, fractional crossfades neighbours

	phase    float64
	freq     float64
	ampEnv   dsp.ADSR

	pitch    int8
	sounding bool
}

func (w *wavetableState) init(sr float64) {
	w.sampleRate = sr
	w.ampEnv = *dsp.NewADSR(sr)
	w.ampEnv.Attack = 0.001
	w.ampEnv.Decay = 0.3
	w.ampEnv.Sustain = 0.7
	w.ampEnv.Release = 0.25

	for i := 0; i < wavetableSize; i++ {
		t := float64(i) / wavetableSize
		w.tables[0][i] = math.Sin(2 * math.Pi * t)
		w.tables[1][i] = 2*math.Abs(2*(t-math.Floor(t+0.5))) - 1
		w.tables[2][i] = 2*t - 1
		if t < 0.5 {
			w.tables[3][i] = 1
		} else {
			w.tables[3][i] = -1
		}
	}
}

func (w *wavetableState) trigger(pitch int8, velocity float64) {
	w.pitch = pitch
	w.freq = noteToFreq(pitch)
	w.phase = 0
	w.sounding = true
	w.ampEnv.Trigger()
	_ = velocity
}

func (w *wavetableState) release(pitch int8) {
	if pitch != w.pitch {
		return
	}
	w.ampEnv.ReleaseNote()
}

func (w *wavetableState) sampleTable(idx int, phase float64) float64 {
	pos := phase * wavetableSize
	i0 := int(pos) % wavetableSize
	i1 := (i0 + 1) % wavetableSize
	frac := pos - math.Floor(pos)
	return w.tables[idx][i0]*(1-frac) + w.tables[idx][i1]*frac
}

func (w *wavetableState) render() float64 {
	if !w.sounding || w.sampleRate <= 0 {
		return 0
	}
	w.phase += w.freq / w.sampleRate
	if w.phase >= 1 {
		w.phase -= math.Floor(w.phase)
	}

	pos := w.position
	if pos < 0 {
		pos = 0
	}
	if pos > 3 {
		pos = 3
	}
	lo := int(pos)
	hi := lo + 1
	if hi > 3 {
		hi = 3
	}
	frac := pos - float64(lo)
	sample := w.sampleTable(lo, w.phase)*(1-frac) + w.sampleTable(hi, w.phase)*frac

	amp := w.ampEnv.Advance()
	if !w.ampEnv.Active() {
		w.sounding = false
	}
	return sample * amp
}

func (w *wavetableState) setParameter(id int, value float64) {
	switch id {
	case groove.ParamWavetableStart:
		w.position = value
	case groove.ParamAmpAttack:
		w.ampEnv.Attack = value
	case groove.ParamAmpDecay:
		w.ampEnv.Decay = value
	case groove.ParamAmpSustain:
		w.ampEnv.Sustain = value
	case groove.ParamAmpRelease:
		w.ampEnv.Release = value
	}
}

func (w *wavetableState) allNotesOff() {
	w.sounding = false
	w.ampEnv.Reset()
}

func (w *wavetableState) isActive() bool {
	return w.sounding
}
