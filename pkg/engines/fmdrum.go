package engines

import (
	"math"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

// fmDrumState synthesizes metallic percussion (hi-hats, cymbals, cowbell)
// using a small bank of inharmonic-ratio operators summed together, each
// with its own fast exponential decay — the usual FM-drum recipe from
// the original engine's per-instrument tables (E.4 supplement).
type fmDrumState struct {
	sampleRate float64

	banks [groove.NumDrumLanes]fmDrumParams
	lane  int

	phases     [4]float64
	ageSamples float64

	pitch    int8
	sounding bool
}

type fmDrumParams struct {
	ratios [4]float64
	decayS float64
	mix    float64
}

func defaultFMDrumParams() fmDrumParams {
	return fmDrumParams{
		ratios: [4]float64{1.0, 1.47, 1.98, 2.66},
		decayS: 0.15,
		mix:    1.0,
	}
}

func (f *fmDrumState) init(sr float64) {
	f.sampleRate = sr
	for i := range f.banks {
		f.banks[i] = defaultFMDrumParams()
	}
}

func (f *fmDrumState) trigger(pitch int8, velocity float64) {
	lane, ok := groove.DrumLaneForPitch(pitch)
	if !ok {
		lane = 0
	}
	f.lane = lane
	f.pitch = pitch
	for i := range f.phases {
		f.phases[i] = 0
	}
	f.ageSamples = 0
	f.sounding = true
	_ = velocity
}

func (f *fmDrumState) release(pitch int8) {
	// one-shot: release is a no-op.
}

func (f *fmDrumState) render() float64 {
	if !f.sounding || f.sampleRate <= 0 {
		return 0
	}
	p := f.banks[f.lane]
	base := noteToFreq(f.pitch)

	var sum float64
	for i, ratio := range p.ratios {
		f.phases[i] += base * ratio / f.sampleRate
		if f.phases[i] >= 1 {
			f.phases[i] -= math.Floor(f.phases[i])
		}
		sum += math.Sin(2 * math.Pi * f.phases[i])
	}
	sum /= float64(len(p.ratios))

	t := f.ageSamples / f.sampleRate
	env := math.Exp(-t / math.Max(p.decayS, 1e-4))
	f.ageSamples++
	if env < 1e-4 {
		f.sounding = false
	}
	return sum * env * p.mix
}

func (f *fmDrumState) setParameter(id int, value float64) {
	if id < groove.ParamAnalogDrumStart || id > groove.ParamAnalogDrumEnd {
		return
	}
	offset := id - groove.ParamAnalogDrumStart
	lane := offset / 8
	field := offset % 8
	if lane < 0 || lane >= groove.NumDrumLanes {
		return
	}
	p := &f.banks[lane]
	switch field {
	case 6:
		p.decayS = value
	case 7:
		p.mix = value
	}
}

func (f *fmDrumState) allNotesOff() {
	f.sounding = false
}

func (f *fmDrumState) isActive() bool {
	return f.sounding
}
