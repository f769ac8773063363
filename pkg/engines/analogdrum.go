package engines

import (
	"math"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

// analogDrumState synthesizes a classic analog-style drum voice: a sine
// body whose pitch sweeps down exponentially from trigger, plus a short
// filtered-noise transient, both with independent exponential decays.
// This and fmDrumState are E.4 supplements — the distilled spec names
// drum lanes but leaves their synthesis method open; original_source/'s
// drum engines use exactly this body+transient split per instrument.
type analogDrumState struct {
	sampleRate float64

	// per-instrument bank, indexed by drum lane (0-15)
	banks [groove.NumDrumLanes]analogDrumParams
	lane  int

	bodyPhase  float64
	bodyPitch  float64
	bodyDecay  float64
	noiseDecay float64
	ageSamples float64
	rngState   uint64

	pitch    int8
	sounding bool
}

type analogDrumParams struct {
	toneHz      float64
	sweepHz     float64
	sweepTime   float64
	bodyDecayS  float64
	noiseDecayS float64
	noiseMix    float64
}

func defaultAnalogDrumParams() analogDrumParams {
	return analogDrumParams{
		toneHz:      60,
		sweepHz:     220,
		sweepTime:   0.04,
		bodyDecayS:  0.3,
		noiseDecayS: 0.04,
		noiseMix:    0.2,
	}
}

func (d *analogDrumState) init(sr float64) {
	d.sampleRate = sr
	for i := range d.banks {
		d.banks[i] = defaultAnalogDrumParams()
	}
	d.rngState = 0xD1B54A32D192ED03
}

func (d *analogDrumState) nextRand() float64 {
	d.rngState ^= d.rngState << 13
	d.rngState ^= d.rngState >> 7
	d.rngState ^= d.rngState << 17
	return (float64(d.rngState%1000000)/500000.0 - 1.0)
}

func (d *analogDrumState) trigger(pitch int8, velocity float64) {
	lane, ok := groove.DrumLaneForPitch(pitch)
	if !ok {
		lane = 0
	}
	d.lane = lane
	d.pitch = pitch
	d.bodyPhase = 0
	d.ageSamples = 0
	d.sounding = true
	_ = velocity
}

func (d *analogDrumState) release(pitch int8) {
	// one-shot: release is a no-op, per the original drum engines.
}

func (d *analogDrumState) render() float64 {
	if !d.sounding || d.sampleRate <= 0 {
		return 0
	}
	p := d.banks[d.lane]
	t := d.ageSamples / d.sampleRate

	sweep := p.sweepHz * math.Exp(-t/math.Max(p.sweepTime, 1e-4))
	freq := p.toneHz + sweep
	d.bodyPhase += freq / d.sampleRate
	if d.bodyPhase >= 1 {
		d.bodyPhase -= math.Floor(d.bodyPhase)
	}
	body := math.Sin(2 * math.Pi * d.bodyPhase)
	bodyEnv := math.Exp(-t / math.Max(p.bodyDecayS, 1e-4))

	noise := d.nextRand()
	noiseEnv := math.Exp(-t / math.Max(p.noiseDecayS, 1e-4))

	out := body*bodyEnv*(1-p.noiseMix) + noise*noiseEnv*p.noiseMix
	d.ageSamples++

	if bodyEnv < 1e-4 && noiseEnv < 1e-4 {
		d.sounding = false
	}
	return out
}

func (d *analogDrumState) setParameter(id int, value float64) {
	if id < groove.ParamAnalogDrumStart || id > groove.ParamAnalogDrumEnd {
		return
	}
	offset := id - groove.ParamAnalogDrumStart
	lane := offset / 8
	field := offset % 8
	if lane < 0 || lane >= groove.NumDrumLanes {
		return
	}
	p := &d.banks[lane]
	switch field {
	case 0:
		p.toneHz = value
	case 1:
		p.sweepHz = value
	case 2:
		p.sweepTime = value
	case 3:
		p.bodyDecayS = value
	case 4:
		p.noiseDecayS = value
	case 5:
		p.noiseMix = value
	}
}

func (d *analogDrumState) allNotesOff() {
	d.sounding = false
}

func (d *analogDrumState) isActive() bool {
	return d.sounding
}
