package audio

import (
	"math"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/dsp"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

const maxDelayLineSamples = 96000 // 2s at 48kHz, generous for echo/chorus/flanger

// delayLine is a fixed-size circular buffer shared by every time-based
// effect (flanger, tape echo, chorus, tape wobble, delay, reverb).
type delayLine struct {
	buf   [maxDelayLineSamples]float64
	write int
}

func (d *delayLine) push(x float64) {
	d.buf[d.write] = x
	d.write = (d.write + 1) % maxDelayLineSamples
}

func (d *delayLine) readBack(samples float64) float64 {
	if samples < 0 {
		samples = 0
	}
	if samples > maxDelayLineSamples-2 {
		samples = maxDelayLineSamples - 2
	}
	pos := float64(d.write) - samples
	for pos < 0 {
		pos += maxDelayLineSamples
	}
	i0 := int(pos) % maxDelayLineSamples
	i1 := (i0 + 1) % maxDelayLineSamples
	frac := pos - math.Floor(pos)
	return d.buf[i0]*(1-frac) + d.buf[i1]*frac
}

// fxUnit is one effects-graph slot: a tagged union over all 15 DSP kinds,
// mirroring pkg/engines' Engine so that the 15-slot FX rack is also a
// fixed, zero-allocation array rather than interface-typed.
type fxUnit struct {
	kind       groove.EffectSlotKind
	sampleRate float64

	lfo groove.LFO

	delayL, delayR delayLine
	hp, lp         dsp.StateVariableFilter

	// generic per-kind knobs, reused across kinds with different meanings
	rate, depth, feedback, mix, tone float64

	bitDepth   float64
	crushAccum int
	crushHold  float64

	envFollower dsp.EnvelopeFollower
	compThreshold, compRatio, compMakeup float64

	sliceCounter int
	sliceGate    bool
	sliceRate    float64
}

func newFxUnit(kind groove.EffectSlotKind, sampleRate float64) *fxUnit {
	u := &fxUnit{kind: kind, sampleRate: sampleRate}
	u.lfo = groove.LFO{Frequency: 0.5, Depth: 1.0, Shape: groove.LFOSine}
	u.hp = *dsp.NewStateVariableFilter(sampleRate)
	u.lp = *dsp.NewStateVariableFilter(sampleRate)
	u.envFollower = *dsp.NewEnvelopeFollower(sampleRate)
	u.mix = 0.5
	u.feedback = 0.3
	u.depth = 0.5
	u.rate = 1.0
	u.tone = 2000
	u.bitDepth = 16
	u.compThreshold = -12
	u.compRatio = 4
	u.compMakeup = 1
	u.sliceRate = 8
	return u
}

// process runs one stereo sample through the unit's DSP kind.
func (u *fxUnit) process(l, r float64) (float64, float64) {
	dt := 1.0 / u.sampleRate
	switch u.kind {
	case groove.FxFlanger:
		return u.processFlanger(l, r, dt)
	case groove.FxTapeEcho:
		return u.processTapeEcho(l, r)
	case groove.FxSpread:
		return u.processSpread(l, r)
	case groove.FxOctaver:
		return u.processOctaver(l, r)
	case groove.FxOverdrive:
		return u.processOverdrive(l, r)
	case groove.FxBitcrusher:
		return u.processBitcrusher(l, r)
	case groove.FxChorus:
		return u.processChorus(l, r, dt)
	case groove.FxPhaser:
		return u.processPhaser(l, r, dt)
	case groove.FxTapeWobble:
		return u.processTapeWobble(l, r, dt)
	case groove.FxDelay:
		return u.processDelay(l, r)
	case groove.FxReverb:
		return u.processReverb(l, r)
	case groove.FxSlicer:
		return u.processSlicer(l, r)
	case groove.FxCompressor:
		return u.processCompressor(l, r)
	case groove.FxHPLFOFilter:
		return u.processSweptFilter(l, r, dt, true)
	case groove.FxLPLFOFilter:
		return u.processSweptFilter(l, r, dt, false)
	default:
		return l, r
	}
}

func (u *fxUnit) processFlanger(l, r, dt float64) (float64, float64) {
	u.delayL.push(l)
	u.delayR.push(r)
	mod := u.lfo.Advance(dt)
	delaySamples := (1 + mod) * 0.001 * u.sampleRate * (1 + u.depth)
	dl := u.delayL.readBack(delaySamples)
	dr := u.delayR.readBack(delaySamples)
	outL := l + u.feedback*dl
	outR := r + u.feedback*dr
	return l*(1-u.mix) + outL*u.mix, r*(1-u.mix) + outR*u.mix
}

func (u *fxUnit) processTapeEcho(l, r float64) (float64, float64) {
	u.delayL.push(l + u.delayL.readBack(u.rate*u.sampleRate)*u.feedback)
	u.delayR.push(r + u.delayR.readBack(u.rate*u.sampleRate)*u.feedback)
	echoL := u.delayL.readBack(u.rate * u.sampleRate)
	echoR := u.delayR.readBack(u.rate * u.sampleRate)
	return l + echoL*u.mix, r + echoR*u.mix
}

func (u *fxUnit) processSpread(l, r float64) (float64, float64) {
	mid := (l + r) * 0.5
	side := (l - r) * 0.5 * (1 + u.depth)
	return mid + side, mid - side
}

func (u *fxUnit) processOctaver(l, r float64) (float64, float64) {
	// Full-wave rectify, rescaled to [-1,1]: doubles the input frequency
	// for a rough octave-up; mixed under dry at half the mix amount.
	subL := math.Abs(l)*2 - 1
	subR := math.Abs(r)*2 - 1
	return l + subL*u.mix*0.5, r + subR*u.mix*0.5
}

// softClip is the master limiter's curve (§4.7). NaN/Inf inputs (a
// runaway feedback path, a divide-by-zero in some unit's DSP) are replaced
// with zero rather than propagated into the output buffer.
func softClip(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	switch {
	case x > 1:
		return 1 - math.Exp(1-x)
	case x < -1:
		return -1 + math.Exp(1+x)
	default:
		return x
	}
}

func (u *fxUnit) processOverdrive(l, r float64) (float64, float64) {
	drive := 1 + u.depth*9
	return softClip(l * drive), softClip(r * drive)
}

func (u *fxUnit) processBitcrusher(l, r float64) (float64, float64) {
	steps := math.Pow(2, math.Max(1, u.bitDepth))
	quant := func(x float64) float64 {
		return math.Round(x*steps) / steps
	}
	rateDiv := int(math.Max(1, u.rate))
	u.crushAccum++
	if u.crushAccum >= rateDiv {
		u.crushAccum = 0
		u.crushHold = quant(l)
	}
	return u.crushHold, quant(r)
}

func (u *fxUnit) processChorus(l, r, dt float64) (float64, float64) {
	u.delayL.push(l)
	u.delayR.push(r)
	mod := u.lfo.Advance(dt)
	base := 0.015 * u.sampleRate
	dl := u.delayL.readBack(base + mod*u.depth*0.01*u.sampleRate)
	dr := u.delayR.readBack(base - mod*u.depth*0.01*u.sampleRate)
	return l*(1-u.mix) + dl*u.mix, r*(1-u.mix) + dr*u.mix
}

func (u *fxUnit) processPhaser(l, r, dt float64) (float64, float64) {
	mod := u.lfo.Advance(dt)
	u.hp.Cutoff = 500 + (mod*0.5+0.5)*3000*u.depth
	u.hp.UpdateCoefficients()
	_, _, _, notchL, _ := u.hp.Process(l)
	_, _, _, notchR, _ := u.hp.Process(r)
	return l*(1-u.mix) + notchL*u.mix, r*(1-u.mix) + notchR*u.mix
}

func (u *fxUnit) processTapeWobble(l, r, dt float64) (float64, float64) {
	mod := u.lfo.Advance(dt)
	wobble := 1 + mod*u.depth*0.01
	u.delayL.push(l)
	u.delayR.push(r)
	dl := u.delayL.readBack(200 * wobble)
	dr := u.delayR.readBack(200 * wobble)
	return dl, dr
}

func (u *fxUnit) processDelay(l, r float64) (float64, float64) {
	delaySamples := u.rate * u.sampleRate
	fbL := u.delayL.readBack(delaySamples)
	fbR := u.delayR.readBack(delaySamples)
	u.delayL.push(l + fbL*u.feedback)
	u.delayR.push(r + fbR*u.feedback)
	return l + fbL*u.mix, r + fbR*u.mix
}

func (u *fxUnit) processReverb(l, r float64) (float64, float64) {
	// A single feedback delay network tap per channel with heavy
	// damping — a cheap, allocation-free stand-in for the original's
	// multi-tap reverb, adequate for the orchestrator's needs.
	mono := (l + r) * 0.5
	tapA := u.delayL.readBack(1557)
	tapB := u.delayL.readBack(2617)
	tapC := u.delayR.readBack(1933)
	wet := (tapA + tapB + tapC) / 3
	u.delayL.push(mono + wet*u.feedback*0.7)
	u.delayR.push(mono + wet*u.feedback*0.7)
	return l + wet*u.mix, r + wet*u.mix
}

func (u *fxUnit) processSlicer(l, r float64) (float64, float64) {
	period := int(u.sampleRate / math.Max(u.sliceRate, 0.1) / 2)
	u.sliceCounter++
	if u.sliceCounter >= period {
		u.sliceCounter = 0
		u.sliceGate = !u.sliceGate
	}
	if u.sliceGate {
		return l, r
	}
	return l * (1 - u.mix), r * (1 - u.mix)
}

func (u *fxUnit) processCompressor(l, r float64) (float64, float64) {
	level := u.envFollower.Process(math.Max(math.Abs(l), math.Abs(r)))
	levelDb := 20 * math.Log10(math.Max(level, 1e-6))
	var gainDb float64
	if levelDb > u.compThreshold {
		over := levelDb - u.compThreshold
		gainDb = -over * (1 - 1/math.Max(u.compRatio, 1))
	}
	gain := math.Pow(10, gainDb/20) * u.compMakeup
	return l * gain, r * gain
}

func (u *fxUnit) processSweptFilter(l, r, dt float64, highpass bool) (float64, float64) {
	mod := u.lfo.Advance(dt)
	cutoff := u.tone * math.Exp2(mod*u.depth*2)
	u.lp.Cutoff = cutoff
	u.lp.UpdateCoefficients()
	lowL, highL, _, _, _ := u.lp.Process(l)
	u.hp.Cutoff = cutoff
	u.hp.UpdateCoefficients()
	lowR, highR, _, _, _ := u.hp.Process(r)
	if highpass {
		return highL, highR
	}
	return lowL, lowR
}

// EffectsGraph is the runtime counterpart of groove.EffectsGraphConfig:
// one fxUnit per slot, processed in the configured chain order and summed
// into the master mix bus (§4.7).
type EffectsGraph struct {
	cfg   groove.EffectsGraphConfig
	units [groove.NumEffectSlots]*fxUnit
}

// NewEffectsGraph builds a graph from cfg, one fxUnit per configured kind.
func NewEffectsGraph(cfg groove.EffectsGraphConfig, sampleRate float64) *EffectsGraph {
	g := &EffectsGraph{cfg: cfg}
	for i := range g.units {
		g.units[i] = newFxUnit(cfg.Slots[i].Kind, sampleRate)
	}
	return g
}

// Reset reinitializes every slot's internal DSP state (delay lines,
// filter integrators, envelope followers, LFO phase, slicer/bitcrusher
// counters) to silence, for the transport-start handling in §4.8 ("on
// start, effect buffers are cleared"). Configured knobs are preserved:
// each unit is cleared in place rather than rebuilt from defaults.
func (g *EffectsGraph) Reset() {
	for _, u := range g.units {
		u.delayL = delayLine{}
		u.delayR = delayLine{}
		u.hp.Reset()
		u.lp.Reset()
		u.envFollower.Reset()
		u.lfo.Reset()
		u.crushAccum, u.crushHold = 0, 0
		u.sliceCounter, u.sliceGate = 0, false
	}
}

// Unit exposes a slot's fxUnit for parameter configuration.
func (g *EffectsGraph) Unit(slot groove.EffectSlotKind) *fxUnit {
	if int(slot) < 0 || int(slot) >= groove.NumEffectSlots {
		return nil
	}
	return g.units[slot]
}

// Send routes (l, r) into the given slot's input bus. Slots destined for
// MasterMix add directly into the accumulated master sum; slots chained
// into another slot recurse through that slot first.
func (g *EffectsGraph) Send(slot groove.EffectSlotKind, l, r float64, masterL, masterR *float64) {
	wl, wr := g.units[slot].process(l, r)
	dest := g.cfg.Slots[slot].ChainDestination
	if dest == groove.MasterMix {
		*masterL += wl
		*masterR += wr
		return
	}
	g.Send(groove.EffectSlotKind(dest), wl, wr, masterL, masterR)
}
