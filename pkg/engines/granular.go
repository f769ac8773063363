package engines

import (
	"math"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

// GrainWindow selects the amplitude envelope applied across a grain's
// lifetime (E.4 supplement, not present in the distilled spec but
// present in the original granular engine).
type GrainWindow uint8

const (
	WindowHann GrainWindow = iota
	WindowTriangular
	WindowTukey
)

const maxGrains = 16

type grain struct {
	active   bool
	pos      float64
	rate     float64
	ageFrames float64
	lenFrames float64
	pan      float64
}

// granularState scatters short, windowed grains across a shared sample
// buffer. A fixed pool of grains caps the per-block cost and guarantees
// no allocation once a voice is live.
type granularState struct {
	sampleRate float64
	buffer     *SampleBuffer

	grainLenMs   float64
	density      float64 // grains per second
	positionJitter float64
	pitchJitter  float64
	window       GrainWindow

	spawnAccum float64
	scanPos    float64
	rate       float64
	grains     [maxGrains]grain

	pitch    int8
	sounding bool
	rngState uint64
}

func (g *granularState) init(sr float64) {
	g.sampleRate = sr
	if g.buffer == nil {
		g.buffer = NewSampleBuffer()
	}
	g.grainLenMs = 80
	g.density = 20
	g.rngState = 0x9E3779B97F4A7C15
}

func (g *granularState) nextRand() float64 {
	g.rngState ^= g.rngState << 13
	g.rngState ^= g.rngState >> 7
	g.rngState ^= g.rngState << 17
	return float64(g.rngState%1000000) / 1000000.0
}

func (g *granularState) trigger(pitch int8, velocity float64) {
	g.pitch = pitch
	g.rate = math.Exp2(float64(pitch-60) / 12.0)
	g.sounding = true
	g.scanPos = 0
	g.spawnAccum = 0
	for i := range g.grains {
		g.grains[i].active = false
	}
	_ = velocity
}

func (g *granularState) release(pitch int8) {
	if pitch != g.pitch {
		return
	}
	g.sounding = false
}

func (g *granularState) windowGain(phase float64) float64 {
	switch g.window {
	case WindowTriangular:
		return 1 - math.Abs(2*phase-1)
	case WindowTukey:
		const taper = 0.2
		if phase < taper/2 {
			return 0.5 * (1 + math.Cos(math.Pi*(2*phase/taper-1)))
		}
		if phase > 1-taper/2 {
			return 0.5 * (1 + math.Cos(math.Pi*(2*(1-phase)/taper-1)))
		}
		return 1
	default: // Hann
		return 0.5 * (1 - math.Cos(2*math.Pi*phase))
	}
}

func (g *granularState) spawnGrain(frames int) {
	for i := range g.grains {
		if g.grains[i].active {
			continue
		}
		jitter := (g.nextRand()*2 - 1) * g.positionJitter * float64(frames)
		start := g.scanPos + jitter
		if start < 0 {
			start = 0
		}
		if start >= float64(frames) {
			start = float64(frames - 1)
		}
		pitchMul := math.Exp2((g.nextRand()*2 - 1) * g.pitchJitter / 12.0)
		g.grains[i] = grain{
			active:    true,
			pos:       start,
			rate:      g.rate * pitchMul,
			lenFrames: g.grainLenMs * 0.001 * g.sampleRate,
			pan:       g.nextRand(),
		}
		return
	}
}

func (g *granularState) render() (float64, float64) {
	if !g.sounding || g.sampleRate <= 0 {
		return 0, 0
	}
	buf, ok := g.buffer.TryAcquire()
	if !ok || buf == nil || len(buf.Data) == 0 {
		return 0, 0
	}
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	frames := len(buf.Data) / channels
	if frames <= 0 {
		return 0, 0
	}

	if g.density > 0 {
		g.spawnAccum += g.density / g.sampleRate
		for g.spawnAccum >= 1 {
			g.spawnGrain(frames)
			g.spawnAccum -= 1
		}
	}
	g.scanPos += g.rate
	if g.scanPos >= float64(frames) {
		g.scanPos -= float64(frames)
	}

	var left, right float64
	for i := range g.grains {
		gr := &g.grains[i]
		if !gr.active {
			continue
		}
		if gr.lenFrames <= 0 || gr.ageFrames >= gr.lenFrames {
			gr.active = false
			continue
		}
		idx := int(gr.pos) % frames
		if idx < 0 {
			idx += frames
		}
		s := buf.Data[idx*channels]
		if channels > 1 {
			s = (s + buf.Data[idx*channels+1]) * 0.5
		}
		env := g.windowGain(gr.ageFrames / gr.lenFrames)
		left += s * env * (1 - gr.pan)
		right += s * env * gr.pan

		gr.pos += gr.rate
		gr.ageFrames++
	}
	return left, right
}

func (g *granularState) setParameter(id int, value float64) {
	switch id {
	case groove.ParamGranularStart:
		g.grainLenMs = value
	case groove.ParamGranularStart + 1:
		g.density = value
	case groove.ParamGranularStart + 2:
		g.positionJitter = value
	case groove.ParamGranularStart + 3:
		g.pitchJitter = value
	case groove.ParamGranularStart + 4:
		g.window = GrainWindow(int(value) % 3)
	}
}

func (g *granularState) allNotesOff() {
	g.sounding = false
	for i := range g.grains {
		g.grains[i].active = false
	}
}

func (g *granularState) isActive() bool {
	if g.sounding {
		return true
	}
	for i := range g.grains {
		if g.grains[i].active {
			return true
		}
	}
	return false
}
