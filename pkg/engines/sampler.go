package engines

import (
	"math"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/dsp"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

// SamplerPlayMode selects how a trigger maps to a playback region.
type SamplerPlayMode uint8

const (
	SamplerPlayOneShot SamplerPlayMode = iota
	SamplerPlayLoop
	SamplerPlaySliced
)

// samplerState plays back a shared *SampleBuffer (§5), pitched relative
// to a root note, optionally restricted to one slice of a sliced sample.
// Grounded on the teacher's WAVWriter/AudioReader pair for buffer shape,
// generalized to playback instead of export.
type samplerState struct {
	sampleRate float64
	buffer     *SampleBuffer

	rootNote  int8
	playMode  SamplerPlayMode
	sliceIdx  int

	playhead   float64
	rate       float64
	start, end int
	loaded     bool

	ampEnv dsp.ADSR

	pitch    int8
	sounding bool
}

func (s *samplerState) init(sr float64) {
	s.sampleRate = sr
	if s.buffer == nil {
		s.buffer = NewSampleBuffer()
	}
	s.ampEnv = *dsp.NewADSR(sr)
	s.rootNote = 60
	s.ampEnv.Attack = 0.001
	s.ampEnv.Decay = 0.05
	s.ampEnv.Sustain = 1.0
	s.ampEnv.Release = 0.05
}

func (s *samplerState) trigger(pitch int8, velocity float64) {
	s.pitch = pitch
	s.rate = math.Exp2(float64(pitch-s.rootNote) / 12.0)
	s.playhead = 0
	s.sounding = true
	s.loaded = false
	s.ampEnv.Trigger()

	buf, ok := s.buffer.TryAcquire()
	if !ok || buf == nil || len(buf.Data) == 0 {
		return
	}
	frames := len(buf.Data)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		frames = len(buf.Data) / buf.Format.NumChannels
	}
	start, end := s.buffer.SliceBounds(s.sliceIdx, frames)
	if start < 0 {
		start = 0
	}
	if end > frames {
		end = frames
	}
	s.start, s.end = start, end
	s.loaded = true
	_ = velocity
}

func (s *samplerState) release(pitch int8) {
	if pitch != s.pitch {
		return
	}
	if s.playMode != SamplerPlayOneShot {
		s.ampEnv.ReleaseNote()
	}
}

func (s *samplerState) render() (float64, float64) {
	if !s.sounding {
		return 0, 0
	}
	buf, ok := s.buffer.TryAcquire()
	if !ok || buf == nil || !s.loaded {
		return 0, 0
	}
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}

	idx := s.start + int(s.playhead)
	if idx >= s.end {
		switch s.playMode {
		case SamplerPlayLoop:
			s.playhead = 0
			idx = s.start
		default:
			s.sounding = false
			return 0, 0
		}
	}

	var left, right float64
	frameOffset := idx * channels
	if frameOffset >= 0 && frameOffset < len(buf.Data) {
		left = buf.Data[frameOffset]
		if channels > 1 && frameOffset+1 < len(buf.Data) {
			right = buf.Data[frameOffset+1]
		} else {
			right = left
		}
	}

	s.playhead += s.rate

	amp := s.ampEnv.Advance()
	if !s.ampEnv.Active() && s.playMode != SamplerPlayLoop {
		s.sounding = false
	}
	return left * amp, right * amp
}

func (s *samplerState) setParameter(id int, value float64) {
	switch id {
	case groove.ParamSamplerStart:
		s.rootNote = int8(value)
	case groove.ParamSamplerStart + 1:
		s.playMode = SamplerPlayMode(int(value) % 3)
	case groove.ParamSamplerStart + 2:
		s.sliceIdx = int(value)
	case groove.ParamAmpAttack:
		s.ampEnv.Attack = value
	case groove.ParamAmpDecay:
		s.ampEnv.Decay = value
	case groove.ParamAmpSustain:
		s.ampEnv.Sustain = value
	case groove.ParamAmpRelease:
		s.ampEnv.Release = value
	}
}

func (s *samplerState) allNotesOff() {
	s.sounding = false
	s.ampEnv.Reset()
}

func (s *samplerState) isActive() bool {
	return s.sounding
}
