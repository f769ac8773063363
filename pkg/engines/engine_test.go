package engines

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
	"github.com/go-audio/audio"
)

func renderBlock(t *testing.T, e *Engine, n int) []float64 {
	t.Helper()
	out := make([]float64, n)
	for i := range out {
		out[i] = e.RenderMono()
	}
	return out
}

func hasEnergy(samples []float64) bool {
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return sum > 1e-6
}

func TestSubtractiveProducesSoundAndDecays(t *testing.T) {
	e := New(groove.EngineSubtractive, 48000)
	e.Trigger(60, 1.0)
	require.True(t, e.IsActive())
	attack := renderBlock(t, e, 200)
	require.True(t, hasEnergy(attack))

	e.Release(60)
	for i := 0; i < 48000*3; i++ {
		e.RenderMono()
	}
	require.False(t, e.IsActive())
}

func TestFMProducesFiniteSamples(t *testing.T) {
	e := New(groove.EngineFM, 48000)
	e.SetParameter(groove.ParamEngineStart, 3.1)
	e.Trigger(48, 1.0)
	for i := 0; i < 1000; i++ {
		v := e.RenderMono()
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestWavetablePositionCrossfadesWithoutBlowingUp(t *testing.T) {
	e := New(groove.EngineWavetable, 48000)
	e.SetParameter(groove.ParamWavetableStart, 1.5)
	e.Trigger(64, 1.0)
	samples := renderBlock(t, e, 500)
	require.True(t, hasEnergy(samples))
	for _, v := range samples {
		require.LessOrEqual(t, math.Abs(v), 1.5)
	}
}

func TestSamplerYieldsSilenceWithoutBuffer(t *testing.T) {
	e := New(groove.EngineSampler, 48000)
	e.Trigger(60, 1.0)
	l, r := e.RenderStereo()
	require.Equal(t, 0.0, l)
	require.Equal(t, 0.0, r)
}

func TestSamplerPlaysLoadedBuffer(t *testing.T) {
	e := New(groove.EngineSampler, 48000)
	buf := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: 48000},
		Data:   make([]float64, 2000),
	}
	for i := range buf.Data {
		buf.Data[i] = math.Sin(2 * math.Pi * float64(i) / 100)
	}
	e.SampleBuffer().Exchange("test", buf, nil, nil)
	e.Trigger(60, 1.0)
	samples := renderBlock(t, e, 500)
	require.True(t, hasEnergy(samples))
}

func TestGranularRendersWithoutPanicWhenIdle(t *testing.T) {
	e := New(groove.EngineGranular, 48000)
	e.Trigger(60, 1.0)
	l, r := e.RenderStereo()
	require.Equal(t, 0.0, l)
	require.Equal(t, 0.0, r)
}

func TestAnalogDrumIsOneShotAndDecays(t *testing.T) {
	e := New(groove.EngineAnalogDrum, 48000)
	e.Trigger(36, 1.0) // GM kick maps to lane 1
	require.True(t, e.IsActive())
	e.Release(36) // no-op for one-shot
	for i := 0; i < 48000*4; i++ {
		e.RenderMono()
	}
	require.False(t, e.IsActive())
}

func TestFMDrumProducesFiniteOutput(t *testing.T) {
	e := New(groove.EngineFMDrum, 48000)
	e.Trigger(42, 1.0)
	for i := 0; i < 2000; i++ {
		v := e.RenderMono()
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestAudioInPassesThroughRing(t *testing.T) {
	e := New(groove.EngineAudioIn, 48000)
	e.Trigger(60, 1.0)
	ring := e.audioIn.ring
	ring.Write(0.5)
	v := e.RenderMono()
	require.InDelta(t, 0.5, v, 1e-9)

	e.Release(60)
	require.Equal(t, 0.0, e.RenderMono())
}

func TestSetSampleRateReinitializesAllArms(t *testing.T) {
	e := New(groove.EngineSubtractive, 44100)
	e.SetSampleRate(48000)
	e.Trigger(60, 1.0)
	require.True(t, hasEnergy(renderBlock(t, e, 100)))
}
