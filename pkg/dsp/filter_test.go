package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateVariableFilterLowpassAttenuatesHighFreq(t *testing.T) {
	const sr = 48000.0
	f := NewStateVariableFilter(sr)
	f.Cutoff = 200
	f.Resonance = 0.707
	f.UpdateCoefficients()

	energy := func(freq float64) float64 {
		f.Reset()
		var sum float64
		for i := 0; i < 2000; i++ {
			x := math.Sin(2 * math.Pi * freq * float64(i) / sr)
			low, _, _, _, _ := f.Process(x)
			if i > 500 { // settle
				sum += low * low
			}
		}
		return sum
	}

	low := energy(100)
	high := energy(8000)
	require.Greater(t, low, high, "lowpass should pass 100Hz more than 8kHz")
}

func TestStateVariableFilterHandlesNonFiniteInput(t *testing.T) {
	f := NewStateVariableFilter(48000)
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		low, high, band, notch, peak := f.Process(bad)
		for _, v := range []float64{low, high, band, notch, peak} {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}

func TestEnvelopeFollowerTracksLevel(t *testing.T) {
	f := NewEnvelopeFollower(48000)
	for i := 0; i < 10000; i++ {
		f.Process(1.0)
	}
	require.InDelta(t, 1.0, f.Level(), 0.05)

	for i := 0; i < 20000; i++ {
		f.Process(0.0)
	}
	require.Less(t, f.Level(), 0.05)
}

func TestEnvelopeFollowerIgnoresNonFinite(t *testing.T) {
	f := NewEnvelopeFollower(48000)
	v := f.Process(math.NaN())
	require.False(t, math.IsNaN(v))
}
