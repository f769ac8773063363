package dsp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestADSRAttackReachesOne(t *testing.T) {
	env := NewADSR(48000)
	env.Attack = 0.01
	env.Decay = 0.05
	env.Sustain = 0.5
	env.Release = 0.1
	env.Trigger()

	sawOne := false
	for i := 0; i < 48000; i++ {
		v := env.Advance()
		if v >= 1 {
			sawOne = true
			break
		}
	}
	require.True(t, sawOne, "attack should reach 1.0 within one second at sr=48000")
}

func TestADSRDecaysToSustain(t *testing.T) {
	env := NewADSR(48000)
	env.Attack = 0
	env.Decay = 0.05
	env.Sustain = 0.3
	env.Release = 0.1
	env.Trigger()

	var v float64
	for i := 0; i < 48000; i++ {
		v = env.Advance()
	}
	require.InDelta(t, 0.3, v, 1e-3)
	require.Equal(t, EnvSustain, env.Stage())
}

func TestADSRReleaseIsNoOpWhenIdle(t *testing.T) {
	env := NewADSR(48000)
	require.Equal(t, EnvIdle, env.Stage())
	env.ReleaseNote()
	require.Equal(t, EnvIdle, env.Stage())
}

func TestADSRReleaseReachesIdle(t *testing.T) {
	env := NewADSR(48000)
	env.Attack = 0
	env.Decay = 0
	env.Sustain = 1
	env.Release = 0.05
	env.Trigger()
	env.Advance()
	env.ReleaseNote()

	for i := 0; i < 48000; i++ {
		env.Advance()
	}
	require.Equal(t, EnvIdle, env.Stage())
	require.Equal(t, 0.0, env.Value())
}

func TestADSRNeverProducesNonFinite(t *testing.T) {
	env := NewADSR(0) // pathological sample rate
	env.Attack = -1
	env.Decay = -1
	env.Sustain = 2
	env.Release = -1
	env.Trigger()
	for i := 0; i < 1000; i++ {
		v := env.Advance()
		require.False(t, isBad(v))
	}
}

func isBad(v float64) bool {
	return v != v || v > 1e300 || v < -1e300
}
