package groove

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSequencerClampsLength(t *testing.T) {
	seq := NewSequencer(500)
	require.LessOrEqual(t, seq.Length(), MaxSteps)

	seq2 := NewSequencer(0)
	require.GreaterOrEqual(t, seq2.Length(), 1)
}

func TestSequencerAdvanceForwardWraps(t *testing.T) {
	seq := NewSequencer(16)
	seq.Direction = DirForward
	for i := 0; i < 16; i++ {
		seq.Advance()
	}
	require.Equal(t, 0, seq.CurrentStep)
}

func TestSequencerAdvanceBackwardWraps(t *testing.T) {
	seq := NewSequencer(16)
	seq.Direction = DirBackward
	seq.Advance()
	require.Equal(t, 15, seq.CurrentStep)
}

func TestDrumLaneMapping(t *testing.T) {
	lane, ok := DrumLaneForPitch(60)
	require.True(t, ok)
	require.Equal(t, 0, lane)

	lane, ok = DrumLaneForPitch(75)
	require.True(t, ok)
	require.Equal(t, 15, lane)

	lane, ok = DrumLaneForPitch(36) // GM kick
	require.True(t, ok)
	require.Equal(t, 1, lane)

	_, ok = DrumLaneForPitch(10)
	require.False(t, ok)
}

func TestSamplesPerStepHonoursClamps(t *testing.T) {
	a := SamplesPerStep(0, 48000, 1)
	b := SamplesPerStep(1, 48000, 1)
	require.Equal(t, a, b) // bpm<1 clamps to 1

	c := SamplesPerStep(120, 48000, 0)
	d := SamplesPerStep(120, 48000, 0.01)
	require.Equal(t, c, d)
}
