package status

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldsSnapshotReflectsWrites(t *testing.T) {
	f := NewFields()
	f.SetPlaying(true)
	f.SetBPM(128.5)
	f.SetGlobalStep(42)
	f.SetCPULoad(0.37)
	f.SetTrackActive(2, true)

	snap := f.Snapshot()
	require.True(t, snap.Playing)
	require.InDelta(t, 128.5, snap.BPM, 1e-9)
	require.Equal(t, int64(42), snap.GlobalStep)
	require.InDelta(t, 0.37, snap.CPULoad, 1e-9)
	require.True(t, snap.TrackActive[2])
	require.False(t, snap.TrackActive[0])
}

func TestSetTrackActiveIgnoresOutOfRange(t *testing.T) {
	f := NewFields()
	f.SetTrackActive(-1, true)
	f.SetTrackActive(999, true)
	snap := f.Snapshot()
	for _, active := range snap.TrackActive {
		require.False(t, active)
	}
}

func TestMonitorViewRendersWithoutPanicking(t *testing.T) {
	f := NewFields()
	f.SetBPM(120)
	m := NewMonitor(f)
	out := m.View()
	require.Contains(t, out, "groovebox")
}
