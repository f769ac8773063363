package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

func TestBuildDemoOrchestratorProgramsExpectedSteps(t *testing.T) {
	orch := buildDemoOrchestrator(48000)
	track := orch.Tracks[0]

	require.True(t, track.MainSequencer.Steps[0].Active)
	require.Len(t, track.MainSequencer.Steps[0].Notes, 1)
	require.EqualValues(t, 60, track.MainSequencer.Steps[0].Notes[0].Pitch)

	require.True(t, track.MainSequencer.Steps[8].Active)
	require.False(t, track.MainSequencer.Steps[1].Active)

	require.True(t, orch.Transport.Playing)
	require.InDelta(t, 120, orch.Transport.BPM, 1e-9)
}

func TestBuildDemoOrchestratorProgramsArpTrack(t *testing.T) {
	orch := buildDemoOrchestrator(48000)
	arpTrack := orch.Tracks[1]
	require.NotEqual(t, 0, int(arpTrack.Arp.Mode))
	require.Len(t, arpTrack.Arp.HeldNotes(), 3)
	require.Greater(t, arpTrack.Sends[groove.FxOverdrive], 0.0)
	require.Greater(t, arpTrack.Sends[groove.FxDelay], 0.0)
}

func TestBuildDemoOrchestratorRendersFiniteAudio(t *testing.T) {
	orch := buildDemoOrchestrator(48000)
	left := make([]float64, 512)
	right := make([]float64, 512)
	orch.RenderBlock(left, right)
	for i := range left {
		require.False(t, left[i] != left[i], "left[%d] is NaN", i)
		require.False(t, right[i] != right[i], "right[%d] is NaN", i)
	}
}

func TestRootCommandHasExpectedSubcommands(t *testing.T) {
	root := newRootCmd()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["play"])
	require.True(t, names["render"])
	require.True(t, names["demo"])
	require.True(t, names["state"])
}

func TestDemoCommandRunsWithoutError(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"demo"})
	out := &bytes.Buffer{}
	root.SetOut(out)
	err := root.Execute()
	require.NoError(t, err)
	require.Contains(t, out.String(), "step")
}
