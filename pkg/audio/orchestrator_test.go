package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/command"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

func TestOrchestratorRendersFiniteSilenceWhenIdle(t *testing.T) {
	o := NewOrchestrator(48000, nil)
	outL := make([]float64, 256)
	outR := make([]float64, 256)
	o.RenderBlock(outL, outR)
	for i := range outL {
		require.False(t, math.IsNaN(outL[i]) || math.IsInf(outL[i], 0))
		require.False(t, math.IsNaN(outR[i]) || math.IsInf(outR[i], 0))
	}
}

func TestOrchestratorNoteOnProducesSound(t *testing.T) {
	o := NewOrchestrator(48000, nil)
	o.Commands.Push(command.Command{Kind: command.KindNoteOn, TrackIndex: 0, Arg1: 60, Arg2: 100})

	var energy float64
	outL := make([]float64, 512)
	outR := make([]float64, 512)
	for block := 0; block < 5; block++ {
		o.RenderBlock(outL, outR)
		for i := range outL {
			energy += outL[i]*outL[i] + outR[i]*outR[i]
		}
	}
	require.Greater(t, energy, 0.0)
}

func TestOrchestratorMuteSilencesTrack(t *testing.T) {
	o := NewOrchestrator(48000, nil)
	o.Commands.Push(command.Command{Kind: command.KindMute, TrackIndex: 0, Arg1: 1})
	o.Commands.Push(command.Command{Kind: command.KindNoteOn, TrackIndex: 0, Arg1: 60, Arg2: 100})

	outL := make([]float64, 512)
	outR := make([]float64, 512)
	o.RenderBlock(outL, outR)
	for i := range outL {
		require.Equal(t, 0.0, outL[i])
		require.Equal(t, 0.0, outR[i])
	}
}

func TestOrchestratorArpTickFiresVoicesWithoutSequencerNoteOn(t *testing.T) {
	o := NewOrchestrator(48000, nil)
	track := o.Tracks[0]
	track.Arp.Mode = groove.ArpUp
	track.Arp.Rate = 4 // fast tick so it fires within this block
	track.Arp.AddNote(60)
	track.Arp.AddNote(64)
	track.Arp.AddNote(67)

	var energy float64
	outL := make([]float64, 2048)
	outR := make([]float64, 2048)
	for block := 0; block < 10; block++ {
		o.RenderBlock(outL, outR)
		for i := range outL {
			energy += outL[i]*outL[i] + outR[i]*outR[i]
		}
	}
	require.Greater(t, energy, 0.0)
}

func TestOrchestratorLiveNoteOnRoutesThroughArpWhenArpEnabled(t *testing.T) {
	o := NewOrchestrator(48000, nil)
	track := o.Tracks[0]
	track.Arp.Mode = groove.ArpUp
	o.Commands.Push(command.Command{Kind: command.KindNoteOn, TrackIndex: 0, Arg1: 60, Arg2: 100})

	outL := make([]float64, 64)
	outR := make([]float64, 64)
	o.RenderBlock(outL, outR)

	require.Contains(t, track.Arp.HeldNotes(), int8(60))
	require.Equal(t, 1, o.runtimes[0].physicalHeldCount)

	o.Commands.Push(command.Command{Kind: command.KindNoteOff, TrackIndex: 0, Arg1: 60})
	o.RenderBlock(outL, outR)
	require.Empty(t, track.Arp.HeldNotes())
	require.Equal(t, 0, o.runtimes[0].physicalHeldCount)
}

func TestOrchestratorStepLockOverridesBaseParam(t *testing.T) {
	o := NewOrchestrator(48000, nil)
	track := o.Tracks[0]
	track.BaseParams[groove.ParamCutoff] = 100
	// MainSequencer.Advance() moves CurrentStep forward before the step's
	// data is read, so the first step to actually fire from a fresh
	// sequencer is index 1, not 0.
	track.MainSequencer.Steps[1].Active = true
	track.MainSequencer.Steps[1].Notes = []groove.NoteEvent{{Pitch: 60, Velocity: 100}}
	track.MainSequencer.Steps[1].SetLock(groove.ParamCutoff, 777)
	o.Transport.SetBPM(960)

	outL := make([]float64, 512)
	outR := make([]float64, 512)
	o.RenderBlock(outL, outR)

	require.Equal(t, float32(777), track.AppliedParams[groove.ParamCutoff])
}

func TestOrchestratorTransportStopSilencesAndRewindsSequencers(t *testing.T) {
	o := NewOrchestrator(48000, nil)
	o.Commands.Push(command.Command{Kind: command.KindTransportStart, TrackIndex: 0})
	o.Commands.Push(command.Command{Kind: command.KindNoteOn, TrackIndex: 0, Arg1: 60, Arg2: 100})

	outL := make([]float64, 64)
	outR := make([]float64, 64)
	o.RenderBlock(outL, outR)
	require.NotEqual(t, -1, o.Tracks[0].FindVoiceForPitch(60))

	o.Commands.Push(command.Command{Kind: command.KindTransportStop, TrackIndex: 0})
	o.RenderBlock(outL, outR)

	require.False(t, o.Transport.Playing)
	require.Equal(t, -1, o.Tracks[0].FindVoiceForPitch(60))
	for _, e := range o.Tracks[0].Pending.Entries {
		require.False(t, e.InUse)
	}
}

func TestOrchestratorRecordingWritesNoteIntoCurrentStep(t *testing.T) {
	o := NewOrchestrator(48000, nil)
	track := o.Tracks[0]
	o.Transport.Playing = true
	o.Commands.Push(command.Command{Kind: command.KindSetRecording, Arg1: 1})
	o.Commands.Push(command.Command{Kind: command.KindNoteOn, TrackIndex: 0, Arg1: 60, Arg2: 100})

	outL := make([]float64, 64)
	outR := make([]float64, 64)
	o.RenderBlock(outL, outR)

	require.True(t, o.Transport.Recording)
	// Commands drain (and recordNoteOn runs) before this block's scheduler
	// advances the sequencer, so the note lands in the step that was
	// current when the command was processed: step 0.
	step := &track.MainSequencer.Steps[0]
	require.True(t, step.Active)
	require.Len(t, step.Notes, 1)
	require.EqualValues(t, 60, step.Notes[0].Pitch)
}

func TestOrchestratorSequencerFiresWithoutExplicitNoteOn(t *testing.T) {
	o := NewOrchestrator(48000, nil)
	o.Tracks[0].MainSequencer.Steps[0].Active = true
	o.Tracks[0].MainSequencer.Steps[0].Notes = []groove.NoteEvent{{Pitch: 60, Velocity: 100}}
	o.Transport.SetBPM(960) // fast tempo so the step fires within a few blocks

	var energy float64
	outL := make([]float64, 512)
	outR := make([]float64, 512)
	for block := 0; block < 50; block++ {
		o.RenderBlock(outL, outR)
		for i := range outL {
			energy += outL[i]*outL[i] + outR[i]*outR[i]
		}
	}
	require.Greater(t, energy, 0.0)
}
