package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueuePushPopOrder(t *testing.T) {
	q := NewQueue()
	require.True(t, q.Push(Command{Kind: KindNoteOn, TrackIndex: 0, Arg1: 60}))
	require.True(t, q.Push(Command{Kind: KindNoteOff, TrackIndex: 0, Arg1: 60}))

	first, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, KindNoteOn, first.Kind)

	second, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, KindNoteOff, second.Kind)

	_, ok = q.Pop()
	require.False(t, ok)
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue()
	for i := 0; i < queueCapacity; i++ {
		require.True(t, q.Push(Command{Kind: KindParamSet}))
	}
	require.False(t, q.Push(Command{Kind: KindParamSet}))
}

func TestMIDIOutQueueRoundTrip(t *testing.T) {
	q := NewMIDIOutQueue()
	require.True(t, q.Push(MIDIEvent{TrackIndex: 1, NoteOn: true, Pitch: 64, Velocity: 100}))
	ev, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, int8(64), ev.Pitch)
}

func TestToWireMessageDistinguishesOnOff(t *testing.T) {
	on := ToWireMessage(MIDIEvent{NoteOn: true, Pitch: 60, Velocity: 100}, 0)
	off := ToWireMessage(MIDIEvent{NoteOn: false, Pitch: 60}, 0)
	require.NotEqual(t, on, off)
}
