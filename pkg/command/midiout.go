package command

import (
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"
)

// MIDIEvent is one note-on/off event the audio thread reports back to
// the UI thread (§4.8: the audio->UI direction of the FIFO, used for
// activity displays and for forwarding to an external MIDI output).
type MIDIEvent struct {
	TrackIndex int
	NoteOn     bool
	Pitch      int8
	Velocity   int8
}

const midiOutCapacity = 512

// MIDIOutQueue is the audio->UI counterpart of Queue: single-producer
// (audio thread), single-consumer (UI thread or a MIDI-forwarding
// goroutine).
type MIDIOutQueue struct {
	items [midiOutCapacity]MIDIEvent
	head  atomic.Uint64
	tail  atomic.Uint64
}

// NewMIDIOutQueue returns an empty queue.
func NewMIDIOutQueue() *MIDIOutQueue {
	return &MIDIOutQueue{}
}

// Push enqueues an event, dropping it silently if the queue is full.
func (q *MIDIOutQueue) Push(ev MIDIEvent) bool {
	tail := q.tail.Load()
	head := q.head.Load()
	if tail-head >= midiOutCapacity {
		return false
	}
	q.items[tail%midiOutCapacity] = ev
	q.tail.Store(tail + 1)
	return true
}

// Pop removes and returns the oldest event, or ok=false if empty.
func (q *MIDIOutQueue) Pop() (MIDIEvent, bool) {
	head := q.head.Load()
	tail := q.tail.Load()
	if head >= tail {
		return MIDIEvent{}, false
	}
	ev := q.items[head%midiOutCapacity]
	q.head.Store(head + 1)
	return ev, true
}

// ToWireMessage converts a MIDIEvent into a gomidi/midi/v2 wire message on
// MIDI channel ch, for forwarding to an external MIDI output port.
func ToWireMessage(ev MIDIEvent, ch uint8) midi.Message {
	note := uint8(ev.Pitch)
	vel := uint8(ev.Velocity)
	if ev.NoteOn && vel > 0 {
		return midi.NoteOn(ch, note, vel)
	}
	return midi.NoteOff(ch, note)
}
