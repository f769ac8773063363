// Package command implements the lock-free queues that connect the UI
// thread to the audio thread (§4.8, §5): a single-producer/single-consumer
// ring of UI->audio commands, and the audio->UI MIDI-out event FIFO that
// reports note-on/off activity back for display or external MIDI
// forwarding via gitlab.com/gomidi/midi/v2.
package command

import "sync/atomic"

// Kind tags a Command's meaning; Arg1/Arg2/Value are interpreted per kind
// rather than giving every kind its own struct, so Command stays a small
// fixed-size value that never allocates going into the ring.
type Kind uint8

const (
	KindNoteOn Kind = iota
	KindNoteOff
	KindParamSet
	KindSetBPM
	KindSetSwing
	KindSetClockMultiplier
	KindMute
	KindSolo
	KindTransportStart
	KindTransportStop
	KindSetRecording
)

// Command is one UI->audio instruction (§4.8 step 1: drained in full at
// the start of every block before any rendering happens).
type Command struct {
	Kind       Kind
	TrackIndex int
	Arg1       int32
	Arg2       int32
	Value      float64
}

const queueCapacity = 1024

// Queue is a single-producer (UI thread), single-consumer (audio thread)
// lock-free ring buffer, grounded on the teacher's own preference for
// plain indexed arrays over channels for anything performance-sensitive
// (Player's fixed-size EchoBuffers). Capacity is a power of two so the
// index wrap is a mask, not a modulo.
type Queue struct {
	items [queueCapacity]Command
	head  atomic.Uint64 // next slot to read
	tail  atomic.Uint64 // next slot to write
}

// NewQueue returns an empty command queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push enqueues cmd. Returns false and drops the command if the queue is
// full — the UI thread should retry or coalesce rather than block the
// audio thread ever waiting on it.
func (q *Queue) Push(cmd Command) bool {
	tail := q.tail.Load()
	head := q.head.Load()
	if tail-head >= queueCapacity {
		return false
	}
	q.items[tail%queueCapacity] = cmd
	q.tail.Store(tail + 1)
	return true
}

// Pop removes and returns the oldest command, or ok=false if empty.
// Called only from the audio thread.
func (q *Queue) Pop() (Command, bool) {
	head := q.head.Load()
	tail := q.tail.Load()
	if head >= tail {
		return Command{}, false
	}
	cmd := q.items[head%queueCapacity]
	q.head.Store(head + 1)
	return cmd, true
}
