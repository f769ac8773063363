// Package status exposes the orchestrator's live playback state to the
// UI thread through plain atomics — no mutex, since this is exactly the
// "poll a few numbers" case §5 calls out as not needing one — plus a
// read-only bubbletea/lipgloss monitor for the terminal. Grounded on the
// teacher's pkg/tui Model, trimmed to its Init/Update/View skeleton and
// tick-driven refresh (the pattern-editing handlers belong to the
// external sequencing-surface collaborator, out of this module's scope).
package status

import (
	"math"
	"sync/atomic"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

// Snapshot is a point-in-time, allocation-free readout of transport and
// per-track state for display.
type Snapshot struct {
	Playing     bool
	BPM         float64
	GlobalStep  int64
	CPULoad     float64
	TrackActive [groove.NumTracks]bool
}

// Fields holds the atomic values Orchestrator.PublishStatus updates (the
// play command calls it from its own goroutine every 16 ms) and the UI
// thread polls on its own schedule (§4.9: "the UI thread must never
// block the audio thread to read status").
type Fields struct {
	playing    atomic.Bool
	bpmBits    atomic.Uint64
	globalStep atomic.Int64
	cpuBits    atomic.Uint64
	trackActive [groove.NumTracks]atomic.Bool
}

// NewFields returns a zeroed status block.
func NewFields() *Fields {
	return &Fields{}
}

// SetPlaying records whether the transport is running.
func (f *Fields) SetPlaying(v bool) { f.playing.Store(v) }

// SetBPM records the current tempo.
func (f *Fields) SetBPM(v float64) { f.bpmBits.Store(math.Float64bits(v)) }

// SetGlobalStep records the transport's global step counter.
func (f *Fields) SetGlobalStep(v int64) { f.globalStep.Store(v) }

// SetCPULoad records the most recent block's CPU load fraction.
func (f *Fields) SetCPULoad(v float64) { f.cpuBits.Store(math.Float64bits(v)) }

// SetTrackActive records whether a track has at least one sounding voice.
func (f *Fields) SetTrackActive(track int, active bool) {
	if track < 0 || track >= len(f.trackActive) {
		return
	}
	f.trackActive[track].Store(active)
}

// Snapshot reads every field into a plain struct for display.
func (f *Fields) Snapshot() Snapshot {
	s := Snapshot{
		Playing:    f.playing.Load(),
		BPM:        math.Float64frombits(f.bpmBits.Load()),
		GlobalStep: f.globalStep.Load(),
		CPULoad:    math.Float64frombits(f.cpuBits.Load()),
	}
	for i := range f.trackActive {
		s.TrackActive[i] = f.trackActive[i].Load()
	}
	return s
}
