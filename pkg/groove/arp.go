package groove

import "sort"

// ArpMode selects the arpeggiator's playback pattern (§3, §4.4).
type ArpMode int

const (
	ArpOff ArpMode = iota
	ArpUp
	ArpDown
	ArpUpDown
	ArpStaggerUp
	ArpStaggerDown
	ArpRandom
)

// ArpDivision is the rhythmic subdivision applied to the arp clock relative
// to the step clock (§4.4).
type ArpDivision int

const (
	ArpDivStraight ArpDivision = iota
	ArpDivDotted
	ArpDivTriplet
)

// Arpeggiator owns the held-notes set, the rendered play sequence, and the
// three rhythm lanes (§3, §4.4).
type Arpeggiator struct {
	Mode       ArpMode
	Octaves    int // signed
	Inversion  int // signed, semitones added to lane 0 on step 0 of a cycle
	Rate       float64
	Division   ArpDivision

	Latched           bool
	WaitingForGesture bool

	held []int8 // physically-held notes, kept sorted ascending

	playSequence []int8

	// RhythmLanes[n][i] is true if lane n fires on step i mod ArpLaneSteps.
	RhythmLanes [ArpRhythmLanes][ArpLaneSteps]bool

	stepIndex int

	// RandomIndices optionally pre-supplies the RANDOM mode's index walk;
	// when empty, NextNotes falls back to a Fisher-Yates shuffle driven by
	// the supplied RNG function.
	RandomIndices []int
	randomCursor  int
}

// NewArpeggiator returns an Arpeggiator with lane 0 always-on (the common
// default) and the other lanes off.
func NewArpeggiator() *Arpeggiator {
	a := &Arpeggiator{Rate: 1}
	for i := range a.RhythmLanes[0] {
		a.RhythmLanes[0][i] = true
	}
	return a
}

// AddNote registers a physically-held note. If the arp was latched and
// waiting for a new gesture (all previous notes released while latched),
// the held set is cleared first so this note starts a fresh gesture (§4.4
// latch semantics).
func (a *Arpeggiator) AddNote(pitch int8) {
	if a.WaitingForGesture {
		a.held = a.held[:0]
		a.WaitingForGesture = false
	}
	for _, p := range a.held {
		if p == pitch {
			return
		}
	}
	a.held = append(a.held, pitch)
	sort.Slice(a.held, func(i, j int) bool { return a.held[i] < a.held[j] })
	a.rebuildSequence()
}

// ReleaseNote releases a physically-held note. When latched, the note is
// kept in the held set (the arp keeps cycling it); once every physical note
// has been released, WaitingForGesture is set instead.
func (a *Arpeggiator) ReleaseNote(pitch int8) {
	if a.Latched {
		// We don't know here whether other physical keys are still down;
		// callers track physical key state and call AllPhysicalReleased
		// when the last key comes up.
		return
	}
	for i, p := range a.held {
		if p == pitch {
			a.held = append(a.held[:i], a.held[i+1:]...)
			break
		}
	}
	a.rebuildSequence()
}

// AllPhysicalReleased notifies the arp that every physically-held key has
// been released. Under latch, this arms WaitingForGesture rather than
// clearing the held set immediately.
func (a *Arpeggiator) AllPhysicalReleased() {
	if a.Latched {
		a.WaitingForGesture = true
		return
	}
	a.held = a.held[:0]
	a.rebuildSequence()
}

// SetLatched toggles latch mode. Unlatching clears all held notes and the
// rendered sequence (§4.4).
func (a *Arpeggiator) SetLatched(latched bool) {
	a.Latched = latched
	if !latched {
		a.held = a.held[:0]
		a.WaitingForGesture = false
		a.rebuildSequence()
	}
}

func (a *Arpeggiator) rebuildSequence() {
	if len(a.held) == 0 {
		a.playSequence = a.playSequence[:0]
		return
	}
	startOct, endOct := 0, 0
	if a.Octaves < startOct {
		startOct = a.Octaves
	}
	if a.Octaves > endOct {
		endOct = a.Octaves
	}

	seen := make(map[int]bool, len(a.held)*(endOct-startOct+1))
	expanded := a.playSequence[:0]
	for oct := startOct; oct <= endOct; oct++ {
		for _, p := range a.held {
			np := int(p) + 12*oct
			if np < 0 || np > 127 {
				continue
			}
			if !seen[np] {
				seen[np] = true
				expanded = append(expanded, int8(np))
			}
		}
	}
	sort.Slice(expanded, func(i, j int) bool { return expanded[i] < expanded[j] })
	a.playSequence = expanded
}

// NextNotes computes the pitches that fire on this arp tick, applying the
// mode transform and the three rhythm lanes (§4.4). rng supplies a
// uniformly distributed integer in [0,n) for RANDOM mode's Fisher-Yates
// shuffle when RandomIndices is not pre-supplied. The scheduler passes the
// generator it was built with, which may be nil. The returned slice is
// allocated afresh on each call.
func (a *Arpeggiator) NextNotes(rng func(n int) int) []int8 {
	if a.Mode == ArpOff || len(a.held) == 0 {
		return nil
	}

	seq := a.transformedSequence(rng)
	n := len(seq)
	if n == 0 {
		return nil
	}

	laneStep := a.stepIndex % ArpLaneSteps
	var out []int8

	if a.RhythmLanes[0][laneStep] {
		pitch := seq[a.stepIndex%n]
		if laneStep == 0 {
			// step-0-of-cycle: inversion shifts lane 0 only (§4.4).
			pitch += int8(a.Inversion)
		}
		out = append(out, pitch)
	}
	if n >= 2 && a.RhythmLanes[1][laneStep] {
		out = append(out, seq[(a.stepIndex+1)%n])
	}
	if n >= 3 && a.RhythmLanes[2][laneStep] {
		out = append(out, seq[(a.stepIndex+2)%n])
	}

	a.stepIndex++
	return out
}

// transformedSequence applies the mode transform to the expanded, sorted
// play sequence (§4.4).
func (a *Arpeggiator) transformedSequence(rng func(n int) int) []int8 {
	src := a.playSequence
	n := len(src)
	if n == 0 {
		return nil
	}

	switch a.Mode {
	case ArpUp:
		return src
	case ArpDown:
		return reversed(src)
	case ArpUpDown:
		out := make([]int8, 0, 2*n-2)
		out = append(out, src...)
		if n > 2 {
			for i := n - 2; i >= 1; i-- {
				out = append(out, src[i])
			}
		}
		return out
	case ArpStaggerUp:
		return staggerInterleave(src)
	case ArpStaggerDown:
		// Open question (i): "reverse, then stagger" — see SPEC_FULL.md E.5.
		return staggerInterleave(reversed(src))
	case ArpRandom:
		if len(a.RandomIndices) > 0 {
			out := make([]int8, 0, len(a.RandomIndices))
			for _, idx := range a.RandomIndices {
				if idx >= 0 && idx < n {
					out = append(out, src[idx])
				}
			}
			return out
		}
		out := append([]int8(nil), src...)
		if rng != nil {
			for i := len(out) - 1; i > 0; i-- {
				j := rng(i + 1)
				out[i], out[j] = out[j], out[i]
			}
		}
		return out
	default:
		return src
	}
}

func reversed(src []int8) []int8 {
	out := make([]int8, len(src))
	for i, v := range src {
		out[len(src)-1-i] = v
	}
	return out
}

// staggerInterleave reorders indices as (0, 2, 4, ..., 1, 3, 5, ...).
func staggerInterleave(src []int8) []int8 {
	out := make([]int8, 0, len(src))
	for i := 0; i < len(src); i += 2 {
		out = append(out, src[i])
	}
	for i := 1; i < len(src); i += 2 {
		out = append(out, src[i])
	}
	return out
}

// HeldNotes returns a read-only view of the currently held notes.
func (a *Arpeggiator) HeldNotes() []int8 {
	return a.held
}

// PlaySequence returns a read-only view of the rendered play sequence.
func (a *Arpeggiator) PlaySequence() []int8 {
	return a.playSequence
}

// ResetStepIndex restarts the rhythm-lane step counter (used on transport
// stop/start).
func (a *Arpeggiator) ResetStepIndex() {
	a.stepIndex = 0
}
