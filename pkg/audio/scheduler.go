package audio

import (
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

const maxStepBoundariesPerBlock = 4

// maxArpTicksPerBlock bounds the arp clock's per-block catch-up the same
// way maxStepBoundariesPerBlock bounds the step clock, but twice as
// generous (§4.8 step 3: "advance arp countdown identically, bounded by 8
// per sub-block"), since arp divisions can run faster than the step clock.
const maxArpTicksPerBlock = 8

// minSamplesPerStep floors the step period so that a pathological
// tempo/multiplier combination can't spin the scheduler in place; this is
// the "machine gun" guard §4.3 assigns to the scheduler rather than the
// data model.
const minSamplesPerStep = 2400

// Scheduler turns a track's step sequencer into sample-accurate note
// events. It is the generalization of the teacher's tick-counter-driven
// Player.ProcessTick loop (GenerateSamples walking TickCounter against
// TickSamples) into sub-sample dispatch: a step's notes (and their
// ratchet subdivisions) are scheduled at an exact sample offset from the
// step boundary, then counted down block by block until they fire,
// instead of firing a whole row only on a tick boundary.
//
// If a block is long enough to cross more than maxStepBoundariesPerBlock
// step boundaries (host underrun, or an absurdly fast tempo), the
// scheduler caps the catch-up at that many boundaries per call and
// drops the remaining deficit (the countdown is clamped to zero), rather
// than spinning unboundedly (§4.4 microtiming note).
type Scheduler struct {
	rng func(n int) int
}

// NewScheduler returns a scheduler. rng, if non-nil, drives probability
// gates; a nil rng makes every gate succeed, which keeps rendering
// deterministic for tests and offline export.
func NewScheduler(rng func(n int) int) *Scheduler {
	return &Scheduler{rng: rng}
}

func (s *Scheduler) randFloat01() float64 {
	if s.rng == nil {
		return 0
	}
	const buckets = 1 << 16
	return float64(s.rng(buckets)) / float64(buckets)
}

// Advance processes nFrames worth of audio-rate time for track t, firing
// trigger for every note whose pending-ring entry counts down to zero
// within the block. accumulator is the track's own "samples until next
// step boundary" countdown, owned by the caller's per-track runtime state
// (it isn't part of the pure data model, since it's derived from sample
// rate and tempo rather than song data). samplesPerStep is the current
// tempo- and clock-multiplier-adjusted step duration; swingFrac delays
// odd-numbered steps by that fraction of a step.
func (s *Scheduler) Advance(t *groove.Track, samplesPerStep, swingFrac float64, nFrames int, accumulator *float64, activeLocks *[]groove.ParamLock, trigger func(pitch, velocity int8)) {
	if samplesPerStep < minSamplesPerStep {
		samplesPerStep = minSamplesPerStep
	}

	*accumulator -= float64(nFrames)
	boundaries := 0
	for *accumulator <= 0 && boundaries < maxStepBoundariesPerBlock {
		boundaries++
		stepSamples := samplesPerStep
		if isOddStep(t) {
			stepSamples += samplesPerStep * swingFrac
		}
		s.fireStep(t, stepSamples, activeLocks)
		*accumulator += stepSamples
	}
	if *accumulator < 0 {
		// Catch-up budget spent this block; don't let the deficit compound.
		*accumulator = 0
	}

	s.pump(t, float64(nFrames), trigger)
}

// AdvanceArp runs track t's arpeggiator clock over nFrames of audio-rate
// time, invoking fireTick once per elapsed arp tick with the pitches
// NextNotes computes for that tick (§4.4, §4.8 step 3). accumulator is the
// track's own "samples until next arp tick" countdown, the arp-clock
// counterpart of Advance's step accumulator. A track with the arp off, or
// with nothing held, is a no-op — the countdown simply doesn't advance,
// so turning the arp back on later doesn't fire a burst of stale ticks.
func (s *Scheduler) AdvanceArp(t *groove.Track, samplesPerStep float64, nFrames int, accumulator *float64, fireTick func(pitches []int8)) {
	if t.Arp == nil || t.Arp.Mode == groove.ArpOff {
		return
	}

	tickSamples := arpSamplesPerStep(samplesPerStep, t.Arp)

	*accumulator -= float64(nFrames)
	ticks := 0
	for *accumulator <= 0 && ticks < maxArpTicksPerBlock {
		ticks++
		fireTick(t.Arp.NextNotes(s.rng))
		*accumulator += tickSamples
	}
	if *accumulator < 0 {
		*accumulator = 0
	}
}

// arpSamplesPerStep converts the step clock's period into the arp clock's
// own tick period (§4.4): rate is floored at 0.125 of a step, then scaled
// by the division's dotted (x1.5) or triplet (x0.667) multiplier.
func arpSamplesPerStep(samplesPerStep float64, a *groove.Arpeggiator) float64 {
	rate := a.Rate
	if rate < 0.125 {
		rate = 0.125
	}
	period := samplesPerStep * rate
	switch a.Division {
	case groove.ArpDivDotted:
		period *= 1.5
	case groove.ArpDivTriplet:
		period *= 0.667
	}
	if period < minSamplesPerStep {
		period = minSamplesPerStep
	}
	return period
}

func isOddStep(t *groove.Track) bool {
	if t.MainSequencer == nil {
		return false
	}
	return t.MainSequencer.CurrentStep%2 == 1
}

// fireStep enqueues every note in the current step (main sequencer and
// every drum lane) into the track's pending ring, honoring ratchets and
// the step's probability gate. stepSamples converts the step's
// sub-step-offset and ratchet index into an absolute sample offset from
// this boundary.
func (s *Scheduler) fireStep(t *groove.Track, stepSamples float64, activeLocks *[]groove.ParamLock) {
	main := t.MainSequencer
	if main == nil {
		return
	}
	main.Advance()
	step := main.CurrentStepData()
	if activeLocks != nil {
		*activeLocks = step.Locks
	}
	s.enqueueStep(t, step, stepSamples)

	for lane := range t.DrumLanes {
		seq := t.DrumLanes[lane]
		if seq == nil {
			continue
		}
		seq.Advance()
		s.enqueueStep(t, seq.CurrentStepData(), stepSamples)
	}
}

func (s *Scheduler) enqueueStep(t *groove.Track, step *groove.Step, stepSamples float64) {
	if step == nil || !step.Active {
		return
	}
	if step.Probability < 1.0 && s.randFloat01() > step.Probability {
		return
	}
	ratchets := step.Ratchet
	if ratchets < 1 {
		ratchets = 1
	}
	ratchetSpacing := stepSamples / float64(ratchets)
	for _, n := range step.Notes {
		for r := 0; r < ratchets; r++ {
			offset := n.SubStepOffset*stepSamples + float64(r)*ratchetSpacing
			t.Pending.Push(groove.PendingNote{
				Pitch:            n.Pitch,
				Velocity:         n.Velocity,
				SamplesUntilFire: offset,
				GateLengthSteps:  step.GateLengthSteps,
				RatchetRemaining: ratchets - r,
				Accent:           step.Accent,
				InUse:            true,
			})
		}
	}
}

// pump counts down every in-use pending entry by elapsedSamples and
// fires trigger for the ones that cross zero.
func (s *Scheduler) pump(t *groove.Track, elapsedSamples float64, trigger func(pitch, velocity int8)) {
	for i := range t.Pending.Entries {
		e := &t.Pending.Entries[i]
		if !e.InUse {
			continue
		}
		e.SamplesUntilFire -= elapsedSamples
		if e.SamplesUntilFire > 0 {
			continue
		}
		trigger(e.Pitch, e.Velocity)
		e.InUse = false
	}
}
