package audio

import (
	"math"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/command"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/dsp"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/engines"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/status"
)

// trackRuntime holds everything a track needs at render time that isn't
// part of the pure data model: its voice-producing engine, the last
// parameter values actually pushed into it (for modulation thrash
// suppression, §4.6), its step-boundary and arp-tick accumulators, its
// own envelope follower (feeding both its own filter-follow modulation
// and, for the designated sidechain source, every other track's
// ducking), and the transient state the arpeggiator and sequencer-arming
// recorder need that isn't part of the pure data model either.
type trackRuntime struct {
	engine          *engines.Engine
	lastApplied     [groove.NumParams]float32
	stepAccumulator float64
	follower        dsp.EnvelopeFollower

	// activeLocks is the most recently fired step's parameter locks,
	// re-applied every block until the next step boundary (§4.3 step 2).
	activeLocks []groove.ParamLock

	// arpAccumulator is the arp clock's own "samples until next tick"
	// countdown, independent of stepAccumulator (§4.4, §4.8 step 3).
	arpAccumulator    float64
	arpActive         []int8
	arpVelocity       int8
	physicalHeldCount int

	// recording tracks open sequencer-arming note-on events, keyed by
	// pitch, so the matching note-off can compute a gate length (§4.9).
	recording map[int8]openRecord
}

// openRecord is one pitch's in-flight sequencer-arming capture, from
// note-on until the matching note-off closes it out (§4.9).
type openRecord struct {
	seq       *groove.Sequencer
	stepIndex int
	subOffset float64
}

// Orchestrator is the audio callback's owner: it holds every track, the
// shared modulation matrix, the effects graph, and the master limiter,
// and exposes one RenderBlock call the driver invokes once per block (§4.8,
// §4.9). It is the generalization of the teacher's Player.GenerateSamples
// loop (per-channel oscillator render + echo send + sqrt(N) gain staging
// + tanh limiter) to N engine-backed tracks, a full modulation matrix,
// and a 15-slot effects graph.
type Orchestrator struct {
	SampleRate float64

	Transport *groove.Transport
	Tracks    [groove.NumTracks]*groove.Track
	runtimes  [groove.NumTracks]*trackRuntime

	Modulation *ModulationMatrix
	Effects    *EffectsGraph
	scheduler  *Scheduler

	Commands *command.Queue
	MIDIOut  *command.MIDIOutQueue

	swing float64

	cpuLoad float64
}

// NewOrchestrator builds an orchestrator for sampleRate, allocating every
// track, its engine, and the effects graph once (§3 Lifecycle — nothing
// here is reallocated on the audio thread afterward).
func NewOrchestrator(sampleRate float64, rng func(n int) int) *Orchestrator {
	o := &Orchestrator{
		SampleRate: sampleRate,
		Transport:  groove.NewTransport(),
		Modulation: NewModulationMatrix(),
		Effects:    NewEffectsGraph(*groove.NewEffectsGraphConfig(), sampleRate),
		scheduler:  NewScheduler(rng),
		Commands:   command.NewQueue(),
		MIDIOut:    command.NewMIDIOutQueue(),
	}
	for i := range o.Tracks {
		o.Tracks[i] = groove.NewTrack(i, o.Transport.PatternLengthSteps)
		rt := &trackRuntime{
			engine:      engines.New(groove.EngineSubtractive, sampleRate),
			follower:    *dsp.NewEnvelopeFollower(sampleRate),
			arpVelocity: 100,
		}
		o.runtimes[i] = rt
	}
	return o
}

// SetTrackEngine re-tags a track's engine kind and clears its voices.
func (o *Orchestrator) SetTrackEngine(index int, kind groove.EngineKind) {
	if index < 0 || index >= groove.NumTracks || !kind.Valid() {
		return
	}
	rt := o.runtimes[index]
	rt.engine.AllNotesOff()
	rt.engine.SetKind(kind)
}

// drainCommands applies every queued UI->audio command before this
// block's rendering begins (§4.8 step 1).
func (o *Orchestrator) drainCommands() {
	for {
		cmd, ok := o.Commands.Pop()
		if !ok {
			return
		}
		o.applyCommand(cmd)
	}
}

func (o *Orchestrator) applyCommand(cmd command.Command) {
	switch cmd.Kind {
	case command.KindTransportStart:
		o.startTransport()
		return
	case command.KindTransportStop:
		o.stopTransport()
		return
	case command.KindSetRecording:
		o.Transport.Recording = cmd.Arg1 != 0
		return
	}

	if cmd.TrackIndex < 0 || cmd.TrackIndex >= groove.NumTracks {
		return
	}
	track := o.Tracks[cmd.TrackIndex]
	rt := o.runtimes[cmd.TrackIndex]
	switch cmd.Kind {
	case command.KindNoteOn:
		pitch, velocity := int8(cmd.Arg1), int8(cmd.Arg2)
		if track.Arp.Mode != groove.ArpOff {
			rt.arpVelocity = velocity
			track.Arp.AddNote(pitch)
			rt.physicalHeldCount++
		} else {
			o.triggerNote(track, rt, pitch, velocity)
		}
		if o.Transport.Recording && o.Transport.Playing {
			o.recordNoteOn(track, rt, pitch, velocity)
		}
	case command.KindNoteOff:
		pitch := int8(cmd.Arg1)
		if track.Arp.Mode != groove.ArpOff {
			track.Arp.ReleaseNote(pitch)
			rt.physicalHeldCount--
			if rt.physicalHeldCount <= 0 {
				rt.physicalHeldCount = 0
				track.Arp.AllPhysicalReleased()
			}
		} else {
			o.releaseNote(track, rt, pitch)
		}
		if o.Transport.Recording && o.Transport.Playing {
			o.recordNoteOff(track, rt, pitch)
		}
	case command.KindParamSet:
		if int(cmd.Arg1) >= 0 && int(cmd.Arg1) < groove.NumParams {
			track.BaseParams[cmd.Arg1] = float32(cmd.Value)
		}
	case command.KindSetBPM:
		o.Transport.SetBPM(cmd.Value)
	case command.KindSetSwing:
		o.swing = cmd.Value
	case command.KindSetClockMultiplier:
		groove.SetClockMultiplier(track, cmd.Value)
	case command.KindMute:
		track.Muted = cmd.Arg1 != 0
	case command.KindSolo:
		track.Solo = cmd.Arg1 != 0
	}
}

// startTransport resets the transient per-block state that must not leak
// across a stop/start boundary (§4.8 transport start: "clear effect
// buffers and sample counts").
func (o *Orchestrator) startTransport() {
	o.Transport.Playing = true
	o.Transport.SampleCountInStep = 0
	o.Effects.Reset()
}

// stopTransport silences every voice and rewinds every sequencer and arp
// to its start position (§4.8 transport stop: "all_notes_off(), clear
// pending queues, reset step indices").
func (o *Orchestrator) stopTransport() {
	o.Transport.Playing = false
	for ti, t := range o.Tracks {
		rt := o.runtimes[ti]
		rt.engine.AllNotesOff()
		for i := range t.Voices {
			t.Voices[i].Active = false
		}
		for i := range t.Pending.Entries {
			t.Pending.Entries[i].InUse = false
		}
		t.MainSequencer.CurrentStep = 0
		t.MainSequencer.NextStep = 0
		for _, lane := range t.DrumLanes {
			lane.CurrentStep = 0
			lane.NextStep = 0
		}
		t.Arp.ResetStepIndex()

		rt.stepAccumulator = 0
		rt.arpAccumulator = 0
		rt.activeLocks = nil
		rt.arpActive = rt.arpActive[:0]
		rt.physicalHeldCount = 0
		rt.recording = nil
	}
}

func (o *Orchestrator) triggerNote(t *groove.Track, rt *trackRuntime, pitch, velocity int8) {
	voice := t.FindVoiceForPitch(pitch)
	if voice < 0 {
		voice = t.FindFreeVoice()
	}
	if voice < 0 {
		return
	}
	t.Voices[voice] = groove.ActiveNote{Pitch: pitch, Active: true, RemainingSamples: groove.HeldNoteSentinel}
	rt.engine.Trigger(pitch, float64(velocity)/127.0)
	o.MIDIOut.Push(command.MIDIEvent{TrackIndex: t.Index, NoteOn: true, Pitch: pitch, Velocity: velocity})
}

func (o *Orchestrator) releaseNote(t *groove.Track, rt *trackRuntime, pitch int8) {
	voice := t.FindVoiceForPitch(pitch)
	if voice >= 0 {
		t.Voices[voice].Active = false
	}
	rt.engine.Release(pitch)
	o.MIDIOut.Push(command.MIDIEvent{TrackIndex: t.Index, NoteOn: false, Pitch: pitch})
}

// fireArpTick is the arp clock's trigger callback (§4.4, §4.8 step 3):
// release whatever the previous tick was sounding, then trigger this
// tick's pitches at the held velocity. This keeps the arp's own voices
// from piling up polyphonically tick after tick when a mode repeats a
// pitch.
func (o *Orchestrator) fireArpTick(t *groove.Track, rt *trackRuntime, pitches []int8) {
	for _, p := range rt.arpActive {
		o.releaseNote(t, rt, p)
	}
	rt.arpActive = rt.arpActive[:0]
	for _, p := range pitches {
		o.triggerNote(t, rt, p, rt.arpVelocity)
		rt.arpActive = append(rt.arpActive, p)
	}
}

// recordNoteOn writes a live note-on into the currently playing step of
// the appropriate sequencer (a drum lane per groove.DrumLaneForPitch on
// analog-drum and FM-drum tracks, otherwise the main sequencer) while the
// transport is armed and playing (§4.9). The sub-step offset is derived
// from how far into the current step the accumulator already is.
func (o *Orchestrator) recordNoteOn(t *groove.Track, rt *trackRuntime, pitch, velocity int8) {
	seq := t.MainSequencer
	if k := rt.engine.Kind; k == groove.EngineAnalogDrum || k == groove.EngineFMDrum {
		if lane, ok := groove.DrumLaneForPitch(pitch); ok {
			seq = t.DrumLanes[lane]
		}
	}
	if seq == nil {
		return
	}

	samplesPerStep := groove.SamplesPerStep(o.Transport.BPM, o.SampleRate, t.ClockMultiplier)
	subOffset := clampFloat(1-rt.stepAccumulator/samplesPerStep, 0, 0.999)

	if rt.recording == nil {
		rt.recording = make(map[int8]openRecord)
	}
	rt.recording[pitch] = openRecord{seq: seq, stepIndex: seq.CurrentStep, subOffset: subOffset}

	step := &seq.Steps[seq.CurrentStep]
	step.Active = true
	step.Notes = append(step.Notes, groove.NoteEvent{Pitch: pitch, Velocity: velocity, SubStepOffset: subOffset})
}

// recordNoteOff closes out the matching open record (if any), computing
// the elapsed step count since the note-on and writing it as the step's
// gate length, clamped to [0.1, 16] (§4.9, §8 boundary behaviors).
func (o *Orchestrator) recordNoteOff(t *groove.Track, rt *trackRuntime, pitch int8) {
	if rt.recording == nil {
		return
	}
	rec, ok := rt.recording[pitch]
	if !ok {
		return
	}
	delete(rt.recording, pitch)

	length := rec.seq.Length()
	delta := rec.seq.CurrentStep - rec.stepIndex
	if delta < 0 {
		delta += length
	}

	samplesPerStep := groove.SamplesPerStep(o.Transport.BPM, o.SampleRate, t.ClockMultiplier)
	currentFrac := clampFloat(1-rt.stepAccumulator/samplesPerStep, 0, 0.999)

	gate := clampFloat(float64(delta)+(currentFrac-rec.subOffset), 0.1, 16)
	rec.seq.Steps[rec.stepIndex].GateLengthSteps = gate
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RenderBlock fills outL/outR (equal length, one sample per frame) with
// the next block of stereo audio. This is the audio thread's entire
// per-callback workload (§4.8/§4.9): drain commands, advance every
// track's sequencer/scheduler, run the modulation matrix, render voices,
// push them through the effects graph, and soft-limit the master sum.
func (o *Orchestrator) RenderBlock(outL, outR []float64) {
	n := len(outL)
	o.drainCommands()
	o.Modulation.AdvanceLFOs(float64(n) / o.SampleRate)

	anySolo := false
	for _, t := range o.Tracks {
		if t.Solo {
			anySolo = true
			break
		}
	}

	for i := 0; i < n; i++ {
		var masterL, masterR float64

		for ti, t := range o.Tracks {
			rt := o.runtimes[ti]
			silent := t.Muted || (anySolo && !t.Solo)

			if i == 0 {
				samplesPerStep := groove.SamplesPerStep(o.Transport.BPM, o.SampleRate, t.ClockMultiplier)
				o.scheduler.Advance(t, samplesPerStep, o.swing, n, &rt.stepAccumulator, &rt.activeLocks, func(pitch, velocity int8) {
					o.triggerNote(t, rt, pitch, velocity)
				})
				o.scheduler.AdvanceArp(t, samplesPerStep, n, &rt.arpAccumulator, func(pitches []int8) {
					o.fireArpTick(t, rt, pitches)
				})
				o.Modulation.Apply(t, rt.activeLocks, &rt.lastApplied, func(id int, value float32) {
					rt.engine.SetParameter(id, float64(value))
				})
			}

			if silent {
				continue
			}

			l, r := rt.engine.RenderStereo()
			level := rt.follower.Process(math.Max(math.Abs(l), math.Abs(r)))
			if t.SidechainSource {
				o.Modulation.SetSidechainLevel(level)
			}
			o.Modulation.SetEnvelopeFollowerLevel(level)

			vol := float32ToFloat64Vol(t)
			l *= vol
			r *= vol

			o.sendToEffects(t, l, r, &masterL, &masterR)
		}

		masterL = softClip(masterL)
		masterR = softClip(masterR)
		outL[i] = masterL
		outR[i] = masterR
	}
}

func float32ToFloat64Vol(t *groove.Track) float64 {
	return t.Volume
}

// sendToEffects routes a track's output through its configured sends
// (§4.7: each of the 15 FX slots can be fed by any track at any level).
func (o *Orchestrator) sendToEffects(t *groove.Track, l, r float64, masterL, masterR *float64) {
	any := false
	for slot, amount := range t.Sends {
		if amount <= 0 {
			continue
		}
		any = true
		o.Effects.Send(groove.EffectSlotKind(slot), l*amount, r*amount, masterL, masterR)
	}
	if !any {
		*masterL += l
		*masterR += r
	}
}

// CPULoad reports the most recent block's processing time as a fraction
// of its real-time budget, for pkg/status's atomic readout.
func (o *Orchestrator) CPULoad() float64 {
	return o.cpuLoad
}

// SetCPULoad is called by the driver after timing a block.
func (o *Orchestrator) SetCPULoad(v float64) {
	o.cpuLoad = v
}

// PublishStatus writes the orchestrator's current transport/CPU/activity
// state into fields, for the UI thread's status.Monitor to poll. Safe to
// call from the audio thread: every write is a plain atomic store.
func (o *Orchestrator) PublishStatus(fields *status.Fields) {
	fields.SetPlaying(o.Transport.Playing)
	fields.SetBPM(o.Transport.BPM)
	fields.SetGlobalStep(o.Transport.GlobalStep)
	fields.SetCPULoad(o.cpuLoad)
	for i, t := range o.Tracks {
		fields.SetTrackActive(i, o.runtimes[i].engine.IsActive() && !t.Muted)
	}
}
