package groove

// ActiveNote is the state of one polyphonic voice slot (§3).
type ActiveNote struct {
	Pitch             int8
	RemainingSamples  float64 // HeldNoteSentinel means "held indefinitely"
	Active            bool
}

// Held reports whether this voice slot is sustained indefinitely (no
// sequencer-scheduled release).
func (n *ActiveNote) Held() bool {
	return n.RemainingSamples >= HeldNoteSentinel
}

// PendingNote is a note scheduled by the microtiming scheduler but not yet
// fired (§3, §4.5).
type PendingNote struct {
	Pitch            int8
	Velocity         int8
	SamplesUntilFire float64
	GateLengthSteps  float64
	RatchetRemaining int
	Accent           bool
	InUse            bool
}

// PendingRing is a fixed-capacity ring of pending notes per track. Entries
// beyond PendingRingSize are dropped silently (§9 memory ownership).
type PendingRing struct {
	Entries [PendingRingSize]PendingNote
}

// Push inserts a pending note into the first free slot, dropping it
// silently if the ring is full.
func (r *PendingRing) Push(n PendingNote) bool {
	for i := range r.Entries {
		if !r.Entries[i].InUse {
			n.InUse = true
			r.Entries[i] = n
			return true
		}
	}
	return false
}

// Track owns everything the spec's data model assigns to a track (§3):
// volume, parameter banks, sequencers, arpeggiator, voice table, sends,
// pending-note queue, clock multiplier, and silence counter.
type Track struct {
	Index  int
	Engine EngineKind

	Volume        float64 // applied as set; nothing ramps it toward VolumeTarget
	VolumeTarget  float64

	BaseParams    [NumParams]float32
	AppliedParams [NumParams]float32

	MainSequencer *Sequencer
	DrumLanes     [NumDrumLanes]*Sequencer

	Arp *Arpeggiator

	Voices [NumVoiceSlots]ActiveNote

	Sends       [NumSendSlots]float64 // applied as set; nothing ramps them toward SendTargets
	SendTargets [NumSendSlots]float64

	Pending PendingRing

	ClockMultiplier float64

	SilentFrames int64

	Routing RoutingTable

	SidechainSource bool // this track feeds the sidechain follower (§E.4)

	Muted bool
	Solo  bool
}

// NewTrack allocates a track with sequencers, arpeggiator and sane defaults.
// Sequencers and the voice table are allocated once here and never freed
// (§3 Lifecycle).
func NewTrack(index int, patternLength int) *Track {
	t := &Track{
		Index:           index,
		Volume:          1,
		VolumeTarget:    1,
		MainSequencer:   NewSequencer(patternLength),
		Arp:             NewArpeggiator(),
		ClockMultiplier: 1,
	}
	for i := range t.DrumLanes {
		t.DrumLanes[i] = NewSequencer(patternLength)
	}
	for i := range t.Sends {
		t.Sends[i] = 0
	}
	for i := range t.Voices {
		t.Voices[i].RemainingSamples = 0
	}
	return t
}

// ResetAppliedFromBase restores AppliedParams[0:200] from BaseParams at a
// step boundary, before any lock or modulation writes (§3 invariant 2,
// §4.3 step 1).
func (t *Track) ResetAppliedFromBase() {
	copy(t.AppliedParams[ParamCommonStart:ParamEngineEnd+1], t.BaseParams[ParamCommonStart:ParamEngineEnd+1])
}

// ApplyLocks writes a step's parameter locks into AppliedParams, overriding
// whatever ResetAppliedFromBase just wrote (§4.3 step 2).
func (t *Track) ApplyLocks(locks []ParamLock) {
	for _, l := range locks {
		if l.ParamID >= 0 && l.ParamID < NumParams {
			t.AppliedParams[l.ParamID] = l.Value
		}
	}
}

// DrumLaneForPitch maps an incoming note pitch to a drum-lane index, per
// §4.3: pitches 60..75 map directly to lanes 0..15; General MIDI drum
// pitches 35..51 are remapped to a compact 0..15 range; anything else
// routes to the main sequencer (reported via ok=false).
func DrumLaneForPitch(pitch int8) (lane int, ok bool) {
	if pitch >= 60 && pitch <= 75 {
		return int(pitch - 60), true
	}
	if pitch >= 35 && pitch <= 51 {
		lane = int(pitch - 35)
		if lane >= NumDrumLanes {
			lane = NumDrumLanes - 1
		}
		return lane, true
	}
	return 0, false
}

// FindFreeVoice returns the index of an inactive voice slot, or -1 if every
// slot is occupied.
func (t *Track) FindFreeVoice() int {
	for i := range t.Voices {
		if !t.Voices[i].Active {
			return i
		}
	}
	return -1
}

// FindVoiceForPitch returns the index of the active voice slot currently
// sounding the given pitch, or -1 (§3 invariant 3: at most one voice per
// (track, pitch)).
func (t *Track) FindVoiceForPitch(pitch int8) int {
	for i := range t.Voices {
		if t.Voices[i].Active && t.Voices[i].Pitch == pitch {
			return i
		}
	}
	return -1
}

// Transport is the global playback clock shared by every track (§3).
type Transport struct {
	Playing           bool
	Recording         bool
	BPM               float64
	GlobalStep        int64
	PatternLengthSteps int
	SampleCountInStep  float64 // double precision, per §3
}

// NewTransport returns a stopped Transport at 120 BPM with a 16-step
// pattern.
func NewTransport() *Transport {
	return &Transport{
		BPM:                120,
		PatternLengthSteps: 16,
	}
}

// SetBPM clamps to >= 1 (§8).
func (tr *Transport) SetBPM(bpm float64) {
	if bpm < 1 {
		bpm = 1
	}
	tr.BPM = bpm
}

// SetPatternLength clamps to [1,128] (§8).
func (tr *Transport) SetPatternLength(steps int) {
	tr.PatternLengthSteps = clampInt(steps, 1, MaxSteps)
}

// SetClockMultiplier clamps to >= 0.01 (§8).
func SetClockMultiplier(t *Track, mult float64) {
	if mult < 0.01 {
		mult = 0.01
	}
	t.ClockMultiplier = mult
}

// SamplesPerStep returns the number of samples between step boundaries at
// the transport's current BPM, honoring the track's clock multiplier
// (§4.3). The "machine gun" guard (floor of 2400 samples) is applied by
// the scheduler, not here, since it depends on sample rate context the
// data model doesn't own.
func SamplesPerStep(bpm float64, sampleRate float64, clockMultiplier float64) float64 {
	if bpm < 1 {
		bpm = 1
	}
	if clockMultiplier < 0.01 {
		clockMultiplier = 0.01
	}
	return (60.0 * sampleRate) / (bpm * 4) / clockMultiplier
}
