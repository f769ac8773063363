// Package audio implements the control-rate and audio-rate machinery that
// sits above pkg/groove's pure data model and pkg/engines' voice producers:
// the microtiming scheduler, the modulation matrix, the effects graph DSP,
// and the orchestrator that ties a block-render callback together.
//
// Everything in this package runs on (or is reachable from) the audio
// thread. NewOrchestrator allocates the tracks, engines and effects graph
// up front; the render path still allocates in a few places (the note
// slice each arp tick returns, notes appended to a step while recording).
package audio

import (
	"math"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

// ModulationMatrix evaluates a track's routing table each control-rate
// tick and writes the result into AppliedParams, resetting it from
// BaseParams first (§4.6, invariant 2). It is the generalization of the
// teacher's per-effect ad-hoc vibrato/slide math in
// Player.processEffect into a data-driven source/destination table.
type ModulationMatrix struct {
	lfos             [5]groove.LFO
	macros           [6]groove.Macro
	envFollowerLevel float64
	sidechainLevel   float64
}

// NewModulationMatrix returns a matrix with all five LFOs free-running.
func NewModulationMatrix() *ModulationMatrix {
	m := &ModulationMatrix{}
	for i := range m.lfos {
		m.lfos[i] = groove.LFO{Frequency: 1.0, Depth: 1.0, Shape: groove.LFOSine}
	}
	return m
}

// LFO returns the LFO at index i (0-4), for configuration.
func (m *ModulationMatrix) LFO(i int) *groove.LFO {
	if i < 0 || i >= len(m.lfos) {
		return nil
	}
	return &m.lfos[i]
}

// Macro returns the macro at index i (0-5), for configuration.
func (m *ModulationMatrix) Macro(i int) *groove.Macro {
	if i < 0 || i >= len(m.macros) {
		return nil
	}
	return &m.macros[i]
}

// SetEnvelopeFollowerLevel feeds the current envelope-follower reading
// (computed in pkg/dsp from a track's own output) into the matrix.
func (m *ModulationMatrix) SetEnvelopeFollowerLevel(v float64) {
	m.envFollowerLevel = v
}

// SetSidechainLevel feeds the designated sidechain source track's
// envelope-follower reading into the matrix.
func (m *ModulationMatrix) SetSidechainLevel(v float64) {
	m.sidechainLevel = v
}

// AdvanceLFOs steps every LFO by dt seconds. Called once per control-rate
// tick, shared across all tracks (§4.6: LFOs are global modulation
// sources, tracks only select which one to route from).
func (m *ModulationMatrix) AdvanceLFOs(dt float64) {
	for i := range m.lfos {
		m.lfos[i].Advance(dt)
	}
}

func (m *ModulationMatrix) sourceValue(src groove.SourceKind) float64 {
	switch {
	case src >= groove.SourceLFO1 && src <= groove.SourceLFO5:
		idx := int(src - groove.SourceLFO1)
		return m.lfos[idx].Last()
	case src >= groove.SourceMacro1 && src <= groove.SourceMacro6:
		idx := int(src - groove.SourceMacro1)
		return m.macros[idx].Value
	case src == groove.SourceEnvelopeFollower:
		return m.envFollowerLevel
	case src == groove.SourceSidechainFollower:
		return m.sidechainLevel
	default:
		return 0
	}
}

// Apply resets track's AppliedParams from BaseParams, applies any active
// step p-locks on top, and finally walks the track's routing table adding
// signed modulation amounts to destinations (§4.6, §4.3 step 1-2: the
// precedence order is base -> p-locks -> modulation, so modulation
// effectively overrides locks within a step).
//
// setParam is called once per destination whose applied value actually
// changed from lastApplied by more than the dead-band, so the caller's
// engine.SetParameter calls track modulation thrash rather than rewriting
// unmoved parameters every block (§4.6). lastApplied is owned by the
// caller (one array per track) and updated in place.
func (m *ModulationMatrix) Apply(t *groove.Track, locks []groove.ParamLock, lastApplied *[groove.NumParams]float32, setParam func(id int, value float32)) {
	t.ResetAppliedFromBase()
	t.ApplyLocks(locks)

	for _, entry := range t.Routing.Active() {
		if entry.DestParamID < 0 || entry.DestParamID >= groove.NumParams {
			continue
		}
		src := m.sourceValue(entry.Source)
		delta := src * entry.Amount
		if math.IsNaN(delta) || math.IsInf(delta, 0) {
			delta = 0
		}
		t.AppliedParams[entry.DestParamID] += float32(delta)
	}

	const deadband = 1e-4
	for id, v := range t.AppliedParams {
		if float32(math.Abs(float64(v-lastApplied[id]))) > deadband {
			setParam(id, v)
			lastApplied[id] = v
		}
	}
}
