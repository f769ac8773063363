package groove

// EffectSlotKind names the fifteen built-in FX bus slots (§3).
type EffectSlotKind int

const (
	FxFlanger EffectSlotKind = iota
	FxTapeEcho
	FxSpread
	FxOctaver
	FxOverdrive
	FxBitcrusher
	FxChorus
	FxPhaser
	FxTapeWobble
	FxDelay
	FxReverb
	FxSlicer
	FxCompressor
	FxHPLFOFilter
	FxLPLFOFilter
	NumEffectSlots = iota
)

// MasterMix is the special chain-destination meaning "sum into the
// pre-limiter master mix" rather than another slot (§3).
const MasterMix = -1

// EffectSlotConfig is one FX bus slot's user-configured routing: which slot
// (or MasterMix) receives its output (§3).
type EffectSlotConfig struct {
	Kind             EffectSlotKind
	ChainDestination int // slot index, or MasterMix
}

// EffectsGraphConfig is the full 15-slot chain configuration.
type EffectsGraphConfig struct {
	Slots [NumEffectSlots]EffectSlotConfig
}

// NewEffectsGraphConfig returns the default configuration: every slot
// chains directly to master, in kind order 0..14.
func NewEffectsGraphConfig() *EffectsGraphConfig {
	cfg := &EffectsGraphConfig{}
	for i := range cfg.Slots {
		cfg.Slots[i] = EffectSlotConfig{Kind: EffectSlotKind(i), ChainDestination: MasterMix}
	}
	return cfg
}

// ValidateAcyclic checks that every slot's chain-destination graph reaches
// master within NumEffectSlots hops, per §3 invariant 4 / §8 (cycle
// detection at configuration time; a cyclic configuration is rejected with
// no change applied). The caller is expected to validate a *candidate*
// configuration before installing it.
func (cfg *EffectsGraphConfig) ValidateAcyclic() bool {
	for start := range cfg.Slots {
		visited := make(map[int]bool, NumEffectSlots)
		cur := start
		hops := 0
		for {
			if cur == MasterMix {
				break
			}
			if visited[cur] {
				return false
			}
			visited[cur] = true
			hops++
			if hops > NumEffectSlots {
				return false
			}
			if cur < 0 || cur >= NumEffectSlots {
				return false
			}
			cur = cfg.Slots[cur].ChainDestination
		}
	}
	return true
}

// SetChainDestination attempts to set slot's chain destination to dest,
// rejecting the change (returning false, leaving cfg unmodified) if doing
// so would introduce a cycle.
func (cfg *EffectsGraphConfig) SetChainDestination(slot, dest int) bool {
	if slot < 0 || slot >= NumEffectSlots {
		return false
	}
	if dest != MasterMix && (dest < 0 || dest >= NumEffectSlots) {
		return false
	}
	prev := cfg.Slots[slot].ChainDestination
	cfg.Slots[slot].ChainDestination = dest
	if !cfg.ValidateAcyclic() {
		cfg.Slots[slot].ChainDestination = prev
		return false
	}
	return true
}
