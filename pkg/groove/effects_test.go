package groove

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEffectsGraphDefaultIsAcyclic(t *testing.T) {
	cfg := NewEffectsGraphConfig()
	require.True(t, cfg.ValidateAcyclic())
}

func TestEffectsGraphChainIsAccepted(t *testing.T) {
	cfg := NewEffectsGraphConfig()
	require.True(t, cfg.SetChainDestination(int(FxOverdrive), int(FxBitcrusher)))
	require.True(t, cfg.SetChainDestination(int(FxBitcrusher), MasterMix))
	require.Equal(t, int(FxBitcrusher), cfg.Slots[FxOverdrive].ChainDestination)
}

func TestEffectsGraphCycleIsRejectedWithoutMutation(t *testing.T) {
	cfg := NewEffectsGraphConfig()
	require.True(t, cfg.SetChainDestination(int(FxOverdrive), int(FxBitcrusher)))
	before := cfg.Slots[FxBitcrusher].ChainDestination

	ok := cfg.SetChainDestination(int(FxBitcrusher), int(FxOverdrive))
	require.False(t, ok)
	require.Equal(t, before, cfg.Slots[FxBitcrusher].ChainDestination)
}
