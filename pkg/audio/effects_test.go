package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

func TestEffectsGraphDefaultChainsToMaster(t *testing.T) {
	cfg := *groove.NewEffectsGraphConfig()
	g := NewEffectsGraph(cfg, 48000)

	var masterL, masterR float64
	g.Send(groove.FxOverdrive, 0.1, -0.1, &masterL, &masterR)
	require.False(t, math.IsNaN(masterL) || math.IsNaN(masterR))
}

func TestEffectsGraphChainedSlotsAccumulateIntoMaster(t *testing.T) {
	cfg := *groove.NewEffectsGraphConfig()
	cfg.SetChainDestination(int(groove.FxOverdrive), int(groove.FxBitcrusher))
	g := NewEffectsGraph(cfg, 48000)

	var masterL, masterR float64
	for i := 0; i < 10; i++ {
		g.Send(groove.FxOverdrive, 0.5, 0.5, &masterL, &masterR)
	}
	require.False(t, math.IsNaN(masterL) || math.IsInf(masterL, 0))
}

func TestAllFifteenKindsProduceFiniteOutput(t *testing.T) {
	for kind := groove.FxFlanger; kind < groove.NumEffectSlots; kind++ {
		u := newFxUnit(kind, 48000)
		var l, r float64
		for i := 0; i < 2000; i++ {
			x := math.Sin(2 * math.Pi * 220 * float64(i) / 48000)
			l, r = u.process(x, -x)
			require.False(t, math.IsNaN(l) || math.IsInf(l, 0), "kind %d produced non-finite left", kind)
			require.False(t, math.IsNaN(r) || math.IsInf(r, 0), "kind %d produced non-finite right", kind)
		}
	}
}

func TestSoftClipBounded(t *testing.T) {
	require.InDelta(t, 0.5, softClip(0.5), 1e-9)
	require.Less(t, softClip(5), 1.0000001)
	require.Greater(t, softClip(-5), -1.0000001)
}

func TestSoftClipReplacesNaNAndInfWithZero(t *testing.T) {
	require.Equal(t, 0.0, softClip(math.NaN()))
	require.Equal(t, 0.0, softClip(math.Inf(1)))
	require.Equal(t, 0.0, softClip(math.Inf(-1)))
}

func TestEffectsGraphResetClearsDelayTails(t *testing.T) {
	cfg := *groove.NewEffectsGraphConfig()
	g := NewEffectsGraph(cfg, 48000)

	var masterL, masterR float64
	for i := 0; i < 100; i++ {
		g.Send(groove.FxDelay, 1, 1, &masterL, &masterR)
	}

	g.Reset()

	masterL, masterR = 0, 0
	g.Send(groove.FxDelay, 0, 0, &masterL, &masterR)
	require.Equal(t, 0.0, masterL)
	require.Equal(t, 0.0, masterR)
}
