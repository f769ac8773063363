package appstate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSkipsMalformedAndOutOfRangeLines(t *testing.T) {
	src := "0:/songs/a.gb\nnot-a-line\n99:/out/of/range.gb\n# comment\n1:/songs/b.gb\n"
	s, err := Load(bytes.NewBufferString(src))
	require.NoError(t, err)
	require.Len(t, s.Tracks, 2)
	require.Equal(t, "/songs/a.gb", s.Tracks[0].Path)
	require.Equal(t, "/songs/b.gb", s.Tracks[1].Path)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := &State{}
	s.SetTrackProject(0, "/a.gb")
	s.SetTrackProject(3, "/b.gb")

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	require.Len(t, loaded.Tracks, 2)
}

func TestSetTrackProjectUpdatesExisting(t *testing.T) {
	s := &State{}
	s.SetTrackProject(0, "/first.gb")
	s.SetTrackProject(0, "/second.gb")
	require.Len(t, s.Tracks, 1)
	require.Equal(t, "/second.gb", s.Tracks[0].Path)
}

func TestLoadFileMissingReturnsEmptyState(t *testing.T) {
	s, err := LoadFile("/nonexistent/path/app_state.txt")
	require.NoError(t, err)
	require.Empty(t, s.Tracks)
}
