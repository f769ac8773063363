// Package appstate persists the tiny amount of cross-session state the
// groovebox needs outside a project file itself: which project was last
// open, per track. It mirrors the teacher's preference for a small
// deterministic text format over a structured config library for things
// that are genuinely just "index:path" pairs (§6).
package appstate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/groove"
)

// TrackProject records which project path (if any) a track last had
// loaded, keyed by track index.
type TrackProject struct {
	TrackIndex int
	Path       string
}

// State is the decoded contents of app_state.txt.
type State struct {
	Tracks []TrackProject
}

// Load reads State from r. Lines are "index:path"; malformed or
// out-of-range lines are skipped rather than failing the whole load,
// since this file is advisory, not authoritative (§6).
func Load(r io.Reader) (*State, error) {
	s := &State{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idxStr, path, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 0 || idx >= groove.NumTracks {
			continue
		}
		s.Tracks = append(s.Tracks, TrackProject{TrackIndex: idx, Path: path})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("appstate: scan: %w", err)
	}
	return s, nil
}

// LoadFile opens path and loads State from it; a missing file is treated
// as empty state rather than an error, since there may simply be no prior
// session.
func LoadFile(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("appstate: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Save writes State to w as "index:path" lines, one per track.
func (s *State) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, t := range s.Tracks {
		if _, err := fmt.Fprintf(bw, "%d:%s\n", t.TrackIndex, t.Path); err != nil {
			return fmt.Errorf("appstate: write: %w", err)
		}
	}
	return bw.Flush()
}

// SaveFile writes State to path, truncating any existing file.
func (s *State) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("appstate: create %s: %w", path, err)
	}
	defer f.Close()
	return s.Save(f)
}

// SetTrackProject records or updates which project path a track has
// loaded.
func (s *State) SetTrackProject(index int, path string) {
	for i := range s.Tracks {
		if s.Tracks[i].TrackIndex == index {
			s.Tracks[i].Path = path
			return
		}
	}
	s.Tracks = append(s.Tracks, TrackProject{TrackIndex: index, Path: path})
}
