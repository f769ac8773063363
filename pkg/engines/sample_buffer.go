package engines

import (
	"sync"

	"github.com/go-audio/audio"
)

// SampleBuffer is the sampler/granular engines' shared sample resource
// (§5 Shared resources). The UI thread writes a freshly decoded buffer
// with Exchange; the audio thread reads it with TryAcquire, which never
// blocks — on contention it yields silence for that block rather than
// stalling the callback.
type SampleBuffer struct {
	mu   sync.Mutex
	buf  *audio.FloatBuffer
	name string

	sliceStarts []int
	sliceEnds   []int
}

// NewSampleBuffer returns an empty, nameless buffer.
func NewSampleBuffer() *SampleBuffer {
	return &SampleBuffer{}
}

// Exchange installs buf as the active sample, replacing whatever was
// there. Intended to be called from the UI/loader thread only.
func (s *SampleBuffer) Exchange(name string, buf *audio.FloatBuffer, sliceStarts, sliceEnds []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	s.buf = buf
	s.sliceStarts = sliceStarts
	s.sliceEnds = sliceEnds
}

// TryAcquire attempts a non-blocking read of the current buffer. ok is
// false on lock contention or when no buffer has been loaded yet; the
// caller must treat that as "render silence this block", never block.
func (s *SampleBuffer) TryAcquire() (buf *audio.FloatBuffer, ok bool) {
	if !s.mu.TryLock() {
		return nil, false
	}
	defer s.mu.Unlock()
	if s.buf == nil {
		return nil, false
	}
	return s.buf, true
}

// SliceBounds returns the [start, end) sample range for slice index i,
// or the whole buffer if no slices have been defined.
func (s *SampleBuffer) SliceBounds(i int, frames int) (start, end int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.sliceStarts) {
		return 0, frames
	}
	return s.sliceStarts[i], s.sliceEnds[i]
}

// Name reports the currently loaded sample's name, for status display.
func (s *SampleBuffer) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}
