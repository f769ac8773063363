package wavfile

import (
	"io"
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/require"
)

func newMemFile() *memBuf {
	return &memBuf{}
}

// memBuf implements io.WriteSeeker and io.ReadSeeker over an in-memory
// byte slice, since tests can't touch the real filesystem for this round
// trip. Read reports io.EOF at the end of the data.
type memBuf struct {
	data []byte
	pos  int64
}

func (m *memBuf) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memBuf) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		m.pos = offset
	case 1:
		m.pos += offset
	case 2:
		m.pos = int64(len(m.data)) + offset
	}
	return m.pos, nil
}

func (m *memBuf) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func TestSaveThenLoadRoundTripsSamples(t *testing.T) {
	buf := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: 48000},
		Data:   make([]float64, 1000),
	}
	for i := range buf.Data {
		buf.Data[i] = math.Sin(2 * math.Pi * float64(i) / 100)
	}

	m := newMemFile()
	require.NoError(t, Save(m, buf, 48000, 1, nil))

	loaded, err := Load(m)
	require.NoError(t, err)
	require.Equal(t, len(buf.Data), len(loaded.Buffer.Data))
}

func TestSaveThenLoadRoundTripsSlices(t *testing.T) {
	buf := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: 48000},
		Data:   make([]float64, 500),
	}
	slices := []Slice{{Position: 0}, {Position: 0.2}, {Position: 0.6}}

	m := newMemFile()
	require.NoError(t, Save(m, buf, 48000, 1, slices))

	loaded, err := Load(m)
	require.NoError(t, err)
	require.Equal(t, slices, loaded.Slices)
}

func TestSlicesToBoundsConvertsNormalizedPositionsToFrameRanges(t *testing.T) {
	slices := []Slice{{Position: 0}, {Position: 0.25}, {Position: 0.5}}
	starts, ends := SlicesToBounds(slices, 1000)
	require.Equal(t, []int{0, 250, 500}, starts)
	require.Equal(t, []int{250, 500, 1000}, ends)
}

func TestSlicesToBoundsEmptyInputReturnsNil(t *testing.T) {
	starts, ends := SlicesToBounds(nil, 1000)
	require.Nil(t, starts)
	require.Nil(t, ends)
}
