// Package wavfile reads and writes the WAV files the sampler and granular
// engines load from and the render/export path writes to, including the
// groovebox's own "slce" chunk extension that records slice markers
// (§6, §8). It is grounded on the teacher's WAVWriter/AudioReader pair in
// the old pkg/audio/output.go, generalized from a hand-rolled RIFF writer
// to the go-audio ecosystem plus a hand-rolled extension chunk, since
// go-audio/wav's Decoder/Encoder offer no hook for chunks after "data".
package wavfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

// Slice is one slice-boundary marker recorded in the "slce" chunk (§6): a
// position in [0,1] relative to the sample's total length. Each marker
// starts one of the sampler engine's chop regions, which runs to the next
// marker (the last one to the end of the sample); see SlicesToBounds.
type Slice struct {
	Position float32
}

// File is a decoded WAV file's in-memory representation: the sample
// buffer plus any slice markers.
type File struct {
	Buffer *audio.FloatBuffer
	Slices []Slice
}

const sliceChunkID = "slce"

// Load reads a WAV file from r, decoding the standard fmt/data chunks
// with go-audio/wav and the slce extension (if present) by hand.
func Load(r io.ReadSeeker) (*File, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wavfile: not a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavfile: decode PCM buffer: %w", err)
	}

	floatBuf := buf.AsFloatBuffer()

	slices, err := readSliceChunk(r)
	if err != nil {
		return nil, err
	}

	return &File{Buffer: floatBuf, Slices: slices}, nil
}

// readSliceChunk walks every RIFF chunk looking for "slce", skipping
// every chunk it doesn't recognize (§6: unknown chunks must be skipped,
// not treated as a parse error). go-audio/riff's Parser already exposes
// chunk-by-chunk walking with a Duration/skip primitive.
func readSliceChunk(r io.ReadSeeker) ([]Slice, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	parser := riff.New(r)
	if err := parser.ParseHeaders(); err != nil {
		return nil, fmt.Errorf("wavfile: parse RIFF headers: %w", err)
	}

	for {
		chunk, err := parser.NextChunk()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("wavfile: walk chunks: %w", err)
		}
		if chunk.ID != [4]byte{'s', 'l', 'c', 'e'} {
			if err := chunk.Drain(); err != nil {
				return nil, err
			}
			continue
		}
		return decodeSliceChunk(chunk)
	}
	return nil, nil
}

func decodeSliceChunk(chunk *riff.Chunk) ([]Slice, error) {
	var count uint32
	if err := binary.Read(chunk, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("wavfile: read slce count: %w", err)
	}
	slices := make([]Slice, 0, count)
	for i := uint32(0); i < count; i++ {
		var bits uint32
		if err := binary.Read(chunk, binary.LittleEndian, &bits); err != nil {
			return nil, fmt.Errorf("wavfile: read slce position: %w", err)
		}
		slices = append(slices, Slice{Position: math.Float32frombits(bits)})
	}
	return slices, nil
}

// Save writes buf as a 16-bit PCM WAV file to w, followed by a "slce"
// chunk listing slices if any are given.
func Save(w io.WriteSeeker, buf *audio.FloatBuffer, sampleRate, numChannels int, slices []Slice) error {
	enc := wav.NewEncoder(w, sampleRate, 16, numChannels, 1)
	intBuf := buf.AsIntBuffer()
	intBuf.SourceBitDepth = 16
	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("wavfile: write PCM data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavfile: close encoder: %w", err)
	}

	if len(slices) == 0 {
		return nil
	}
	return appendSliceChunk(w, slices)
}

// appendSliceChunk writes the "slce" extension chunk directly after
// whatever wav.Encoder already wrote, updating the RIFF size header.
func appendSliceChunk(w io.WriteSeeker, slices []Slice) error {
	end, err := w.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	var body []byte
	body = binary.LittleEndian.AppendUint32(body, uint32(len(slices)))
	for _, s := range slices {
		body = binary.LittleEndian.AppendUint32(body, math.Float32bits(s.Position))
	}
	if len(body)%2 != 0 {
		body = append(body, 0) // RIFF chunks are word-aligned
	}

	if _, err := w.Write([]byte(sliceChunkID)); err != nil {
		return err
	}
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(body)))
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}

	return fixupRIFFSize(w, end+8+int64(len(body))-8)
}

// SlicesToBounds converts normalized slice-boundary markers into absolute
// [start, end) sample-frame ranges, one per marker, for the sampler
// engine's chop mode (§3, bridging into pkg/engines.SampleBuffer's
// sliceStarts/sliceEnds representation). The final marker's region runs
// to the end of the buffer.
func SlicesToBounds(slices []Slice, totalFrames int) (starts, ends []int) {
	if len(slices) == 0 {
		return nil, nil
	}
	starts = make([]int, len(slices))
	ends = make([]int, len(slices))
	for i, s := range slices {
		pos := float64(s.Position)
		if pos < 0 {
			pos = 0
		}
		if pos > 1 {
			pos = 1
		}
		starts[i] = int(pos * float64(totalFrames))
	}
	for i := range starts {
		if i+1 < len(starts) {
			ends[i] = starts[i+1]
		} else {
			ends[i] = totalFrames
		}
	}
	return starts, ends
}

// fixupRIFFSize rewrites the top-level RIFF chunk's size field (bytes
// 4-7) now that a chunk has been appended after the encoder closed.
func fixupRIFFSize(w io.WriteSeeker, newEndMinusEight int64) error {
	totalSize := uint32(newEndMinusEight)
	if _, err := w.Seek(4, io.SeekStart); err != nil {
		return err
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], totalSize)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := w.Seek(0, io.SeekEnd)
	return err
}
