// Package driver owns the realtime audio-output device: opening an
// oto context, feeding it a stereo int16 stream pulled from an
// Orchestrator block by block, and a Reopen method that replaces the
// device. Output does not detect a dropped device itself; Reopen runs
// only when a caller invokes it. Grounded on the teacher's
// RealtimeOutput/audioStream pair in the old pkg/audio/realtime.go,
// generalized from mono to stereo and given a reopen path the teacher's
// one-shot demo playback never needed.
package driver

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Co-oscillator/loom-groovebox-sub000/pkg/audio"
)

// BlockFrames is the number of stereo frames pulled from the
// orchestrator per Read call.
const BlockFrames = 512

// Output owns the oto context/player pair and the orchestrator feeding
// it, matching the teacher's RealtimeOutput shape.
type Output struct {
	ctx          *oto.Context
	player       *oto.Player
	orchestrator *audio.Orchestrator
	stream       *orchestratorStream
}

// Open creates an oto context at sampleRate and starts streaming from
// orch. Mirrors the teacher's RealtimeOutput constructor, extended to
// stereo 16-bit PCM.
func Open(orch *audio.Orchestrator, sampleRate int) (*Output, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("driver: create oto context: %w", err)
	}
	<-ready

	stream := &orchestratorStream{orchestrator: orch}
	player := ctx.NewPlayer(stream)
	player.Play()

	return &Output{ctx: ctx, player: player, orchestrator: orch, stream: stream}, nil
}

// Close stops playback.
func (o *Output) Close() error {
	if o.player != nil {
		return o.player.Close()
	}
	return nil
}

// Reopen closes the current device and opens a fresh one at the same
// sample rate, for recovering from a dropped audio device.
func (o *Output) Reopen(sampleRate int) error {
	_ = o.Close()
	next, err := Open(o.orchestrator, sampleRate)
	if err != nil {
		return err
	}
	*o = *next
	return nil
}

// orchestratorStream implements io.Reader over an Orchestrator, pulling
// BlockFrames stereo samples at a time and converting them to
// interleaved signed 16-bit PCM, the same flattening the teacher's
// audioStream does for its mono float64 stream.
type orchestratorStream struct {
	orchestrator *audio.Orchestrator
	left, right  [BlockFrames]float64
}

func (s *orchestratorStream) Read(p []byte) (int, error) {
	const bytesPerFrame = 4 // 2 channels * 2 bytes
	framesWanted := len(p) / bytesPerFrame
	if framesWanted == 0 {
		return 0, nil
	}
	if framesWanted > BlockFrames {
		framesWanted = BlockFrames
	}

	start := time.Now()
	s.orchestrator.RenderBlock(s.left[:framesWanted], s.right[:framesWanted])
	elapsed := time.Since(start)
	budget := time.Duration(framesWanted) * time.Second / time.Duration(s.orchestrator.SampleRate)
	if budget > 0 {
		s.orchestrator.SetCPULoad(float64(elapsed) / float64(budget))
	}

	for i := 0; i < framesWanted; i++ {
		l := floatToInt16(s.left[i])
		r := floatToInt16(s.right[i])
		o := i * bytesPerFrame
		p[o] = byte(l)
		p[o+1] = byte(l >> 8)
		p[o+2] = byte(r)
		p[o+3] = byte(r >> 8)
	}
	return framesWanted * bytesPerFrame, nil
}

func floatToInt16(v float64) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}

var _ io.Reader = (*orchestratorStream)(nil)
