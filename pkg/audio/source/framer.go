// ABOUTME: Cuts a source into exact encoder input frames
// ABOUTME: Zero-pads the final short frame and reports its valid length
package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
)

// maxEmptyReads bounds consecutive reads that return no samples.
const maxEmptyReads = 100

// Frame is one 1408-byte PCM frame ready for encode.EncodeFrame.
type Frame struct {
	Data   []byte // always audio.FrameBytes long
	Frames int    // sample frames carrying audio; the rest is padding
}

// Padded reports whether the frame was filled out with silence.
func (f Frame) Padded() bool {
	return f.Frames < audio.FramesPerPacket
}

// Framer reads a stream-format source one frame at a time.
type Framer struct {
	source  Source
	samples []int32
	done    bool
}

// NewFramer returns a framer over src, which must already produce
// stereo samples at the stream rate (see Conform).
func NewFramer(src Source) (*Framer, error) {
	if src.SampleRate() != audio.SampleRate || src.Channels() != audio.Channels {
		return nil, fmt.Errorf("source is %d Hz %d channels, want %d Hz %d channels",
			src.SampleRate(), src.Channels(), audio.SampleRate, audio.Channels)
	}
	return &Framer{
		source:  src,
		samples: make([]int32, audio.FramesPerPacket*audio.Channels),
	}, nil
}

// Next returns the next frame in a fresh buffer, or io.EOF after the
// last one.
func (f *Framer) Next() (Frame, error) {
	if f.done {
		return Frame{}, io.EOF
	}

	filled := 0
	empty := 0
	for filled < len(f.samples) {
		n, err := f.source.Read(f.samples[filled:])
		filled += n
		if errors.Is(err, io.EOF) {
			f.done = true
			break
		}
		if err != nil {
			return Frame{}, err
		}
		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return Frame{}, io.ErrNoProgress
			}
			continue
		}
		empty = 0
	}

	filled -= filled % audio.Channels
	if filled == 0 {
		return Frame{}, io.EOF
	}
	for i := filled; i < len(f.samples); i++ {
		f.samples[i] = 0
	}

	data := make([]byte, audio.FrameBytes)
	if _, err := audio.PutFrame(data, f.samples); err != nil {
		return Frame{}, err
	}
	return Frame{Data: data, Frames: filled / audio.Channels}, nil
}
