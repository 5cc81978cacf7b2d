// ABOUTME: Raw PCM source
// ABOUTME: Reads 44.1 kHz 16-bit little-endian stereo from any reader such as stdin
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/decode"
)

// RawSource reads headerless PCM already in the stream format.
type RawSource struct {
	closer io.Closer
	reader *bufio.Reader
	pcm    *decode.PCMDecoder
	title  string
	buf    []byte
}

// NewRaw creates a source over r. If r is an io.Closer, Close closes it.
func NewRaw(r io.Reader, title string) *RawSource {
	s := &RawSource{
		reader: bufio.NewReaderSize(r, audio.FrameBytes*4),
		pcm:    decode.StreamPCM(),
		title:  title,
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *RawSource) Read(samples []int32) (int, error) {
	width := s.pcm.SampleBytes()
	numBytes := len(samples) * width
	if cap(s.buf) < numBytes {
		s.buf = make([]byte, numBytes)
	}
	buf := s.buf[:numBytes]

	n, err := io.ReadFull(s.reader, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		// A dangling partial sample is dropped
		err = io.EOF
	}
	numSamples := s.pcm.DecodeInto(samples, buf[:n-n%width])
	if err != nil && err != io.EOF {
		return numSamples, fmt.Errorf("raw read: %w", err)
	}
	if err == io.EOF && numSamples > 0 {
		return numSamples, nil
	}
	return numSamples, err
}

func (s *RawSource) SampleRate() int { return audio.SampleRate }
func (s *RawSource) Channels() int   { return audio.Channels }
func (s *RawSource) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *RawSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
