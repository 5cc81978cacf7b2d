// ABOUTME: MP3 file source
// ABOUTME: Decodes MP3 with go-mp3 into 24-bit range stereo samples
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
	"go.uber.org/zap"
)

// MP3Source reads from an MP3 file
type MP3Source struct {
	file       *os.File
	decoder    *mp3.Decoder
	sampleRate int
	title      string
	buf        []byte
}

// NewMP3 creates a new MP3 audio source
func NewMP3(path string) (*MP3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	title := titleFromPath(path)
	zap.L().Info("loaded MP3",
		zap.String("title", title),
		zap.Int("sample_rate", decoder.SampleRate()),
		zap.Int64("pcm_bytes", decoder.Length()))

	return &MP3Source{
		file:       f,
		decoder:    decoder,
		sampleRate: decoder.SampleRate(),
		title:      title,
	}, nil
}

func (s *MP3Source) Read(samples []int32) (int, error) {
	// go-mp3 always yields 16-bit little-endian stereo
	numBytes := len(samples) * 2
	if cap(s.buf) < numBytes {
		s.buf = make([]byte, numBytes)
	}
	buf := s.buf[:numBytes]

	n, err := io.ReadFull(s.decoder, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	numSamples := audio.ReadFrame(samples, buf[:n-n%2])
	if err != nil && err != io.EOF {
		return numSamples, fmt.Errorf("mp3 decode: %w", err)
	}
	return numSamples, err
}

func (s *MP3Source) SampleRate() int { return s.sampleRate }
func (s *MP3Source) Channels() int   { return 2 }
func (s *MP3Source) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *MP3Source) Close() error {
	return s.file.Close()
}
