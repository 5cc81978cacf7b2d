// ABOUTME: FLAC file source
// ABOUTME: Decodes FLAC with mewkiz/flac into 24-bit range samples
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
	"go.uber.org/zap"
)

// FLACSource reads from a FLAC file
type FLACSource struct {
	file       *os.File
	stream     *flac.Stream
	sampleRate int
	channels   int
	bitDepth   int
	title      string
	decoded    []int32
	pos        int // first sample of decoded not yet returned
}

// NewFLAC creates a new FLAC audio source
func NewFLAC(path string) (*FLACSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	title := titleFromPath(path)
	zap.L().Info("loaded FLAC",
		zap.String("title", title),
		zap.Uint32("sample_rate", info.SampleRate),
		zap.Uint8("channels", info.NChannels),
		zap.Uint8("bit_depth", info.BitsPerSample))

	return &FLACSource{
		file:       f,
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		title:      title,
	}, nil
}

func (s *FLACSource) Read(samples []int32) (int, error) {
	samplesRead := 0
	for samplesRead < len(samples) {
		if s.pos == len(s.decoded) {
			frame, err := s.stream.ParseNext()
			if err == io.EOF {
				if samplesRead == 0 {
					return 0, io.EOF
				}
				return samplesRead, nil
			}
			if err != nil {
				return samplesRead, fmt.Errorf("flac decode: %w", err)
			}

			s.decoded = s.decoded[:0]
			s.pos = 0
			for i := 0; i < int(frame.BlockSize); i++ {
				for ch := 0; ch < s.channels; ch++ {
					s.decoded = append(s.decoded, s.to24Bit(frame.Subframes[ch].Samples[i]))
				}
			}
		}

		n := copy(samples[samplesRead:], s.decoded[s.pos:])
		s.pos += n
		samplesRead += n
	}
	return samplesRead, nil
}

// to24Bit scales a sample of the stream's bit depth to 24-bit range.
func (s *FLACSource) to24Bit(sample int32) int32 {
	shift := s.bitDepth - 24
	if shift > 0 {
		return sample >> shift
	}
	return sample << -shift
}

func (s *FLACSource) SampleRate() int { return s.sampleRate }
func (s *FLACSource) Channels() int   { return s.channels }
func (s *FLACSource) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *FLACSource) Close() error {
	return s.file.Close()
}
