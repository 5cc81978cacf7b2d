// ABOUTME: Audio source abstraction for the encode pipeline
// ABOUTME: Opens files, stdin or a test tone and conforms them to the stream format
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
	"go.uber.org/zap"
)

// Source provides PCM audio samples
type Source interface {
	// Read reads interleaved samples in 24-bit range into the buffer.
	// Returns the number of samples read, and io.EOF once exhausted.
	Read(samples []int32) (int, error)
	// SampleRate returns the sample rate of the audio
	SampleRate() int
	// Channels returns the number of channels
	Channels() int
	// Metadata returns title, artist, album
	Metadata() (title, artist, album string)
	// Close closes the audio source
	Close() error
}

// Open creates a source from a path. An empty path is a test tone and
// "-" reads raw 44.1 kHz 16-bit stereo PCM from stdin.
func Open(path string) (Source, error) {
	switch path {
	case "":
		return NewTestTone(audio.SampleRate, audio.Channels), nil
	case "-":
		return NewRaw(os.Stdin, "stdin"), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return NewMP3(path)
	case ".flac":
		return NewFLAC(path)
	case ".raw", ".pcm":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open raw file: %w", err)
		}
		return NewRaw(f, titleFromPath(path)), nil
	}
	return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac, .raw, .pcm)", ext)
}

// Conform wraps src so it yields stereo samples at the stream rate.
func Conform(src Source) Source {
	if src.Channels() != audio.Channels {
		zap.L().Info("converting channel layout",
			zap.Int("from", src.Channels()), zap.Int("to", audio.Channels))
		src = NewStereo(src)
	}
	if src.SampleRate() != audio.SampleRate {
		zap.L().Info("resampling source",
			zap.Int("from", src.SampleRate()), zap.Int("to", audio.SampleRate))
		src = NewResampled(src, audio.SampleRate)
	}
	return src
}

func titleFromPath(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
