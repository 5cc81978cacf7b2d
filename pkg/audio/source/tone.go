// ABOUTME: Test tone generator
// ABOUTME: Generates a 440Hz sine wave at any rate and channel count
package source

import (
	"math"
	"sync"

	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
)

// TestToneSource generates a 440Hz test tone. It never ends.
type TestToneSource struct {
	sampleIndex uint64
	sampleMu    sync.Mutex
	frequency   float64
	sampleRate  int
	channels    int
}

// NewTestTone creates a new test tone generator
func NewTestTone(sampleRate, channels int) *TestToneSource {
	if sampleRate == 0 {
		sampleRate = audio.SampleRate
	}
	if channels == 0 {
		channels = audio.Channels
	}

	return &TestToneSource{
		frequency:  440.0, // A4 note
		sampleRate: sampleRate,
		channels:   channels,
	}
}

func (s *TestToneSource) Read(samples []int32) (int, error) {
	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()

	numFrames := len(samples) / s.channels

	for i := 0; i < numFrames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.sampleRate)
		sample := math.Sin(2 * math.Pi * s.frequency * t)

		// 50% volume
		pcmValue := int32(sample * audio.Max24Bit * 0.5)

		for ch := 0; ch < s.channels; ch++ {
			samples[i*s.channels+ch] = pcmValue
		}
	}

	s.sampleIndex += uint64(numFrames)

	return numFrames * s.channels, nil
}

func (s *TestToneSource) SampleRate() int { return s.sampleRate }
func (s *TestToneSource) Channels() int   { return s.channels }
func (s *TestToneSource) Metadata() (string, string, string) {
	return "Test Tone", "Aerial", "Reference Signal"
}
func (s *TestToneSource) Close() error { return nil }
