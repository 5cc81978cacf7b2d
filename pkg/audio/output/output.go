// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends and backend lookup
package output

import "fmt"

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs audio samples (blocks until written)
	Write(samples []int32) error

	// Close releases output resources
	Close() error
}

// New returns the named playback backend: "oto" or "portaudio".
func New(backend string) (Output, error) {
	switch backend {
	case "", "oto":
		return NewOto(), nil
	case "portaudio":
		return NewPortAudio(), nil
	}
	return nil, fmt.Errorf("unknown output backend: %s", backend)
}
