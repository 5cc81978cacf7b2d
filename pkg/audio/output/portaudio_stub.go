//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Builds without the PortAudio C library; every call reports the missing tag
package output

import "errors"

// ErrPortAudioDisabled is returned by every PortAudio call in builds
// without the portaudio tag.
var ErrPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio output implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Output {
	return &PortAudio{}
}

// Open initializes PortAudio
func (p *PortAudio) Open(sampleRate, channels int) error {
	return ErrPortAudioDisabled
}

// Write outputs audio samples
func (p *PortAudio) Write(samples []int32) error {
	return ErrPortAudioDisabled
}

// Close releases resources
func (p *PortAudio) Close() error {
	return ErrPortAudioDisabled
}
