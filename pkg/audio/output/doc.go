// ABOUTME: Audio output package for local playback
// ABOUTME: Provides Output interface with oto and PortAudio backends
// Package output provides audio playback for monitoring an encode.
//
// The oto backend is always available. PortAudio needs the C library
// and the portaudio build tag.
//
// Example:
//
//	out, err := output.New("oto")
//	err = out.Open(audio.SampleRate, audio.Channels)
//	err = out.Write(samples)
package output
