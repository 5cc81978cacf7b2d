//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Blocking-write playback through the default PortAudio device
package output

import (
	"fmt"

	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

// PortAudio output implementation
type PortAudio struct {
	stream   *portaudio.Stream
	channels int
	buffer   []int16 // bound to the stream; Write fills it one packet at a time
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Output {
	return &PortAudio{}
}

// Open initializes PortAudio with a packet-sized blocking stream
func (p *PortAudio) Open(sampleRate, channels int) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	p.channels = channels
	p.buffer = make([]int16, audio.FramesPerPacket*channels)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), audio.FramesPerPacket, p.buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start stream: %w", err)
	}

	p.stream = stream
	zap.L().Info("audio output initialized",
		zap.String("backend", "portaudio"), zap.Int("sample_rate", sampleRate), zap.Int("channels", channels))
	return nil
}

// Write outputs audio samples, one stream buffer at a time
func (p *PortAudio) Write(samples []int32) error {
	if p.stream == nil {
		return fmt.Errorf("output not opened")
	}

	for len(samples) > 0 {
		n := len(p.buffer)
		if n > len(samples) {
			n = len(samples)
		}
		for i := 0; i < n; i++ {
			p.buffer[i] = audio.SampleToInt16(samples[i])
		}
		for i := n; i < len(p.buffer); i++ {
			p.buffer[i] = 0
		}
		if err := p.stream.Write(); err != nil {
			return fmt.Errorf("portaudio write: %w", err)
		}
		samples = samples[n:]
	}
	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			return err
		}
		if err := p.stream.Close(); err != nil {
			return err
		}
		p.stream = nil
	}
	return portaudio.Terminate()
}
