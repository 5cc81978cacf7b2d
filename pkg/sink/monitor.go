// ABOUTME: Monitor sink element
// ABOUTME: Decodes packets and plays them on a local audio output
package sink

import (
	"fmt"

	"github.com/Resonate-Protocol/aerial-go/pkg/alac"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/output"
)

func init() {
	mustRegister(Element{
		Name:        "monitor",
		Description: "Decode and play locally",
		New: func(o Options) (Sink, error) {
			out := o.Output
			if out == nil {
				var err error
				if out, err = output.New(o.Backend); err != nil {
					return nil, err
				}
			}
			return NewMonitor(out), nil
		},
	})
}

// MonitorSink plays the encoded stream back through an Output.
type MonitorSink struct {
	out     output.Output
	decoder decode.Decoder
}

// NewMonitor returns a sink playing through out.
func NewMonitor(out output.Output) *MonitorSink {
	return &MonitorSink{out: out}
}

// Open creates the decoder and opens the output device.
func (s *MonitorSink) Open(cfg alac.SpecificConfig) error {
	cookie, err := cfg.MarshalBinary()
	if err != nil {
		return err
	}
	format := audio.StreamFormat()
	format.CodecHeader = cookie
	dec, err := decode.New(format)
	if err != nil {
		return err
	}
	if err := s.out.Open(int(cfg.SampleRate), int(cfg.NumChannels)); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	s.decoder = dec
	return nil
}

// WritePacket decodes pkt and plays its valid frames.
func (s *MonitorSink) WritePacket(pkt encode.Packet, frames int) error {
	if s.decoder == nil {
		return ErrNotOpen
	}
	samples, err := s.decoder.Decode(pkt.Data)
	if err != nil {
		return fmt.Errorf("monitor decode: %w", err)
	}
	if n := frames * audio.Channels; n < len(samples) {
		samples = samples[:n]
	}
	return s.out.Write(samples)
}

// Close releases the decoder and the output.
func (s *MonitorSink) Close() error {
	if s.decoder == nil {
		return nil
	}
	s.decoder.Close()
	s.decoder = nil
	return s.out.Close()
}
