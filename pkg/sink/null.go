// ABOUTME: Null sink element
// ABOUTME: Counts packets and discards them, for benchmarks and dry runs
package sink

import (
	"sync/atomic"

	"github.com/Resonate-Protocol/aerial-go/pkg/alac"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/encode"
)

func init() {
	mustRegister(Element{
		Name:        "null",
		Description: "Discard packets",
		New: func(Options) (Sink, error) {
			return &NullSink{}, nil
		},
	})
}

// NullSink discards everything it is given.
type NullSink struct {
	packets atomic.Int64
	bytes   atomic.Int64
}

func (s *NullSink) Open(alac.SpecificConfig) error { return nil }

func (s *NullSink) WritePacket(pkt encode.Packet, frames int) error {
	s.packets.Add(1)
	s.bytes.Add(int64(pkt.Len()))
	return nil
}

func (s *NullSink) Close() error { return nil }

// Packets returns the number of packets discarded.
func (s *NullSink) Packets() int64 { return s.packets.Load() }

// Bytes returns the number of packet bytes discarded.
func (s *NullSink) Bytes() int64 { return s.bytes.Load() }
