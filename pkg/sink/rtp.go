// ABOUTME: RTP sink element
// ABOUTME: Packetizes ALAC packets AirTunes style with pion/rtp and stores them
package sink

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"

	"github.com/Resonate-Protocol/aerial-go/pkg/alac"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/encode"
	"github.com/pion/rtp"
	"go.uber.org/zap"
)

// DefaultPayloadType is the dynamic payload type AirTunes uses for ALAC.
const DefaultPayloadType = 96

func init() {
	mustRegister(Element{
		Name:        "rtp",
		Description: "AirTunes RTP packet capture",
		NeedsPath:   true,
		New: func(o Options) (Sink, error) {
			return NewRTP(o.Path, o.PayloadType, o.SSRC), nil
		},
	})
}

// RTPSink wraps each packet in an RTP header and writes the marshalled
// packets length-prefixed to a file.
type RTPSink struct {
	path        string
	payloadType uint8
	ssrc        uint32
	sequencer   rtp.Sequencer
	timestamp   uint32
	first       bool
	f           *os.File
	w           *bufio.Writer
}

// NewRTP returns an RTP sink. Zero payloadType selects 96 and zero ssrc
// a random one.
func NewRTP(path string, payloadType uint8, ssrc uint32) *RTPSink {
	if payloadType == 0 {
		payloadType = DefaultPayloadType
	}
	if ssrc == 0 {
		ssrc = rand.Uint32()
	}
	return &RTPSink{
		path:        path,
		payloadType: payloadType,
		ssrc:        ssrc,
		sequencer:   rtp.NewRandomSequencer(),
	}
}

// Open creates the capture file and writes the stream header.
func (s *RTPSink) Open(cfg alac.SpecificConfig) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", s.path, err)
	}
	w := bufio.NewWriter(f)
	if err := writeHeader(w, TagRTP, cfg); err != nil {
		f.Close()
		return err
	}
	s.f, s.w = f, w
	s.first = true
	s.timestamp = rand.Uint32()
	zap.L().Debug("rtp sink opened",
		zap.String("path", s.path), zap.Uint8("payload_type", s.payloadType), zap.Uint32("ssrc", s.ssrc))
	return nil
}

// WritePacket packetizes one ALAC packet. The timestamp advances by a
// full packet of frames, padded or not.
func (s *RTPSink) WritePacket(pkt encode.Packet, frames int) error {
	if s.w == nil {
		return ErrNotOpen
	}
	p := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         s.first,
			PayloadType:    s.payloadType,
			SequenceNumber: s.sequencer.NextSequenceNumber(),
			Timestamp:      s.timestamp,
			SSRC:           s.ssrc,
		},
		Payload: pkt.Data,
	}
	raw, err := p.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal rtp packet: %w", err)
	}
	if err := writeRecord(s.w, raw); err != nil {
		return fmt.Errorf("failed to write rtp packet: %w", err)
	}
	s.first = false
	s.timestamp += audio.FramesPerPacket
	return nil
}

// Close flushes and closes the capture file.
func (s *RTPSink) Close() error {
	if s.f == nil {
		return nil
	}
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	s.f, s.w = nil, nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
