// ABOUTME: ALAC specific config (magic cookie)
// ABOUTME: Binary cookie encoding and the AirTunes SDP fmtp rendering
package alac

import (
	"encoding/binary"
	"fmt"
)

// SpecificConfigSize is the encoded size of a SpecificConfig.
const SpecificConfigSize = 24

// SpecificConfig is the decoder configuration carried out of band,
// in MP4 'alac' atoms, CAF 'kuki' chunks and RAOP SDP fmtp lines.
type SpecificConfig struct {
	FrameLength       uint32
	CompatibleVersion uint8
	BitDepth          uint8
	PB                uint8
	MB                uint8
	KB                uint8
	NumChannels       uint8
	MaxRun            uint16
	MaxFrameBytes     uint32
	AvgBitRate        uint32
	SampleRate        uint32
}

// NewSpecificConfig returns a cookie with the default adaptive Golomb
// tuning and unknown (zero) frame size statistics.
func NewSpecificConfig(frameLength, sampleRate uint32, channels, bitDepth uint8) SpecificConfig {
	return SpecificConfig{
		FrameLength: frameLength,
		BitDepth:    bitDepth,
		PB:          DefaultPB,
		MB:          DefaultMB,
		KB:          DefaultKB,
		NumChannels: channels,
		MaxRun:      DefaultMaxRun,
		SampleRate:  sampleRate,
	}
}

// Validate reports whether the decoder in this package can use c.
func (c SpecificConfig) Validate() error {
	if c.FrameLength == 0 || c.FrameLength > MaxFrameLength {
		return fmt.Errorf("%w: frame length %d out of range 1..%d", ErrParam, c.FrameLength, MaxFrameLength)
	}
	if c.BitDepth != 16 {
		return fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, c.BitDepth)
	}
	if c.NumChannels == 0 || c.NumChannels > MaxChannels {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, c.NumChannels)
	}
	if c.KB == 0 || c.KB > 31 {
		return fmt.Errorf("%w: kb %d", ErrParam, c.KB)
	}
	return nil
}

// MarshalBinary encodes c as the 24-byte big-endian cookie.
func (c SpecificConfig) MarshalBinary() ([]byte, error) {
	b := make([]byte, SpecificConfigSize)
	binary.BigEndian.PutUint32(b[0:], c.FrameLength)
	b[4] = c.CompatibleVersion
	b[5] = c.BitDepth
	b[6] = c.PB
	b[7] = c.MB
	b[8] = c.KB
	b[9] = c.NumChannels
	binary.BigEndian.PutUint16(b[10:], c.MaxRun)
	binary.BigEndian.PutUint32(b[12:], c.MaxFrameBytes)
	binary.BigEndian.PutUint32(b[16:], c.AvgBitRate)
	binary.BigEndian.PutUint32(b[20:], c.SampleRate)
	return b, nil
}

// UnmarshalBinary decodes a cookie produced by MarshalBinary.
func (c *SpecificConfig) UnmarshalBinary(b []byte) error {
	if len(b) < SpecificConfigSize {
		return fmt.Errorf("%w: cookie is %d bytes, want %d", ErrParam, len(b), SpecificConfigSize)
	}
	c.FrameLength = binary.BigEndian.Uint32(b[0:])
	c.CompatibleVersion = b[4]
	c.BitDepth = b[5]
	c.PB = b[6]
	c.MB = b[7]
	c.KB = b[8]
	c.NumChannels = b[9]
	c.MaxRun = binary.BigEndian.Uint16(b[10:])
	c.MaxFrameBytes = binary.BigEndian.Uint32(b[12:])
	c.AvgBitRate = binary.BigEndian.Uint32(b[16:])
	c.SampleRate = binary.BigEndian.Uint32(b[20:])
	return nil
}

// FMTP renders c as the value of an SDP a=fmtp attribute for the given
// RTP payload type, in the field order AirTunes receivers expect.
func (c SpecificConfig) FMTP(payloadType uint8) string {
	return fmt.Sprintf("%d %d %d %d %d %d %d %d %d %d %d %d",
		payloadType, c.FrameLength, c.CompatibleVersion, c.BitDepth,
		c.PB, c.MB, c.KB, c.NumChannels, c.MaxRun,
		c.MaxFrameBytes, c.AvgBitRate, c.SampleRate)
}
