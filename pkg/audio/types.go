// ABOUTME: Audio type definitions and the fixed AirTunes stream shape
// ABOUTME: Defines formats, buffers and sample/frame conversion helpers
package audio

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// The one stream shape the ALAC adapter accepts.
const (
	SampleRate      = 44100
	BitDepth        = 16
	Channels        = 2
	FramesPerPacket = 352

	// FrameBytes is the exact size of one PCM input frame.
	FrameBytes = Channels * FramesPerPacket * BitDepth / 8
)

// Format describes audio stream format
type Format struct {
	Codec           string
	SampleRate      int
	Channels        int
	BitDepth        int
	FramesPerPacket int
	CodecHeader     []byte // ALAC magic cookie
}

// StreamFormat returns the format of the encoded AirTunes stream.
func StreamFormat() Format {
	return Format{
		Codec:           "alac",
		SampleRate:      SampleRate,
		Channels:        Channels,
		BitDepth:        BitDepth,
		FramesPerPacket: FramesPerPacket,
	}
}

// PacketDuration returns the play time of n frames at the stream rate.
func PacketDuration(frames int) time.Duration {
	return time.Duration(frames) * time.Second / SampleRate
}

// Buffer represents decoded PCM audio
type Buffer struct {
	Position time.Duration // Offset of the first sample in the stream
	Samples  []int32       // Interleaved, 24-bit range
	Format   Format
}

// Frames returns the number of sample frames in b.
func (b Buffer) Frames() int {
	if b.Format.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	// Left-shift to position 16-bit value in upper bits
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// PutFrame writes samples as signed 16-bit little-endian PCM into dst
// and returns the number of bytes written.
func PutFrame(dst []byte, samples []int32) (int, error) {
	if len(dst) < len(samples)*2 {
		return 0, fmt.Errorf("frame buffer is %d bytes, need %d", len(dst), len(samples)*2)
	}
	for i, s := range samples {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(SampleToInt16(s)))
	}
	return len(samples) * 2, nil
}

// ReadFrame decodes signed 16-bit little-endian PCM from src into dst
// and returns the number of samples decoded.
func ReadFrame(dst []int32, src []byte) int {
	n := len(src) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = SampleFromInt16(int16(binary.LittleEndian.Uint16(src[i*2:])))
	}
	return n
}
