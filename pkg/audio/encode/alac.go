// ABOUTME: Stateless ALAC frame encoder for the fixed AirTunes stream
// ABOUTME: Validates one 1408-byte PCM frame and returns an owned ALAC packet
package encode

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/aerial-go/pkg/alac"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
)

// MaxPacketBytes is the capacity of every packet buffer EncodeFrame
// returns: one raw frame plus the worst case escape header.
const MaxPacketBytes = audio.FrameBytes + alac.MaxEscapeHeaderBytes

// ErrFrameSize is returned when the input is not exactly one frame.
var ErrFrameSize = errors.New("input is not one 352-frame 16-bit stereo frame")

// Packet is one encoded ALAC packet. The caller owns Data.
type Packet struct {
	Data []byte
}

// Len returns the encoded size in bytes.
func (p Packet) Len() int {
	return len(p.Data)
}

const bytesPerSample = audio.BitDepth / 8

func inputFormat() alac.FormatDescription {
	bytesPerFrame := uint32(audio.Channels * bytesPerSample)
	return alac.FormatDescription{
		SampleRate:       audio.SampleRate,
		FormatID:         alac.FormatLinearPCM,
		FormatFlags:      alac.FormatFlagsNativeEndian | alac.FormatFlagIsSignedInteger,
		BytesPerPacket:   bytesPerFrame,
		FramesPerPacket:  1,
		BytesPerFrame:    bytesPerFrame,
		ChannelsPerFrame: audio.Channels,
		BitsPerChannel:   audio.BitDepth,
	}
}

func outputFormat() alac.FormatDescription {
	return alac.FormatDescription{
		SampleRate:       audio.SampleRate,
		FormatID:         alac.FormatAppleLossless,
		FormatFlags:      alac.FormatFlag16BitSourceData,
		FramesPerPacket:  audio.FramesPerPacket,
		ChannelsPerFrame: audio.Channels,
	}
}

// EncodeFrame compresses exactly one frame of interleaved signed 16-bit
// little-endian stereo PCM (audio.FrameBytes bytes) into a fresh ALAC
// packet. No state is shared between calls and it is safe for
// concurrent use.
func EncodeFrame(input []byte) (Packet, error) {
	if len(input) != audio.FrameBytes {
		return Packet{}, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(input), audio.FrameBytes)
	}

	in := inputFormat()
	out := outputFormat()
	output := make([]byte, MaxPacketBytes)

	enc := alac.NewEncoder()
	defer enc.Close()
	enc.SetFrameSize(out.FramesPerPacket)
	if err := enc.InitializeEncoder(out); err != nil {
		return Packet{}, fmt.Errorf("alac init: %w", err)
	}

	numBytes := audio.FrameBytes
	if err := enc.Encode(in, out, input, output, &numBytes); err != nil {
		return Packet{}, fmt.Errorf("alac encode: %w", err)
	}
	return Packet{Data: output[:numBytes]}, nil
}

// StreamConfig returns the magic cookie a decoder needs for packets
// produced by EncodeFrame.
func StreamConfig() alac.SpecificConfig {
	return alac.NewSpecificConfig(audio.FramesPerPacket, audio.SampleRate, audio.Channels, audio.BitDepth)
}

// ALACEncoder adapts EncodeFrame to the Encoder interface. Each call
// takes exactly one packet of int32 samples.
type ALACEncoder struct {
	frame []byte
}

// NewALAC creates an encoder for the AirTunes stream format
func NewALAC(format audio.Format) (Encoder, error) {
	if format.Codec != "alac" {
		return nil, fmt.Errorf("invalid codec for ALAC encoder: %s", format.Codec)
	}
	if format.SampleRate != audio.SampleRate || format.Channels != audio.Channels || format.BitDepth != audio.BitDepth {
		return nil, fmt.Errorf("unsupported format: %d Hz %d-bit %d channels (supported: %d Hz %d-bit %d channels)",
			format.SampleRate, format.BitDepth, format.Channels, audio.SampleRate, audio.BitDepth, audio.Channels)
	}
	return &ALACEncoder{frame: make([]byte, audio.FrameBytes)}, nil
}

// Encode packs samples into a PCM frame and compresses it
func (e *ALACEncoder) Encode(samples []int32) ([]byte, error) {
	if len(samples) != audio.FramesPerPacket*audio.Channels {
		return nil, fmt.Errorf("%w: got %d samples, want %d", ErrFrameSize, len(samples), audio.FramesPerPacket*audio.Channels)
	}
	if _, err := audio.PutFrame(e.frame, samples); err != nil {
		return nil, err
	}
	pkt, err := EncodeFrame(e.frame)
	if err != nil {
		return nil, err
	}
	return pkt.Data, nil
}

// Close releases resources
func (e *ALACEncoder) Close() error {
	return nil
}
