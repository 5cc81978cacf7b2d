// ABOUTME: ALAC audio decoder
// ABOUTME: Decodes ALAC packets to int32 samples for verification and monitoring
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/aerial-go/pkg/alac"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
)

// ALACDecoder decodes ALAC packets
type ALACDecoder struct {
	dec *alac.Decoder
}

// NewALAC creates a decoder from the magic cookie in format.CodecHeader.
// Without a cookie the fixed AirTunes stream configuration is assumed.
func NewALAC(format audio.Format) (Decoder, error) {
	if format.Codec != "alac" {
		return nil, fmt.Errorf("invalid codec for ALAC decoder: %s", format.Codec)
	}

	cfg := alac.NewSpecificConfig(uint32(format.FramesPerPacket), uint32(format.SampleRate),
		uint8(format.Channels), uint8(format.BitDepth))
	if len(format.CodecHeader) > 0 {
		if err := cfg.UnmarshalBinary(format.CodecHeader); err != nil {
			return nil, fmt.Errorf("invalid ALAC cookie: %w", err)
		}
	}

	dec, err := alac.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ALAC decoder: %w", err)
	}
	return &ALACDecoder{dec: dec}, nil
}

// Decode converts one ALAC packet to int32 samples
func (d *ALACDecoder) Decode(data []byte) ([]int32, error) {
	pcm, err := d.dec.Decode(data)
	if err != nil {
		return nil, err
	}
	samples := make([]int32, len(pcm))
	for i, s := range pcm {
		samples[i] = audio.SampleFromInt16(s)
	}
	return samples, nil
}

// Close releases resources
func (d *ALACDecoder) Close() error {
	return nil
}
