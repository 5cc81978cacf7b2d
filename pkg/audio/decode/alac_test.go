// ABOUTME: Tests for the ALAC decoder
// ABOUTME: Round-trips frames through the encoder and checks cookie handling
package decode

import (
	"testing"

	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/encode"
)

func TestALACDecodeRoundTrip(t *testing.T) {
	samples := make([]int32, audio.FramesPerPacket*audio.Channels)
	for i := range samples {
		samples[i] = audio.SampleFromInt16(int16((i * 97) % 4000))
	}
	frame := make([]byte, audio.FrameBytes)
	if _, err := audio.PutFrame(frame, samples); err != nil {
		t.Fatalf("PutFrame() failed: %v", err)
	}
	pkt, err := encode.EncodeFrame(frame)
	if err != nil {
		t.Fatalf("EncodeFrame() failed: %v", err)
	}

	cookie, _ := encode.StreamConfig().MarshalBinary()
	format := audio.StreamFormat()
	format.CodecHeader = cookie

	decoder, err := New(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	defer decoder.Close()

	output, err := decoder.Decode(pkt.Data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(output) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(output))
	}
	for i := range samples {
		if output[i] != samples[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, samples[i], output[i])
		}
	}
}

func TestNewALAC_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format audio.Format
	}{
		{"wrong codec", audio.Format{Codec: "pcm"}},
		{"short cookie", audio.Format{Codec: "alac", CodecHeader: []byte{1, 2, 3}}},
		{"no frame length", audio.Format{Codec: "alac", SampleRate: 44100, Channels: 2, BitDepth: 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewALAC(tt.format); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestALACDecodeGarbage(t *testing.T) {
	decoder, err := NewALAC(audio.StreamFormat())
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if _, err := decoder.Decode([]byte{0xE0}); err == nil {
		t.Error("expected error decoding an END-only packet")
	}
}
