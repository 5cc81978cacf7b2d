// ABOUTME: Tests for the ALAC encoder and decoder
// ABOUTME: Round-trips silence, tones, noise, mono and partial packets
package alac

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"math/rand"
	"testing"
)

const testFrames = 352

func pcmFormat(channels uint32) FormatDescription {
	return FormatDescription{
		SampleRate:       44100,
		FormatID:         FormatLinearPCM,
		FormatFlags:      FormatFlagsNativeEndian | FormatFlagIsSignedInteger,
		BytesPerPacket:   channels * 2,
		FramesPerPacket:  1,
		BytesPerFrame:    channels * 2,
		ChannelsPerFrame: channels,
		BitsPerChannel:   16,
	}
}

func alacFormat(channels uint32) FormatDescription {
	return FormatDescription{
		SampleRate:       44100,
		FormatID:         FormatAppleLossless,
		FormatFlags:      FormatFlag16BitSourceData,
		FramesPerPacket:  testFrames,
		ChannelsPerFrame: channels,
	}
}

func newTestEncoder(t *testing.T, channels uint32) *Encoder {
	t.Helper()
	enc := NewEncoder()
	enc.SetFrameSize(testFrames)
	if err := enc.InitializeEncoder(alacFormat(channels)); err != nil {
		t.Fatalf("InitializeEncoder() failed: %v", err)
	}
	return enc
}

func toBytes(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

func tone(frames, channels int, freq float64, amplitude float64) []int16 {
	samples := make([]int16, frames*channels)
	for i := 0; i < frames; i++ {
		v := math.Sin(2 * math.Pi * freq * float64(i) / 44100)
		for ch := 0; ch < channels; ch++ {
			// Offset the right channel slightly so the side channel is not zero
			samples[i*channels+ch] = int16(v*amplitude) + int16(ch*3)
		}
	}
	return samples
}

func noise(frames, channels int, seed int64) []int16 {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]int16, frames*channels)
	for i := range samples {
		samples[i] = int16(rng.Intn(65536) - 32768)
	}
	return samples
}

func encodeSamples(t *testing.T, enc *Encoder, channels uint32, samples []int16) []byte {
	t.Helper()
	input := toBytes(samples)
	output := make([]byte, len(input)+MaxEscapeHeaderBytes)
	n := len(input)
	if err := enc.Encode(pcmFormat(channels), alacFormat(channels), input, output, &n); err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if n <= 0 || n > len(output) {
		t.Fatalf("Encode() wrote %d bytes into %d byte buffer", n, len(output))
	}
	return output[:n]
}

func decodePacket(t *testing.T, cfg SpecificConfig, packet []byte) []int16 {
	t.Helper()
	dec, err := NewDecoder(cfg)
	if err != nil {
		t.Fatalf("NewDecoder() failed: %v", err)
	}
	out, err := dec.Decode(packet)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	return out
}

func assertSamplesEqual(t *testing.T, got, want []int16) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestEncoderRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		channels uint32
		samples  []int16
	}{
		{"stereo silence", 2, make([]int16, testFrames*2)},
		{"stereo tone", 2, tone(testFrames, 2, 440, 12000)},
		{"stereo loud tone", 2, tone(testFrames, 2, 1000, 32000)},
		{"stereo noise", 2, noise(testFrames, 2, 1)},
		{"mono silence", 1, make([]int16, testFrames)},
		{"mono tone", 1, tone(testFrames, 1, 220, 8000)},
		{"mono noise", 1, noise(testFrames, 1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := newTestEncoder(t, tt.channels)
			defer enc.Close()

			packet := encodeSamples(t, enc, tt.channels, tt.samples)
			got := decodePacket(t, enc.Config(), packet)
			assertSamplesEqual(t, got, tt.samples)
		})
	}
}

func TestEncoderCompressesTone(t *testing.T) {
	enc := newTestEncoder(t, 2)
	defer enc.Close()

	samples := tone(testFrames, 2, 440, 12000)
	packet := encodeSamples(t, enc, 2, samples)

	info, err := ReadPacketInfo(packet, testFrames)
	if err != nil {
		t.Fatalf("ReadPacketInfo() failed: %v", err)
	}
	if info.Escaped {
		t.Error("tone packet was escaped, expected compression")
	}
	if len(packet) >= len(samples)*2 {
		t.Errorf("tone packet is %d bytes, not smaller than %d bytes of PCM", len(packet), len(samples)*2)
	}
}

func TestEncoderEscapesNoise(t *testing.T) {
	enc := newTestEncoder(t, 2)
	defer enc.Close()

	samples := noise(testFrames, 2, 7)
	packet := encodeSamples(t, enc, 2, samples)

	info, err := ReadPacketInfo(packet, testFrames)
	if err != nil {
		t.Fatalf("ReadPacketInfo() failed: %v", err)
	}
	if !info.Escaped {
		t.Error("noise packet was not escaped")
	}
	// 23 header bits + 16 bits per sample + 3 bit END, byte aligned
	want := (23 + len(samples)*16 + 3 + 7) / 8
	if len(packet) != want {
		t.Errorf("escaped packet is %d bytes, want %d", len(packet), want)
	}
	if len(packet) > len(samples)*2+MaxEscapeHeaderBytes {
		t.Errorf("escaped packet %d bytes exceeds escape bound", len(packet))
	}
}

func TestEncoderPartialPacket(t *testing.T) {
	enc := newTestEncoder(t, 2)
	defer enc.Close()

	samples := tone(100, 2, 440, 10000)
	packet := encodeSamples(t, enc, 2, samples)

	info, err := ReadPacketInfo(packet, testFrames)
	if err != nil {
		t.Fatalf("ReadPacketInfo() failed: %v", err)
	}
	if !info.Partial || info.Frames != 100 {
		t.Errorf("info = %+v, want partial packet of 100 frames", info)
	}

	got := decodePacket(t, enc.Config(), packet)
	assertSamplesEqual(t, got, samples)
}

func TestEncoderConsecutivePackets(t *testing.T) {
	enc := newTestEncoder(t, 2)
	defer enc.Close()

	dec, err := NewDecoder(NewSpecificConfig(testFrames, 44100, 2, 16))
	if err != nil {
		t.Fatalf("NewDecoder() failed: %v", err)
	}

	full := tone(testFrames*4, 2, 523.25, 9000)
	for p := 0; p < 4; p++ {
		chunk := full[p*testFrames*2 : (p+1)*testFrames*2]
		packet := encodeSamples(t, enc, 2, chunk)
		got, err := dec.Decode(packet)
		if err != nil {
			t.Fatalf("packet %d: Decode() failed: %v", p, err)
		}
		assertSamplesEqual(t, got, chunk)
	}

	cfg := enc.Config()
	if cfg.MaxFrameBytes == 0 {
		t.Error("MaxFrameBytes not tracked")
	}
	if cfg.AvgBitRate == 0 {
		t.Error("AvgBitRate not tracked")
	}
}

func TestInitializeEncoderErrors(t *testing.T) {
	tests := []struct {
		name      string
		frameSize uint32
		format    FormatDescription
		wantErr   error
	}{
		{
			name:      "pcm output",
			frameSize: testFrames,
			format:    pcmFormat(2),
			wantErr:   ErrUnsupportedFormat,
		},
		{
			name:      "24-bit source",
			frameSize: testFrames,
			format: FormatDescription{
				FormatID: FormatAppleLossless, FormatFlags: FormatFlag24BitSourceData,
				FramesPerPacket: testFrames, ChannelsPerFrame: 2,
			},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:      "six channels",
			frameSize: testFrames,
			format: FormatDescription{
				FormatID: FormatAppleLossless, FormatFlags: FormatFlag16BitSourceData,
				FramesPerPacket: testFrames, ChannelsPerFrame: 6,
			},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:      "frame size mismatch",
			frameSize: 4096,
			format:    alacFormat(2),
			wantErr:   ErrParam,
		},
		{
			name:      "zero frame size",
			frameSize: 0,
			format:    alacFormat(2),
			wantErr:   ErrParam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewEncoder()
			enc.SetFrameSize(tt.frameSize)
			err := enc.InitializeEncoder(tt.format)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("InitializeEncoder() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	input := make([]byte, testFrames*4)

	t.Run("not initialized", func(t *testing.T) {
		enc := NewEncoder()
		n := len(input)
		err := enc.Encode(pcmFormat(2), alacFormat(2), input, make([]byte, 2000), &n)
		if !errors.Is(err, ErrParam) {
			t.Errorf("Encode() error = %v, want ErrParam", err)
		}
	})

	t.Run("closed", func(t *testing.T) {
		enc := newTestEncoder(t, 2)
		enc.Close()
		n := len(input)
		err := enc.Encode(pcmFormat(2), alacFormat(2), input, make([]byte, 2000), &n)
		if !errors.Is(err, ErrParam) {
			t.Errorf("Encode() error = %v, want ErrParam", err)
		}
	})

	t.Run("too many frames", func(t *testing.T) {
		enc := newTestEncoder(t, 2)
		big := make([]byte, (testFrames+1)*4)
		n := len(big)
		err := enc.Encode(pcmFormat(2), alacFormat(2), big, make([]byte, 2000), &n)
		if !errors.Is(err, ErrParam) {
			t.Errorf("Encode() error = %v, want ErrParam", err)
		}
	})

	t.Run("partial sample frame", func(t *testing.T) {
		enc := newTestEncoder(t, 2)
		n := len(input) - 1
		err := enc.Encode(pcmFormat(2), alacFormat(2), input, make([]byte, 2000), &n)
		if !errors.Is(err, ErrParam) {
			t.Errorf("Encode() error = %v, want ErrParam", err)
		}
	})

	t.Run("channel mismatch", func(t *testing.T) {
		enc := newTestEncoder(t, 2)
		n := len(input)
		err := enc.Encode(pcmFormat(1), alacFormat(2), input, make([]byte, 2000), &n)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Encode() error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("buffer too small", func(t *testing.T) {
		enc := newTestEncoder(t, 2)
		noisy := toBytes(noise(testFrames, 2, 3))
		n := len(noisy)
		err := enc.Encode(pcmFormat(2), alacFormat(2), noisy, make([]byte, 16), &n)
		if !errors.Is(err, ErrBufferTooSmall) {
			t.Errorf("Encode() error = %v, want ErrBufferTooSmall", err)
		}
		if n != len(noisy) {
			t.Errorf("byte count changed to %d on failure", n)
		}
	})
}

func TestDecoderRejectsCorruptPackets(t *testing.T) {
	enc := newTestEncoder(t, 2)
	defer enc.Close()
	packet := encodeSamples(t, enc, 2, tone(testFrames, 2, 440, 12000))

	dec, err := NewDecoder(enc.Config())
	if err != nil {
		t.Fatalf("NewDecoder() failed: %v", err)
	}

	tests := []struct {
		name   string
		packet []byte
	}{
		{"empty", nil},
		{"truncated", packet[:len(packet)/2]},
		{"header only", packet[:2]},
		{"end element only", []byte{0xE0}},
		{"reserved bits set", []byte{0x20, 0xFF, 0xF0, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := dec.Decode(tt.packet); !errors.Is(err, ErrCorruptPacket) {
				t.Errorf("Decode() error = %v, want ErrCorruptPacket", err)
			}
		})
	}
}

func TestDecoderChannelMismatch(t *testing.T) {
	enc := newTestEncoder(t, 2)
	defer enc.Close()
	packet := encodeSamples(t, enc, 2, make([]int16, testFrames*2))

	dec, err := NewDecoder(NewSpecificConfig(testFrames, 44100, 1, 16))
	if err != nil {
		t.Fatalf("NewDecoder() failed: %v", err)
	}
	if _, err := dec.Decode(packet); !errors.Is(err, ErrCorruptPacket) {
		t.Errorf("Decode() error = %v, want ErrCorruptPacket", err)
	}
}

// Four frames are too few for the predictor to beat a verbatim packet,
// so these always come out escaped. The expected bytes are assembled by
// hand from the bitstream layout, not produced by this package.
func TestEncodeEscapeGoldenPackets(t *testing.T) {
	samples := []int16{0x1234, -2, 0x7FFF, -32768, 1, 0xFF, -0x1235, 0x5A5A}

	tests := []struct {
		name     string
		channels uint32
		input    []int16
		frames   int
		partial  bool
		want     string
	}{
		// CPE tag, 12 zero bits, flags 0001, 8 samples, END, 2 pad bits
		{"stereo full", 2, samples, 4, false, "2000022469fffcffff0000000201ffdb96b4b5c0"},
		// flags 1001 followed by a 32 bit frame count of 3
		{"stereo partial", 2, samples[:6], 3, true, "200012000000062469fffcffff0000000201ffc0"},
		// SCE tag, 4 samples, END, 6 pad bits
		{"mono full", 1, samples[:4], 4, false, "0000022469fffcffff0001c0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := hex.DecodeString(tt.want)
			if err != nil {
				t.Fatal(err)
			}

			enc := NewEncoder()
			enc.SetFrameSize(4)
			out := alacFormat(tt.channels)
			out.FramesPerPacket = 4
			if err := enc.InitializeEncoder(out); err != nil {
				t.Fatalf("InitializeEncoder() failed: %v", err)
			}

			input := toBytes(tt.input)
			output := make([]byte, len(input)+MaxEscapeHeaderBytes)
			n := len(input)
			if err := enc.Encode(pcmFormat(tt.channels), out, input, output, &n); err != nil {
				t.Fatalf("Encode() failed: %v", err)
			}
			if got := output[:n]; !bytes.Equal(got, want) {
				t.Errorf("packet = %x, want %x", got, want)
			}

			info, err := ReadPacketInfo(want, 4)
			if err != nil {
				t.Fatalf("ReadPacketInfo() failed: %v", err)
			}
			wantInfo := PacketInfo{Channels: int(tt.channels), Frames: tt.frames, Partial: tt.partial, Escaped: true}
			if info != wantInfo {
				t.Errorf("ReadPacketInfo() = %+v, want %+v", info, wantInfo)
			}

			got := decodePacket(t, NewSpecificConfig(4, 44100, uint8(tt.channels), 16), want)
			assertSamplesEqual(t, got, tt.input)
		})
	}
}
