// ABOUTME: Little-endian PCM reader shared by raw sources and tests
// ABOUTME: Unpacks 16-bit or packed 24-bit wire samples into the int32 sample range
package decode

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
)

// ErrPartialSample is returned by Decode when data ends inside a sample.
var ErrPartialSample = errors.New("pcm data ends mid-sample")

// PCMDecoder unpacks headerless little-endian PCM.
type PCMDecoder struct {
	width int // bytes per sample
}

// NewPCM returns a decoder for 16-bit or 24-bit PCM.
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}
	switch format.BitDepth {
	case 16, 24:
		return &PCMDecoder{width: format.BitDepth / 8}, nil
	}
	return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
}

// StreamPCM returns a decoder for the 16-bit wire PCM the encoder consumes.
func StreamPCM() *PCMDecoder {
	return &PCMDecoder{width: audio.BitDepth / 8}
}

// SampleBytes is the wire size of one sample.
func (d *PCMDecoder) SampleBytes() int {
	return d.width
}

// DecodeInto unpacks as many whole samples from src as fit in dst and
// returns how many it wrote. Trailing bytes short of a sample are ignored.
func (d *PCMDecoder) DecodeInto(dst []int32, src []byte) int {
	if d.width == 2 {
		return audio.ReadFrame(dst, src)
	}
	n := len(src) / 3
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = audio.SampleFrom24Bit([3]byte{src[i*3], src[i*3+1], src[i*3+2]})
	}
	return n
}

// Decode unpacks all of data, which must hold whole samples.
func (d *PCMDecoder) Decode(data []byte) ([]int32, error) {
	if rem := len(data) % d.width; rem != 0 {
		return nil, fmt.Errorf("%w: %d stray bytes", ErrPartialSample, rem)
	}
	samples := make([]int32, len(data)/d.width)
	d.DecodeInto(samples, data)
	return samples, nil
}

// Close is a no-op.
func (d *PCMDecoder) Close() error {
	return nil
}
