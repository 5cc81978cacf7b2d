// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for the PCM and ALAC encoders
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
)

// Encoder encodes PCM int32 samples to a wire format
type Encoder interface {
	// Encode converts PCM samples to encoded audio data
	Encode(samples []int32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}

// New returns the encoder for format.Codec.
func New(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case "alac":
		return NewALAC(format)
	case "pcm":
		return NewPCM(format)
	}
	return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
}
