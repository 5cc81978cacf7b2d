// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for the PCM and ALAC decoders
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
)

// Decoder decodes audio to PCM int32 samples
type Decoder interface {
	// Decode converts encoded audio data to PCM samples
	Decode(data []byte) ([]int32, error)

	// Close releases decoder resources
	Close() error
}

// New returns the decoder for format.Codec.
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case "alac":
		return NewALAC(format)
	case "pcm":
		d, err := NewPCM(format)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
}
