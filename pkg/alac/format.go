// ABOUTME: ALAC format descriptions, constants and errors
// ABOUTME: Mirrors the audio format description fields the codec consumes
package alac

import "errors"

// Format identifiers
const (
	FormatAppleLossless uint32 = 'a'<<24 | 'l'<<16 | 'a'<<8 | 'c'
	FormatLinearPCM     uint32 = 'l'<<24 | 'p'<<16 | 'c'<<8 | 'm'
)

// Linear PCM format flags
const (
	FormatFlagIsFloat         uint32 = 1 << 0
	FormatFlagIsBigEndian     uint32 = 1 << 1
	FormatFlagIsSignedInteger uint32 = 1 << 2
	FormatFlagIsPacked        uint32 = 1 << 3
	FormatFlagIsAlignedHigh   uint32 = 1 << 4
)

// FormatFlagsNativeEndian selects little-endian samples, the native
// order of every platform this package targets.
const FormatFlagsNativeEndian uint32 = 0

// Apple Lossless source bit depth flags
const (
	FormatFlag16BitSourceData uint32 = 1
	FormatFlag20BitSourceData uint32 = 2
	FormatFlag24BitSourceData uint32 = 3
	FormatFlag32BitSourceData uint32 = 4
)

const (
	// MaxEscapeHeaderBytes bounds the per-packet overhead of an escaped
	// (verbatim) packet over the raw PCM size.
	MaxEscapeHeaderBytes = 8

	// DefaultFrameSize is the encoder frame size until SetFrameSize is called.
	DefaultFrameSize = 4096

	// MaxFrameLength bounds the frame length of a stream. Cookies read
	// from files are checked against it before buffers are sized.
	MaxFrameLength = 16384

	// MaxChannels is the largest channel count this package encodes.
	MaxChannels = 2

	// Adaptive Golomb tuning written into every magic cookie.
	DefaultPB     = 40
	DefaultMB     = 10
	DefaultKB     = 14
	DefaultMaxRun = 255
)

// Element tags
const (
	idSCE = 0
	idCPE = 1
	idEND = 7
)

var (
	// ErrParam reports an invalid argument or encoder misconfiguration.
	ErrParam = errors.New("alac: invalid parameter")
	// ErrUnsupportedFormat reports a format outside 16-bit mono/stereo PCM.
	ErrUnsupportedFormat = errors.New("alac: unsupported format")
	// ErrBufferTooSmall reports an output buffer that cannot hold the packet.
	ErrBufferTooSmall = errors.New("alac: output buffer too small")
	// ErrCorruptPacket reports a packet that does not decode.
	ErrCorruptPacket = errors.New("alac: corrupt packet")
)

// FormatDescription describes one side of an encode: linear PCM in, or
// Apple Lossless out.
type FormatDescription struct {
	SampleRate       float64
	FormatID         uint32
	FormatFlags      uint32
	BytesPerPacket   uint32
	FramesPerPacket  uint32
	BytesPerFrame    uint32
	ChannelsPerFrame uint32
	BitsPerChannel   uint32
	Reserved         uint32
}

// bitDepth returns the PCM sample width described by f.
func (f FormatDescription) bitDepth() (int, error) {
	switch f.FormatID {
	case FormatLinearPCM:
		if f.FormatFlags&FormatFlagIsFloat != 0 {
			return 0, ErrUnsupportedFormat
		}
		return int(f.BitsPerChannel), nil
	case FormatAppleLossless:
		switch f.FormatFlags {
		case FormatFlag16BitSourceData:
			return 16, nil
		case FormatFlag20BitSourceData:
			return 20, nil
		case FormatFlag24BitSourceData:
			return 24, nil
		case FormatFlag32BitSourceData:
			return 32, nil
		}
	}
	return 0, ErrUnsupportedFormat
}
