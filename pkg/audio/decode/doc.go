// ABOUTME: Audio decoder package for PCM and ALAC
// ABOUTME: Provides Decoder interface and its implementations
// Package decode provides audio decoders.
//
// Supports: PCM (16-bit and 24-bit), ALAC
//
// All decoders implement the Decoder interface and output int32 samples
// in 24-bit range. The ALAC decoder exists to check encoded packets and
// to feed the local monitor sink.
//
// Example:
//
//	decoder, err := decode.New(audio.StreamFormat())
//	samples, err := decoder.Decode(packet)
package decode
