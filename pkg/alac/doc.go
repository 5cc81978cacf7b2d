// ABOUTME: Apple Lossless (ALAC) codec package
// ABOUTME: Provides the packet encoder, decoder and magic cookie handling
// Package alac implements the Apple Lossless Audio Codec for 16-bit
// mono and stereo PCM.
//
// The encoder is configured the way Apple's reference encoder is: a
// frame size, then an output FormatDescription, then one Encode call per
// packet. Each packet is a single channel element (SCE for mono, CPE for
// stereo) followed by an END element, compressed with an adaptive
// predictor and adaptive Golomb-Rice coding, or stored verbatim (escape)
// when compression does not pay.
//
// Example:
//
//	enc := alac.NewEncoder()
//	defer enc.Close()
//	enc.SetFrameSize(352)
//	err := enc.InitializeEncoder(outputFormat)
//	n := len(pcm)
//	err = enc.Encode(inputFormat, outputFormat, pcm, out, &n)
package alac
