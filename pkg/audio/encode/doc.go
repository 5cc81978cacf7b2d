// Package encode turns PCM into wire formats.
//
// EncodeFrame is the core entry point: it takes exactly one 1408-byte
// frame of 44.1 kHz 16-bit stereo PCM and returns an ALAC packet whose
// buffer the caller owns. Any other input length fails with
// ErrFrameSize before anything is allocated.
//
//	pkt, err := encode.EncodeFrame(frame)
//	if errors.Is(err, encode.ErrFrameSize) {
//	    // frame was cut wrong upstream
//	}
//
// The Encoder interface wraps the same codec for int32 sample slices
// (NewALAC) and keeps a plain 16/24-bit PCM encoder (NewPCM).
package encode
