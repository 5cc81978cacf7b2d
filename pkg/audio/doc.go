// Package audio provides the shared audio types of the aerial library.
//
// The encoder only accepts one stream shape: 44.1 kHz, 16-bit signed,
// two interleaved channels, 352 frames per packet. The constants
// SampleRate, BitDepth, Channels, FramesPerPacket and FrameBytes name it.
//
// Samples move between packages as int32 values in the 24-bit range,
// converted to and from 16-bit wire PCM with PutFrame and ReadFrame:
//
//	frame := make([]byte, audio.FrameBytes)
//	if _, err := audio.PutFrame(frame, samples); err != nil {
//	    return err
//	}
package audio
