// Package source produces PCM for the encoder.
//
// Sources yield interleaved int32 samples in 24-bit range. Open picks a
// decoder by file extension (MP3 via go-mp3, FLAC via mewkiz/flac, raw
// PCM), Conform converts channel layout and sample rate to the fixed
// stream format, and a Framer cuts the result into exact 1408-byte
// frames, zero-padding the last one.
package source
