// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts source audio to the 44.1 kHz stream rate
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation. A Resampler keeps the last input frame so
// a stream can be fed in arbitrary chunks without gaps at the seams.
//
// Example:
//
//	r := resample.New(48000, 44100, 2)
//	out := make([]int32, r.OutputSamplesNeeded(len(in)))
//	n := r.Resample(in, out)
package resample
