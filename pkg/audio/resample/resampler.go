// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Carries the last input frame and fractional position across chunks
package resample

// Resampler performs linear interpolation to convert between sample rates.
// Successive calls to Resample form one continuous stream.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64 // relative to lastFrame once primed
	lastFrame  []int32
	primed     bool
	ext        []int32
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastFrame:  make([]int32, channels),
	}
}

// Ratio returns input frames consumed per output frame.
func (r *Resampler) Ratio() float64 {
	return r.ratio
}

// Resample converts input samples to output sample rate using linear interpolation
// input: interleaved samples at inputRate
// output: interleaved samples at outputRate, sized with OutputSamplesNeeded
// Returns the number of output samples written.
func (r *Resampler) Resample(input []int32, output []int32) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}

	ext := input[:inputFrames*r.channels]
	if r.primed {
		r.ext = append(append(r.ext[:0], r.lastFrame...), ext...)
		ext = r.ext
	}
	extFrames := len(ext) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		idx := int(r.position)
		if idx >= extFrames-1 {
			break
		}
		frac := r.position - float64(idx)

		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(ext[idx*r.channels+ch])
			s2 := float64(ext[(idx+1)*r.channels+ch])
			output[outIdx*r.channels+ch] = int32(s1 + (s2-s1)*frac)
		}

		outIdx++
		r.position += r.ratio
	}

	// Rebase onto the final frame, which starts the next chunk
	r.position -= float64(extFrames - 1)
	if r.position < 0 {
		r.position = 0
	}
	copy(r.lastFrame, ext[(extFrames-1)*r.channels:])
	r.primed = true

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.primed = false
	for i := range r.lastFrame {
		r.lastFrame[i] = 0
	}
}

// OutputSamplesNeeded returns an output size that always holds the
// result of resampling inputSamples.
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples/r.channels + 1
	outputFrames := int(float64(inputFrames)/r.ratio) + 1
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames) * r.ratio)
	return inputFrames * r.channels
}
