// ABOUTME: Resampling source wrapper
// ABOUTME: Converts any source rate to a target rate with the linear resampler
package source

import (
	"io"

	"github.com/Resonate-Protocol/aerial-go/pkg/audio/resample"
)

// ResampledSource wraps a Source and resamples to a target sample rate
type ResampledSource struct {
	source     Source
	resampler  *resample.Resampler
	targetRate int
	channels   int
	input      []int32
	output     []int32
	pending    []int32 // resampled samples not yet returned
	eof        bool
}

// NewResampled creates a resampling wrapper around a source
func NewResampled(src Source, targetRate int) *ResampledSource {
	inputRate := src.SampleRate()
	channels := src.Channels()

	// 20ms of input per underlying read
	inputSamples := inputRate * channels / 50
	r := resample.New(inputRate, targetRate, channels)

	return &ResampledSource{
		source:     src,
		resampler:  r,
		targetRate: targetRate,
		channels:   channels,
		input:      make([]int32, inputSamples),
		output:     make([]int32, r.OutputSamplesNeeded(inputSamples)),
	}
}

func (r *ResampledSource) Read(samples []int32) (int, error) {
	written := 0
	for written < len(samples) {
		if len(r.pending) == 0 {
			if r.eof {
				break
			}
			if err := r.fill(); err != nil {
				return written, err
			}
			continue
		}
		n := copy(samples[written:], r.pending)
		r.pending = r.pending[n:]
		written += n
	}

	if written == 0 && r.eof {
		return 0, io.EOF
	}
	return written, nil
}

// fill reads one chunk from the source and resamples it into pending.
func (r *ResampledSource) fill() error {
	n, err := r.source.Read(r.input)
	if err == io.EOF {
		r.eof = true
	} else if err != nil {
		return err
	}
	n -= n % r.channels
	out := r.resampler.Resample(r.input[:n], r.output)
	r.pending = r.output[:out]
	return nil
}

func (r *ResampledSource) SampleRate() int { return r.targetRate }
func (r *ResampledSource) Channels() int   { return r.channels }
func (r *ResampledSource) Metadata() (string, string, string) {
	return r.source.Metadata()
}
func (r *ResampledSource) Close() error { return r.source.Close() }
