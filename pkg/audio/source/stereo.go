// ABOUTME: Channel layout adapter
// ABOUTME: Duplicates mono to stereo and keeps the front pair of wider layouts
package source

import "github.com/Resonate-Protocol/aerial-go/pkg/audio"

// StereoSource converts any channel count to two channels.
type StereoSource struct {
	source Source
	buf    []int32
}

// NewStereo wraps src. Mono is duplicated; extra channels are dropped.
func NewStereo(src Source) *StereoSource {
	return &StereoSource{source: src}
}

func (s *StereoSource) Read(samples []int32) (int, error) {
	in := s.source.Channels()
	frames := len(samples) / audio.Channels
	if cap(s.buf) < frames*in {
		s.buf = make([]int32, frames*in)
	}
	buf := s.buf[:frames*in]

	n, err := s.source.Read(buf)
	got := n / in
	for i := 0; i < got; i++ {
		left := buf[i*in]
		right := left
		if in > 1 {
			right = buf[i*in+1]
		}
		samples[i*2] = left
		samples[i*2+1] = right
	}
	return got * audio.Channels, err
}

func (s *StereoSource) SampleRate() int { return s.source.SampleRate() }
func (s *StereoSource) Channels() int   { return audio.Channels }
func (s *StereoSource) Metadata() (string, string, string) {
	return s.source.Metadata()
}
func (s *StereoSource) Close() error { return s.source.Close() }
