// ABOUTME: Encode pipeline from a PCM source to a sink element
// ABOUTME: Frames the source, encodes frames on a worker pool and writes packets in order
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Resonate-Protocol/aerial-go/internal/metrics"
	"github.com/Resonate-Protocol/aerial-go/pkg/alac"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/source"
	"github.com/Resonate-Protocol/aerial-go/pkg/sink"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrVerify is returned when a packet does not decode to its input frame.
var ErrVerify = errors.New("round trip verification failed")

// Options tunes a run. The zero value encodes everything on one worker.
type Options struct {
	Workers   int
	Verify    bool
	MaxFrames int64 // stop after this many sample frames; 0 means no limit
	Metrics   *metrics.Metrics
	Progress  func(Stats)
}

// Stats summarizes a run.
type Stats struct {
	RunID       string
	Title       string
	Packets     int64
	Frames      int64
	InputBytes  int64
	OutputBytes int64
	Escaped     int64
	Rejected    int64
	Verified    int64
	Elapsed     time.Duration
}

// Ratio returns output bytes per input byte.
func (s Stats) Ratio() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.OutputBytes) / float64(s.InputBytes)
}

// Duration returns the play time encoded so far.
func (s Stats) Duration() time.Duration {
	return audio.PacketDuration(int(s.Frames))
}

type job struct {
	frame source.Frame
	done  chan result
}

type result struct {
	pkt      encode.Packet
	frames   int
	escaped  bool
	verified bool
	took     time.Duration
	err      error
}

// Run encodes src into snk until the source ends or ctx is cancelled.
// The sink is opened and closed by Run.
func Run(ctx context.Context, src source.Source, snk sink.Sink, opts Options) (Stats, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	stats := Stats{RunID: uuid.NewString()}
	stats.Title, _, _ = src.Metadata()
	log := zap.L().With(zap.String("run_id", stats.RunID))

	framer, err := source.NewFramer(source.Conform(src))
	if err != nil {
		return stats, err
	}
	if err := snk.Open(encode.StreamConfig()); err != nil {
		return stats, fmt.Errorf("open sink: %w", err)
	}

	log.Info("encode started",
		zap.String("title", stats.Title),
		zap.Int("workers", opts.Workers),
		zap.Bool("verify", opts.Verify))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	work := make(chan job)
	ordered := make(chan job, opts.Workers*2)

	g.Go(func() error {
		defer close(work)
		defer close(ordered)
		return readFrames(gctx, framer, opts.MaxFrames, work, ordered)
	})
	for i := 0; i < opts.Workers; i++ {
		g.Go(func() error {
			return encodeFrames(gctx, work, opts.Verify)
		})
	}
	g.Go(func() error {
		return writePackets(gctx, ordered, snk, &stats, opts)
	})

	runErr := g.Wait()
	stats.Elapsed = time.Since(start)
	if err := snk.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close sink: %w", err)
	}
	if errors.Is(runErr, context.Canceled) && ctx.Err() != nil {
		log.Info("encode cancelled", zap.Int64("packets", stats.Packets))
	} else if runErr != nil {
		log.Error("encode failed", zap.Error(runErr), zap.Int64("packets", stats.Packets))
	} else {
		log.Info("encode finished",
			zap.Int64("packets", stats.Packets),
			zap.Int64("escaped", stats.Escaped),
			zap.Float64("ratio", stats.Ratio()),
			zap.Duration("audio", stats.Duration()),
			zap.Duration("elapsed", stats.Elapsed))
	}
	return stats, runErr
}

func readFrames(ctx context.Context, framer *source.Framer, maxFrames int64, work, ordered chan<- job) error {
	var total int64
	for maxFrames == 0 || total < maxFrames {
		frame, err := framer.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}
		if maxFrames > 0 && total+int64(frame.Frames) > maxFrames {
			keep := int(maxFrames - total)
			clear(frame.Data[keep*audio.Channels*audio.BitDepth/8:])
			frame.Frames = keep
		}
		total += int64(frame.Frames)

		j := job{frame: frame, done: make(chan result, 1)}
		select {
		case work <- j:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case ordered <- j:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func encodeFrames(ctx context.Context, work <-chan job, verify bool) error {
	var dec *alac.Decoder
	if verify {
		var err error
		if dec, err = alac.NewDecoder(encode.StreamConfig()); err != nil {
			return err
		}
	}

	for {
		var j job
		var ok bool
		select {
		case j, ok = <-work:
			if !ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		start := time.Now()
		pkt, err := encode.EncodeFrame(j.frame.Data)
		r := result{pkt: pkt, frames: j.frame.Frames, took: time.Since(start), err: err}
		if err == nil {
			info, infoErr := alac.ReadPacketInfo(pkt.Data, audio.FramesPerPacket)
			r.escaped = infoErr == nil && info.Escaped
			if dec != nil {
				r.err = verifyPacket(dec, pkt, j.frame.Data)
				r.verified = r.err == nil
			}
		}
		j.done <- r
	}
}

// verifyPacket decodes pkt and compares it with the frame it came from.
func verifyPacket(dec *alac.Decoder, pkt encode.Packet, frame []byte) error {
	samples, err := dec.Decode(pkt.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerify, err)
	}
	want := make([]int32, len(frame)/2)
	audio.ReadFrame(want, frame)
	if len(samples) != len(want) {
		return fmt.Errorf("%w: decoded %d samples, want %d", ErrVerify, len(samples), len(want))
	}
	for i, s := range samples {
		if audio.SampleFromInt16(s) != want[i] {
			return fmt.Errorf("%w: sample %d differs", ErrVerify, i)
		}
	}
	return nil
}

func writePackets(ctx context.Context, ordered <-chan job, snk sink.Sink, stats *Stats, opts Options) error {
	m := opts.Metrics
	for j := range ordered {
		var r result
		select {
		case r = <-j.done:
		case <-ctx.Done():
			return ctx.Err()
		}

		if r.err != nil {
			if errors.Is(r.err, encode.ErrFrameSize) {
				stats.Rejected++
				if m != nil {
					m.RejectedTotal.WithLabelValues("frame_size").Inc()
				}
			} else if errors.Is(r.err, ErrVerify) && m != nil {
				m.VerifyErrorsTotal.Inc()
			}
			return fmt.Errorf("packet %d: %w", stats.Packets, r.err)
		}

		if err := snk.WritePacket(r.pkt, r.frames); err != nil {
			return fmt.Errorf("write packet %d: %w", stats.Packets, err)
		}

		stats.Packets++
		stats.Frames += int64(r.frames)
		stats.InputBytes += audio.FrameBytes
		stats.OutputBytes += int64(r.pkt.Len())
		if r.escaped {
			stats.Escaped++
		}
		if r.verified {
			stats.Verified++
		}
		if m != nil {
			m.PacketsTotal.Inc()
			m.InputBytesTotal.Add(audio.FrameBytes)
			m.OutputBytesTotal.Add(float64(r.pkt.Len()))
			m.PacketBytes.Observe(float64(r.pkt.Len()))
			m.EncodeSeconds.Observe(r.took.Seconds())
			if r.escaped {
				m.EscapedTotal.Inc()
			}
		}
		if opts.Progress != nil {
			opts.Progress(*stats)
		}
	}
	return nil
}
