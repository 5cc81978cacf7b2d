// ABOUTME: The encode command
// ABOUTME: Resolves configuration and runs the pipeline with a TUI or plain output
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/aerial-go/internal/config"
	"github.com/Resonate-Protocol/aerial-go/internal/metrics"
	"github.com/Resonate-Protocol/aerial-go/internal/pipeline"
	"github.com/Resonate-Protocol/aerial-go/internal/ui"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/source"
	"github.com/Resonate-Protocol/aerial-go/pkg/sink"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: "Encode a source into a sink element",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file with AERIAL_* variables"},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Audio file (MP3, FLAC, raw PCM) or - for stdin. Default: test tone"},
			&cli.StringFlag{Name: "sink", Aliases: []string{"s"}, Usage: "Sink element (see 'aerial sinks')"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output path for file-backed sinks"},
			&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Usage: "Stop after this much audio (0 = until the source ends)"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Parallel encode workers"},
			&cli.BoolFlag{Name: "verify", Usage: "Decode every packet and compare it with its input"},
			&cli.UintFlag{Name: "payload-type", Usage: "RTP payload type for the rtp sink"},
			&cli.Uint64Flag{Name: "ssrc", Usage: "RTP SSRC for the rtp sink (0 = random)"},
			&cli.StringFlag{Name: "backend", Usage: "Playback backend for the monitor sink (oto, portaudio)"},
			&cli.StringFlag{Name: "metrics-file", Usage: "Write Prometheus metrics to this textfile when done"},
			&cli.StringFlag{Name: "log-file", Value: "aerial.log", Usage: "Log file used while the TUI is shown"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
			&cli.BoolFlag{Name: "no-tui", Usage: "Disable the progress TUI"},
		},
		Action: runEncode,
	}
}

// resolveConfig layers defaults, the YAML file, the environment and the
// command line flags, in that order.
func resolveConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, err
		}
	}

	if err := config.LoadEnvFiles(c.String("env-file")); err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	if c.IsSet("input") {
		cfg.Input = c.String("input")
	}
	if c.IsSet("sink") {
		cfg.Sink = c.String("sink")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("duration") {
		cfg.Duration = c.Duration("duration")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("verify") {
		cfg.Verify = c.Bool("verify")
	}
	if c.IsSet("payload-type") {
		pt := c.Uint("payload-type")
		if pt > 127 {
			return cfg, fmt.Errorf("payload type %d out of range", pt)
		}
		cfg.RTP.PayloadType = uint8(pt)
	}
	if c.IsSet("ssrc") {
		ssrc := c.Uint64("ssrc")
		if ssrc > 0xffffffff {
			return cfg, fmt.Errorf("ssrc %d out of range", ssrc)
		}
		cfg.RTP.SSRC = uint32(ssrc)
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("metrics-file") {
		cfg.MetricsFile = c.String("metrics-file")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("no-tui") {
		cfg.NoTUI = c.Bool("no-tui")
	}

	return cfg, cfg.Validate()
}

func runEncode(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}

	fd := os.Stdout.Fd()
	useTUI := !cfg.NoTUI && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))

	logFile := ""
	if useTUI {
		logFile = c.String("log-file")
	}
	logger, err := newLogger(cfg.Debug, logFile)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()
	defer zap.ReplaceGlobals(logger)()

	src, err := source.Open(cfg.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	snk, err := sink.New(cfg.Sink, sink.Options{
		Path:        cfg.Output,
		PayloadType: cfg.RTP.PayloadType,
		SSRC:        cfg.RTP.SSRC,
		Backend:     cfg.Backend,
	})
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsFile != "" {
		m = metrics.New()
	}
	opts := pipeline.Options{
		Workers:   cfg.Workers,
		Verify:    cfg.Verify,
		MaxFrames: maxFrames(cfg.Duration),
		Metrics:   m,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stats pipeline.Stats
	if useTUI {
		stats, err = runWithTUI(ctx, src, snk, cfg, opts)
	} else {
		stats, err = pipeline.Run(ctx, src, snk, opts)
	}

	if m != nil {
		if werr := m.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Error("write metrics", zap.Error(werr))
		}
	}

	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return err
	}
	if !useTUI {
		printStats(c, stats, cfg)
	}
	return nil
}

func runWithTUI(ctx context.Context, src source.Source, snk sink.Sink, cfg config.Config, opts pipeline.Options) (pipeline.Stats, error) {
	title, _, _ := src.Metadata()
	tui := ui.New(title, cfg.Sink, cfg.Duration)
	opts.Progress = tui.Update

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-tui.QuitChan():
			cancel()
		case <-runCtx.Done():
		}
	}()

	var stats pipeline.Stats
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		stats, runErr = pipeline.Run(runCtx, src, snk, opts)
		tui.Finish(stats, runErr)
	}()

	if err := tui.Start(); err != nil {
		zap.L().Error("tui failed", zap.Error(err))
	}
	cancel()
	<-done
	return stats, runErr
}

// maxFrames converts a duration limit to frames at the stream rate.
// Whole seconds and the remainder are scaled apart so long limits cannot
// overflow.
func maxFrames(d time.Duration) int64 {
	whole := int64(d/time.Second) * audio.SampleRate
	return whole + int64(d%time.Second)*audio.SampleRate/int64(time.Second)
}

func printStats(c *cli.Context, stats pipeline.Stats, cfg config.Config) {
	w := c.App.Writer
	fmt.Fprintf(w, "Encoded %s of %q into %s sink\n", stats.Duration().Round(time.Millisecond), stats.Title, cfg.Sink)
	fmt.Fprintf(w, "  packets:  %d (%d escaped)\n", stats.Packets, stats.Escaped)
	fmt.Fprintf(w, "  bytes:    %d -> %d (%.1f%%)\n", stats.InputBytes, stats.OutputBytes, 100*stats.Ratio())
	if stats.Verified > 0 {
		fmt.Fprintf(w, "  verified: %d packets\n", stats.Verified)
	}
	fmt.Fprintf(w, "  elapsed:  %s\n", stats.Elapsed.Round(time.Millisecond))
}
