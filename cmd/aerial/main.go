// ABOUTME: Entry point for the aerial ALAC encoder
// ABOUTME: Defines the CLI commands and sets up logging
package main

import (
	"fmt"
	"os"

	"github.com/Resonate-Protocol/aerial-go/internal/version"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "aerial: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "aerial",
		Usage:   "Encode PCM audio into AirTunes ALAC packets",
		Version: version.Version,
		Commands: []*cli.Command{
			encodeCommand(),
			verifyCommand(),
			infoCommand(),
			sinksCommand(),
		},
	}
}

// newLogger builds the global logger. When the TUI owns the terminal,
// logs go to logFile instead of stderr.
func newLogger(debug bool, logFile string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if logFile != "" {
		cfg.OutputPaths = []string{logFile}
		cfg.ErrorOutputPaths = []string{logFile}
	}
	return cfg.Build()
}
