// ABOUTME: Encoder run configuration
// ABOUTME: YAML file over defaults, then .env and AERIAL_* environment overrides
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvInput   = "AERIAL_INPUT"
	EnvSink    = "AERIAL_SINK"
	EnvOutput  = "AERIAL_OUTPUT"
	EnvWorkers = "AERIAL_WORKERS"
)

// Config is the full configuration of an encode run.
type Config struct {
	// Input/Output
	Input  string `yaml:"input"`
	Sink   string `yaml:"sink"`
	Output string `yaml:"output"`

	// Encoding
	Duration time.Duration `yaml:"duration"`
	Workers  int           `yaml:"workers"`
	Verify   bool          `yaml:"verify"`

	// Sinks
	RTP     RTPConfig `yaml:"rtp"`
	Backend string    `yaml:"backend"`

	// Observability
	MetricsFile string `yaml:"metrics_file"`
	Debug       bool   `yaml:"debug"`
	NoTUI       bool   `yaml:"no_tui"`
}

// RTPConfig configures the rtp sink.
type RTPConfig struct {
	PayloadType uint8  `yaml:"payload_type"`
	SSRC        uint32 `yaml:"ssrc"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Sink:    "file",
		Output:  "out.alac",
		Workers: 4,
		RTP: RTPConfig{
			PayloadType: 96,
		},
		Backend: "oto",
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are skipped; with no arguments ".env" is tried.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with any AERIAL_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvInput); ok {
		cfg.Input = v
	}
	if v, ok := os.LookupEnv(EnvSink); ok {
		cfg.Sink = v
	}
	if v, ok := os.LookupEnv(EnvOutput); ok {
		cfg.Output = v
	}
	if v, ok := os.LookupEnv(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		cfg.Workers = n
	}
	return nil
}

// Validate checks values that have no sensible fallback.
func (c Config) Validate() error {
	if c.Sink == "" {
		return errors.New("sink is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %s", c.Duration)
	}
	if c.RTP.PayloadType > 127 {
		return fmt.Errorf("rtp payload type %d out of range", c.RTP.PayloadType)
	}
	return nil
}
