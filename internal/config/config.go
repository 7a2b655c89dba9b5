// Package config handles optional TOML configuration for the CLI. Flags
// always win over file values; the file exists so ffmpeg path, timeout and
// worker defaults can be pinned per machine.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// Config is the root configuration structure
type Config struct {
	FFmpeg FFmpegConfig `toml:"ffmpeg"`
	Batch  BatchConfig  `toml:"batch"`
	Log    LogConfig    `toml:"log"`
}

type FFmpegConfig struct {
	// Path to the ffmpeg binary; resolved from PATH when empty
	Path string `toml:"path"`

	// Timeout bounds each conversion; zero disables the guard
	Timeout time.Duration `toml:"timeout"`
}

type BatchConfig struct {
	// Workers bounds concurrent conversions
	Workers int `toml:"workers"`

	// SourceExtension is the input extension to discover
	SourceExtension string `toml:"source_extension"`
}

type LogConfig struct {
	// Development switches to the human-readable console encoder at debug level
	Development bool `toml:"development"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		FFmpeg: FFmpegConfig{
			Timeout: 30 * time.Minute,
		},
		Batch: BatchConfig{
			Workers:         1,
			SourceExtension: ".m4a",
		},
	}
}

// Load reads a TOML file over the defaults. An empty path returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges, reporting every violation at once
func (c *Config) Validate() error {
	var err error
	if c.Batch.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("batch.workers must be >= 1, got %d", c.Batch.Workers))
	}
	if !strings.HasPrefix(c.Batch.SourceExtension, ".") {
		err = multierr.Append(err, fmt.Errorf("batch.source_extension must start with '.', got %q", c.Batch.SourceExtension))
	}
	if c.FFmpeg.Timeout < 0 {
		err = multierr.Append(err, fmt.Errorf("ffmpeg.timeout must not be negative, got %s", c.FFmpeg.Timeout))
	}
	return err
}
