// Package config loads crophound settings from the environment.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the CLI and the HTTP server. Command-line
// flags override the values loaded here.
type Config struct {
	FFmpegPath    string        `env:"CROPHOUND_FFMPEG_PATH"`
	Workers       int           `env:"CROPHOUND_WORKERS"        envDefault:"4"`
	SampleTimeout time.Duration `env:"CROPHOUND_SAMPLE_TIMEOUT" envDefault:"30s"`
	LogLevel      string        `env:"CROPHOUND_LOG_LEVEL"      envDefault:"warn"`
	ErrorLog      string        `env:"CROPHOUND_ERROR_LOG"`
	ListenAddr    string        `env:"CROPHOUND_LISTEN_ADDR"    envDefault:"127.0.0.1:8080"`
	// MediaRoot confines the files the HTTP server will analyze
	MediaRoot     string        `env:"CROPHOUND_MEDIA_ROOT"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the detector cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if c.SampleTimeout < 0 {
		return fmt.Errorf("config: sample timeout must not be negative, got %s", c.SampleTimeout)
	}
	if c.MediaRoot != "" && !filepath.IsAbs(c.MediaRoot) {
		return fmt.Errorf("config: media root must be an absolute path, got %q", c.MediaRoot)
	}
	return nil
}
