// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads pipeline settings from defaults, YAML or JSON
// documents, and environment variables, and converts them into
// httpipe.ClientOptions.
//
// Later sources override earlier ones:
//
//	cfg, err := config.Load(config.File("httpipe.yaml"), config.Env(config.EnvPrefix))
//	...
//	p := httpipe.New("storage", "1.2.0", cfg.ClientOptions(), nil, nil)
//
// Environment variables are named after the configuration key, upper
// case, with a double underscore between levels. For example
// HTTPIPE_RETRY__MAX_RETRIES sets retry.max_retries.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/gogama/httpipe"
	"github.com/gogama/httpipe/retry"
	"github.com/gogama/httpipe/timeout"
)

// Config is the complete pipeline configuration.
type Config struct {
	Retry     RetryConfig     `koanf:"retry"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Transport TransportConfig `koanf:"transport"`
	Log       LogConfig       `koanf:"log"`
}

// RetryConfig mirrors retry.Options. Mode is one of "exponential",
// "fixed" or "none".
type RetryConfig struct {
	Mode       string        `koanf:"mode"`
	Delay      time.Duration `koanf:"delay"`
	MaxRetries int           `koanf:"max_retries"`
	MaxDelay   time.Duration `koanf:"max_delay"`
	Jitter     float64       `koanf:"jitter"`
}

// TelemetryConfig mirrors httpipe.TelemetryOptions.
type TelemetryConfig struct {
	ApplicationID string `koanf:"application_id"`
	Disabled      bool   `koanf:"disabled"`
}

// TransportConfig configures the transport. A positive Timeout bounds
// each attempt.
type TransportConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// LogConfig configures the zerolog logger built by Logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

var errNilSource = errors.New("httpipe/config: nil source")

// Load builds a Config from the defaults overlaid with each source in
// order, then validates it.
func Load(sources ...Source) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("httpipe/config: failed to load defaults: %w", err)
	}

	for _, s := range sources {
		if s == nil {
			return nil, errNilSource
		}
		if err := s(k); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("httpipe/config: failed to unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("httpipe/config: invalid configuration: %w", err)
	}

	return &cfg, nil
}

func defaults() map[string]any {
	return map[string]any{
		"retry.mode":        retry.DefaultMode.String(),
		"retry.delay":       retry.DefaultDelay.String(),
		"retry.max_retries": retry.DefaultMaxRetries,
		"retry.max_delay":   retry.DefaultMaxDelay.String(),
		"retry.jitter":      retry.DefaultJitter,

		"telemetry.application_id": "",
		"telemetry.disabled":       false,

		"transport.timeout": "0s",

		"log.level":  "info",
		"log.pretty": false,
	}
}

// Validate reports the first invalid setting in c.
func (c *Config) Validate() error {
	r, err := c.RetryOptions()
	if err != nil {
		return err
	}
	if err = r.Validate(); err != nil {
		return err
	}
	if err = c.TelemetryOptions().Validate(); err != nil {
		return err
	}
	if c.Transport.Timeout < 0 {
		return fmt.Errorf("negative transport timeout %s", c.Transport.Timeout)
	}
	if _, err = zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("bad log level: %w", err)
	}
	return nil
}

// RetryOptions converts the retry settings.
func (c *Config) RetryOptions() (retry.Options, error) {
	mode, err := retry.ParseMode(c.Retry.Mode)
	if err != nil {
		return retry.Options{}, err
	}
	return retry.Options{
		Mode:       mode,
		Delay:      c.Retry.Delay,
		MaxRetries: c.Retry.MaxRetries,
		MaxDelay:   c.Retry.MaxDelay,
		Jitter:     c.Retry.Jitter,
	}, nil
}

// TelemetryOptions converts the telemetry settings.
func (c *Config) TelemetryOptions() httpipe.TelemetryOptions {
	return httpipe.TelemetryOptions{
		ApplicationID: c.Telemetry.ApplicationID,
		Disabled:      c.Telemetry.Disabled,
	}
}

// ClientOptions converts c into pipeline options. If the transport
// timeout is positive, a per-retry timeout.Fixed policy is appended.
//
// The Config must be valid; an unknown retry mode falls back to
// exponential.
func (c *Config) ClientOptions() *httpipe.ClientOptions {
	r, _ := c.RetryOptions()
	o := httpipe.NewClientOptions().
		WithRetry(r).
		WithTelemetry(c.TelemetryOptions())
	if c.Transport.Timeout > 0 {
		o.AppendPerRetry(timeout.Fixed(c.Transport.Timeout))
	}
	return o
}

// Logger builds a zerolog logger writing to w at the configured level,
// as JSON or, if Pretty is set, in human readable console form. If w
// is nil, os.Stderr is used.
func (c LogConfig) Logger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if c.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
