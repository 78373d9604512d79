// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command httpipe sends one HTTP request through an httpipe pipeline
// and writes the response body to standard output.
//
// Usage:
//
//	httpipe [options] <url>
//
// Settings are read from the defaults, then the file named by --config,
// then HTTPIPE_* environment variables, then the command line flags.
//
// Exit codes:
//
//	0: a 2XX response was received
//	1: the request failed, or a non-2XX response was received
//	2: bad arguments or configuration
//
// Examples:
//
//	httpipe https://example.com/
//	httpipe -X POST -H 'Content-Type: application/json' -d '{"a":1}' https://example.com/items
//	httpipe --retry-mode fixed --delay 1s --max-retries 5 -i https://example.com/flaky
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/gogama/httpipe"
	"github.com/gogama/httpipe/config"
	"github.com/gogama/httpipe/request"
	"github.com/gogama/httpipe/throttle"
)

// Version is set with -ldflags "-X main.Version=...".
var Version = "0.1.0-dev"

// exitError carries a non-zero exit code for a failure whose output
// has already been written.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := createApp(stdout, stderr).Run(ctx, args)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(stderr, "httpipe:", err)
	return 2
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "httpipe",
		Usage:     "send an HTTP request with retries",
		ArgsUsage: "<url>",
		Version:   Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML or JSON configuration file"},
			&cli.StringFlag{Name: "method", Aliases: []string{"X"}, Usage: "HTTP method", Value: "GET"},
			&cli.StringSliceFlag{Name: "header", Aliases: []string{"H"}, Usage: "request header as 'Name: value'"},
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "request body; @file reads it from a file"},
			&cli.StringFlag{Name: "retry-mode", Usage: "exponential, fixed or none"},
			&cli.IntFlag{Name: "max-retries", Usage: "maximum number of retries"},
			&cli.DurationFlag{Name: "delay", Usage: "base or fixed delay between attempts"},
			&cli.DurationFlag{Name: "max-delay", Usage: "maximum delay between attempts"},
			&cli.DurationFlag{Name: "timeout", Usage: "per-attempt timeout"},
			&cli.FloatFlag{Name: "rate", Usage: "maximum calls per second; zero means unlimited"},
			&cli.StringFlag{Name: "log-level", Usage: "zerolog level"},
			&cli.BoolFlag{Name: "include", Aliases: []string{"i"}, Usage: "print the status line and response headers to stderr"},
		},
		DisableSliceFlagSeparator: true,
		ExitErrHandler:            func(context.Context, *cli.Command, error) {},
		Action:                    send,
	}
}

func send(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("exactly one URL is required")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.Log.Logger(cmd.ErrWriter)
	ctx = logger.WithContext(ctx)

	opts := cfg.ClientOptions()
	if r := cmd.Float("rate"); r > 0 {
		opts.AppendPerCall(throttle.New(r, 1))
	}
	p := httpipe.New("cli", Version, opts, nil, nil)
	defer p.CloseIdleConnections()

	req, err := newRequest(cmd)
	if err != nil {
		return err
	}

	resp, err := p.Send(ctx, req)
	if err != nil {
		logger.Error().Err(err).Str("method", req.Method).Msg("request failed")
		return &exitError{code: 1}
	}

	if cmd.Bool("include") {
		writeHead(cmd.ErrWriter, resp)
	}
	if _, err = cmd.Writer.Write(resp.Body); err != nil {
		return err
	}
	if !resp.Success() {
		return &exitError{code: 1}
	}
	return nil
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	var sources []config.Source
	if path := cmd.String("config"); path != "" {
		sources = append(sources, config.File(path))
	}
	sources = append(sources, config.Env(config.EnvPrefix))
	cfg, err := config.Load(sources...)
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("retry-mode") {
		cfg.Retry.Mode = cmd.String("retry-mode")
	}
	if cmd.IsSet("max-retries") {
		cfg.Retry.MaxRetries = cmd.Int("max-retries")
	}
	if cmd.IsSet("delay") {
		cfg.Retry.Delay = cmd.Duration("delay")
	}
	if cmd.IsSet("max-delay") {
		cfg.Retry.MaxDelay = cmd.Duration("max-delay")
	}
	if cmd.IsSet("timeout") {
		cfg.Transport.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRequest(cmd *cli.Command) (*request.Request, error) {
	var body any
	if data := cmd.String("data"); strings.HasPrefix(data, "@") {
		f, err := os.Open(data[1:])
		if err != nil {
			return nil, err
		}
		body = f
	} else if data != "" {
		body = data
	}

	req, err := request.NewRequest(strings.ToUpper(cmd.String("method")), cmd.Args().First(), body)
	if err != nil {
		return nil, err
	}
	for _, h := range cmd.StringSlice("header") {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("bad header %q, want 'Name: value'", h)
		}
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return req, nil
}

func writeHead(w io.Writer, resp *request.Response) {
	fmt.Fprintln(w, resp.Status)
	for name, values := range resp.Header {
		for _, v := range values {
			fmt.Fprintf(w, "%s: %s\n", name, v)
		}
	}
	fmt.Fprintln(w)
}
