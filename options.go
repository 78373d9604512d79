// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpipe

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gogama/httpipe/policy"
	"github.com/gogama/httpipe/retry"
)

// MaxApplicationIDLength is the longest application id accepted by
// TelemetryOptions.
const MaxApplicationIDLength = 24

// ClientOptions holds the caller's configuration for a Pipeline. It is
// read once, by New, and may be discarded or reused afterward.
//
// The builder methods mutate the options in place and return the same
// pointer, so calls may be chained:
//
//	opts := httpipe.NewClientOptions().
//		WithRetry(retry.Options{Mode: retry.None}).
//		AppendPerCall(authPolicy)
type ClientOptions struct {
	// PerCallPolicies run once per call, before the retry policy.
	PerCallPolicies []policy.Policy

	// PerRetryPolicies run once per attempt, after the retry policy.
	PerRetryPolicies []policy.Policy

	// Retry configures the retry policy.
	Retry retry.Options

	// Telemetry configures the User-Agent telemetry policy.
	Telemetry TelemetryOptions

	// Transport configures the terminal policy.
	Transport TransportOptions

	// Logging configures the built-in per-attempt logging policy.
	Logging LoggingOptions
}

// TelemetryOptions configures the User-Agent header set on every call.
type TelemetryOptions struct {
	// ApplicationID, if non-empty, prefixes the User-Agent value. It
	// may be at most MaxApplicationIDLength characters long and may not
	// contain spaces.
	ApplicationID string

	// Disabled turns off the telemetry policy.
	Disabled bool
}

// Validate reports whether the application id is acceptable.
func (o TelemetryOptions) Validate() error {
	if len(o.ApplicationID) > MaxApplicationIDLength {
		return fmt.Errorf("httpipe: application id %q longer than %d characters", o.ApplicationID, MaxApplicationIDLength)
	}
	if strings.ContainsAny(o.ApplicationID, " \t\r\n") {
		return fmt.Errorf("httpipe: application id %q contains whitespace", o.ApplicationID)
	}
	return nil
}

// TransportOptions selects the terminal policy of the pipeline.
type TransportOptions struct {
	// HTTPDoer sends the lower-level HTTP requests. If nil,
	// http.DefaultClient is used.
	HTTPDoer HTTPDoer

	// Policy, if non-nil, is used as the terminal policy verbatim and
	// HTTPDoer is ignored.
	Policy policy.Policy
}

// LoggingOptions configures the built-in per-attempt logging policy.
type LoggingOptions struct {
	// Logger receives the attempt log lines. If nil, the logger carried
	// by the call context (zerolog.Ctx) is used.
	Logger *zerolog.Logger

	// IncludeQuery logs request URLs with their query string intact.
	// By default query values are redacted.
	IncludeQuery bool

	// AllowedHeaders names the request headers whose values may be
	// logged. Other headers are not logged.
	AllowedHeaders []string
}

// NewClientOptions returns the default options: retry.DefaultOptions,
// telemetry enabled, http.DefaultClient as the HTTPDoer, and logging
// through the context logger.
func NewClientOptions() *ClientOptions {
	return &ClientOptions{
		Retry: retry.DefaultOptions(),
		Transport: TransportOptions{
			HTTPDoer: http.DefaultClient,
		},
	}
}

// WithRetry replaces the retry options.
func (o *ClientOptions) WithRetry(r retry.Options) *ClientOptions {
	o.Retry = r
	return o
}

// WithTelemetry replaces the telemetry options.
func (o *ClientOptions) WithTelemetry(t TelemetryOptions) *ClientOptions {
	o.Telemetry = t
	return o
}

// WithTransport replaces the transport options.
func (o *ClientOptions) WithTransport(t TransportOptions) *ClientOptions {
	o.Transport = t
	return o
}

// WithLogging replaces the logging options.
func (o *ClientOptions) WithLogging(l LoggingOptions) *ClientOptions {
	o.Logging = l
	return o
}

// AppendPerCall adds policies to the end of the caller's per-call
// policies.
func (o *ClientOptions) AppendPerCall(ps ...policy.Policy) *ClientOptions {
	o.PerCallPolicies = append(o.PerCallPolicies, ps...)
	return o
}

// AppendPerRetry adds policies to the end of the caller's per-retry
// policies.
func (o *ClientOptions) AppendPerRetry(ps ...policy.Policy) *ClientOptions {
	o.PerRetryPolicies = append(o.PerRetryPolicies, ps...)
	return o
}

// Validate checks the retry and telemetry options.
func (o *ClientOptions) Validate() error {
	if err := o.Retry.Validate(); err != nil {
		return err
	}
	return o.Telemetry.Validate()
}
