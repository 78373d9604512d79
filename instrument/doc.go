// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package instrument provides OpenTelemetry pipeline policies.
//
// The tracing policy belongs among the per-call policies: it opens one
// client span per logical call and injects the trace context into the
// request headers. The metrics policy belongs among the per-retry
// policies: it counts and times every attempt, and adds an event per
// attempt to the call's span.
//
//	tp := instrument.NewTracingPolicy(instrument.Options{})
//	mp, err := instrument.NewMetricsPolicy(instrument.Options{})
//	...
//	opts.AppendPerCall(tp).AppendPerRetry(mp)
//
// Providers default to the otel global providers.
package instrument

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope of the tracer and meter.
const ScopeName = "github.com/gogama/httpipe/instrument"

// Attribute keys per OTel semantic conventions, plus the attempt index.
const (
	attrHTTPRequestMethod  = "http.request.method"
	attrHTTPResponseStatus = "http.response.status_code"
	attrServerAddress      = "server.address"
	attrURLFull            = "url.full"
	attrErrorType          = "error.type"
	attrAttempt            = "httpipe.attempt"
)

// Options selects the OpenTelemetry providers used by the policies.
// Nil fields default to the corresponding otel global.
type Options struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Propagator     propagation.TextMapPropagator
}

func (o Options) tracerProvider() trace.TracerProvider {
	if o.TracerProvider != nil {
		return o.TracerProvider
	}
	return otel.GetTracerProvider()
}

func (o Options) meterProvider() metric.MeterProvider {
	if o.MeterProvider != nil {
		return o.MeterProvider
	}
	return otel.GetMeterProvider()
}

func (o Options) propagator() propagation.TextMapPropagator {
	if o.Propagator != nil {
		return o.Propagator
	}
	return otel.GetTextMapPropagator()
}
