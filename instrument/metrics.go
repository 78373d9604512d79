// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package instrument

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/gogama/httpipe/policy"
	"github.com/gogama/httpipe/request"
)

// Metric names.
const (
	MetricAttempts        = "httpipe.attempts"
	MetricAttemptDuration = "httpipe.attempt.duration"
)

var durationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
}

// A MetricsPolicy counts and times every attempt it sees. It is safe
// for concurrent use by multiple goroutines.
type MetricsPolicy struct {
	attempts metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetricsPolicy constructs a metrics policy, creating its
// instruments on the meter provider.
func NewMetricsPolicy(o Options) (*MetricsPolicy, error) {
	meter := o.meterProvider().Meter(ScopeName)
	attempts, err := meter.Int64Counter(
		MetricAttempts,
		metric.WithDescription("Number of HTTP request attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		MetricAttemptDuration,
		metric.WithDescription("Duration of HTTP request attempts"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, err
	}
	return &MetricsPolicy{attempts: attempts, duration: duration}, nil
}

// Process implements policy.Policy.
func (p *MetricsPolicy) Process(ctx context.Context, req *request.Request, next []policy.Policy) (*request.Response, error) {
	a, _ := request.AttemptFrom(ctx)
	start := time.Now()
	resp, err := policy.Next(ctx, req, next)
	elapsed := time.Since(start)

	attrs := []attribute.KeyValue{
		attribute.String(attrHTTPRequestMethod, req.Method),
		attribute.Int(attrHTTPResponseStatus, request.StatusCodeOf(resp)),
	}
	if err != nil {
		attrs = append(attrs, attribute.String(attrErrorType, errorType(err)))
	}
	set := metric.WithAttributes(attrs...)
	p.attempts.Add(ctx, 1, set)
	p.duration.Record(ctx, elapsed.Seconds(), set)

	trace.SpanFromContext(ctx).AddEvent("attempt", trace.WithAttributes(
		attribute.Int(attrAttempt, a.Index),
		attribute.Int(attrHTTPResponseStatus, request.StatusCodeOf(resp)),
		attribute.Float64("duration_s", elapsed.Seconds()),
	))
	return resp, err
}
