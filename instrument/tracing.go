// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package instrument

import (
	"context"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/gogama/httpipe/policy"
	"github.com/gogama/httpipe/request"
	"github.com/gogama/httpipe/transient"
)

// A TracingPolicy wraps each call in a client span. It is safe for
// concurrent use by multiple goroutines.
type TracingPolicy struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// NewTracingPolicy constructs a tracing policy.
func NewTracingPolicy(o Options) *TracingPolicy {
	return &TracingPolicy{
		tracer:     o.tracerProvider().Tracer(ScopeName),
		propagator: o.propagator(),
	}
}

// Process implements policy.Policy.
func (p *TracingPolicy) Process(ctx context.Context, req *request.Request, next []policy.Policy) (*request.Response, error) {
	ctx, span := p.tracer.Start(ctx, "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(requestAttributes(req)...),
	)
	defer span.End()

	if req.Header != nil {
		p.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))
	}

	resp, err := policy.Next(ctx, req, next)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(attrErrorType, errorType(err)))
		return resp, err
	}
	if resp != nil {
		span.SetAttributes(attribute.Int(attrHTTPResponseStatus, resp.StatusCode))
		if resp.StatusCode >= 400 {
			span.SetStatus(codes.Error, resp.Status)
		}
	}
	return resp, nil
}

func requestAttributes(req *request.Request) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(attrHTTPRequestMethod, req.Method)}
	if req.URL != nil {
		attrs = append(attrs,
			attribute.String(attrServerAddress, req.URL.Hostname()),
			attribute.String(attrURLFull, redactedURL(req.URL)),
		)
	}
	return attrs
}

func redactedURL(u *url.URL) string {
	u2 := *u
	u2.User = nil
	u2.RawQuery = ""
	u2.Fragment = ""
	return u2.String()
}

func errorType(err error) string {
	if c := transient.Categorize(err); c != transient.Not {
		return c.String()
	}
	return "other"
}
