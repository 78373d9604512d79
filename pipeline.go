// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpipe

import (
	"context"
	"errors"
	"net/http"

	"github.com/gogama/httpipe/policy"
	"github.com/gogama/httpipe/request"
)

var (
	errNilContext = errors.New("httpipe: nil context")
	errNilRequest = errors.New("httpipe: nil request")
)

// A Pipeline is an immutable, ordered chain of policies ending in a
// transport. It is safe for concurrent use by multiple goroutines, and
// should be built once and reused for the lifetime of a service client.
type Pipeline struct {
	name      string
	version   string
	policies  []policy.Policy
	transport policy.Policy
}

// New assembles a pipeline for the service client named name at the
// given version. The name and version appear in the telemetry
// User-Agent.
//
// Parameters perCall and perRetry are the service client's own
// policies. They run after the caller's per-call and per-retry
// policies from opts respectively. If opts is nil, NewClientOptions is
// used.
//
// New panics if any policy is nil, or if opts.Telemetry is invalid.
func New(name, version string, opts *ClientOptions, perCall, perRetry []policy.Policy) *Pipeline {
	if opts == nil {
		opts = NewClientOptions()
	}
	if err := opts.Telemetry.Validate(); err != nil {
		panic(err.Error())
	}

	transport := opts.Transport.Policy
	if transport == nil {
		transport = &transportPolicy{doer: opts.Transport.HTTPDoer}
	}

	n := len(opts.PerCallPolicies) + len(perCall) + len(opts.PerRetryPolicies) + len(perRetry) + 6
	ps := make([]policy.Policy, 0, n)
	ps = append(ps, opts.PerCallPolicies...)
	ps = append(ps, perCall...)
	ps = append(ps, clientRequestIDPolicy{})
	if !opts.Telemetry.Disabled {
		ps = append(ps, newTelemetryPolicy(opts.Telemetry.ApplicationID, name, version))
	}
	ps = append(ps, customHeadersPolicy{})
	ps = append(ps, opts.Retry.ToPolicy())
	ps = append(ps, opts.PerRetryPolicies...)
	ps = append(ps, perRetry...)
	ps = append(ps, newLoggingPolicy(opts.Logging))
	ps = append(ps, transport)

	for _, p := range ps {
		if p == nil {
			panic("httpipe: nil policy")
		}
	}

	return &Pipeline{
		name:      name,
		version:   version,
		policies:  ps,
		transport: transport,
	}
}

// Send sends req through the pipeline and returns the response produced
// by the transport, as shaped by the policies.
//
// A non-nil error means no acceptable response was obtained. Errors
// from the transport are *url.Error values; after exhausting its
// retries the retry policy returns the last attempt's response and
// error unchanged. Send returns the context error if ctx is cancelled
// while the retry policy is waiting.
//
// Policies may modify req in place while the call is in progress. A
// nil req.Header is replaced with an empty one.
func (p *Pipeline) Send(ctx context.Context, req *request.Request) (*request.Response, error) {
	if ctx == nil {
		return nil, errNilContext
	}
	if req == nil {
		return nil, errNilRequest
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	return policy.Next(ctx, req, p.policies)
}

// Policies returns a copy of the pipeline's policies, in execution
// order. The last element is the transport.
func (p *Pipeline) Policies() []policy.Policy {
	ps := make([]policy.Policy, len(p.policies))
	copy(ps, p.policies)
	return ps
}

// Name returns the service client name given to New.
func (p *Pipeline) Name() string {
	return p.name
}

// Version returns the service client version given to New.
func (p *Pipeline) Version() string {
	return p.version
}

// CloseIdleConnections invokes the same method on the pipeline's
// transport, or on the transport's HTTPDoer.
//
// If neither has a CloseIdleConnections method, this method does
// nothing.
func (p *Pipeline) CloseIdleConnections() {
	if ic, ok := p.transport.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
