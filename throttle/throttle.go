// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package throttle provides a client-side rate limiting pipeline
// policy backed by a token bucket.
//
// As a per-call policy it limits logical calls; as a per-retry policy
// it limits every attempt, retries included.
package throttle

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/gogama/httpipe/policy"
	"github.com/gogama/httpipe/request"
	"github.com/gogama/httpipe/transient"
)

// A Policy delays each request until the token bucket permits it. It
// is safe for concurrent use by multiple goroutines, and its bucket is
// shared by every call through it.
type Policy struct {
	limiter *rate.Limiter
}

// New constructs a throttle policy permitting perSecond requests per
// second on average, with bursts of up to burst requests. A burst
// below one is raised to one.
func New(perSecond float64, burst int) *Policy {
	if burst < 1 {
		burst = 1
	}
	return &Policy{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// NewWithLimiter constructs a throttle policy around an existing
// limiter, which may be shared with other users.
func NewWithLimiter(l *rate.Limiter) *Policy {
	if l == nil {
		panic("httpipe/throttle: nil limiter")
	}
	return &Policy{limiter: l}
}

// Process implements policy.Policy. If ctx is cancelled, or its
// deadline would expire before a token is available, Process returns
// a retry-ineligible error without invoking the rest of the chain.
func (p *Policy) Process(ctx context.Context, req *request.Request, next []policy.Policy) (*request.Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, transient.Ineligible(fmt.Errorf("httpipe/throttle: %w", err))
	}
	return policy.Next(ctx, req, next)
}
