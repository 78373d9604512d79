// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"context"
	"math"
	"time"

	"github.com/gogama/httpipe/policy"
	"github.com/gogama/httpipe/request"
)

// A Policy sets a deadline on each request attempt it sees. It
// implements policy.Policy and is safe for concurrent use by multiple
// goroutines.
type Policy struct {
	durations []time.Duration
}

// Infinite is a timeout policy which never times out.
var Infinite = Fixed(math.MaxInt64)

// Fixed constructs a timeout policy that uses the same value to set
// every attempt timeout.
func Fixed(d time.Duration) *Policy {
	return &Policy{[]time.Duration{d}}
}

// Adaptive constructs a timeout policy that varies the next timeout
// value if the previous attempt timed out.
//
// Use Adaptive if the remote service often exhibits one-off slow
// response times that can be cured by quickly timing out and retrying,
// but the caller also needs protection from retry storms when the
// service goes through a burst of slowness.
//
// Parameter usual is the timeout for an initial attempt and for any
// retry where the immediately preceding attempt did not time out.
// Parameter after holds the timeouts to use if the previous attempt
// timed out: after[0] if it was the first timeout of the call, after[1]
// if the second, and so on. The last element of after is reused once
// the list runs out.
//
//	p := Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
func Adaptive(usual time.Duration, after ...time.Duration) *Policy {
	p := make([]time.Duration, 1, 1+len(after))
	p[0] = usual
	return &Policy{append(p, after...)}
}

// Timeout returns the timeout to set on the attempt a.
func (p *Policy) Timeout(a request.Attempt) time.Duration {
	if !a.LastTimedOut {
		return p.durations[0]
	}

	i := a.Timeouts
	if i > len(p.durations)-1 {
		i = len(p.durations) - 1
	}

	return p.durations[i]
}

// Process implements policy.Policy. It runs the rest of the chain
// under a context whose deadline is the attempt timeout. A
// non-positive or maximal timeout sets no deadline.
func (p *Policy) Process(ctx context.Context, req *request.Request, next []policy.Policy) (*request.Response, error) {
	a, _ := request.AttemptFrom(ctx)
	d := p.Timeout(a)
	if d <= 0 || d == math.MaxInt64 {
		return policy.Next(ctx, req, next)
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return policy.Next(ctx, req, next)
}
