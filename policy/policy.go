// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package policy defines the contract every stage of an HTTP request
// pipeline implements.
//
// A policy receives the call context, the mutable request, and the
// policies which follow it. It may act before delegating, delegate
// zero or more times with Next, and act on the result afterward:
//
//	func addTrace(ctx context.Context, req *request.Request, next []policy.Policy) (*request.Response, error) {
//		req.Header.Set("X-Trace", "on")
//		return policy.Next(ctx, req, next)
//	}
//
// A terminal policy (the transport) produces a response without
// delegating. Failures are returned as errors, never as panics.
package policy

import (
	"context"
	"errors"

	"github.com/gogama/httpipe/request"
)

// ErrChainEnd is returned by Next when there is no policy left to
// invoke, which means the chain was assembled without a terminal
// policy.
var ErrChainEnd = errors.New("httpipe/policy: no terminal policy in chain")

// A Policy is one stage of a request pipeline.
//
// Implementations of Policy must be safe for concurrent use by
// multiple goroutines. Per-call state must live in the call stack or
// in the context, never in the policy itself.
type Policy interface {
	// Process handles one request. Parameter next holds the policies
	// following this one, in order. A non-terminal policy delegates
	// with Next(ctx, req, next); it may do so more than once (retry)
	// or not at all (short circuit).
	Process(ctx context.Context, req *request.Request, next []Policy) (*request.Response, error)
}

// The Func type is an adapter to allow the use of ordinary functions
// as policies.
type Func func(ctx context.Context, req *request.Request, next []Policy) (*request.Response, error)

// Process calls f(ctx, req, next).
func (f Func) Process(ctx context.Context, req *request.Request, next []Policy) (*request.Response, error) {
	return f(ctx, req, next)
}

// Next invokes the first policy in next, handing it the remainder of
// the chain. If next is empty it returns ErrChainEnd.
func Next(ctx context.Context, req *request.Request, next []Policy) (*request.Response, error) {
	if len(next) == 0 {
		return nil, ErrChainEnd
	}
	return next[0].Process(ctx, req, next[1:])
}
