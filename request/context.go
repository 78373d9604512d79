// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"
)

type contextKey int

const (
	attemptKey contextKey = iota
	headersKey
	clientRequestIDKey
)

// An Attempt describes the HTTP request attempt a policy is currently
// serving. The retry policy records a fresh Attempt in the context
// before invoking the rest of the chain for each attempt.
type Attempt struct {
	// Index is the zero-based number of the attempt. It is zero on the
	// initial attempt, one on the first retry, and so on.
	Index int

	// Timeouts is the number of earlier attempts within the same call
	// which ended in a timeout.
	Timeouts int

	// Start is the time the call's first attempt began.
	Start time.Time

	// LastTimedOut reports whether the immediately preceding attempt
	// ended in a timeout. It is always false on the initial attempt.
	LastTimedOut bool
}

// IsRetry reports whether the attempt is a retry rather than the
// initial attempt.
func (a Attempt) IsRetry() bool {
	return a.Index > 0
}

// WithAttempt returns a copy of ctx carrying a.
func WithAttempt(ctx context.Context, a Attempt) context.Context {
	return context.WithValue(ctx, attemptKey, a)
}

// AttemptFrom returns the Attempt carried by ctx. If ctx carries no
// Attempt, for example because no retry policy runs ahead of the
// caller, the zero Attempt is returned along with false.
func AttemptFrom(ctx context.Context) (Attempt, bool) {
	a, ok := ctx.Value(attemptKey).(Attempt)
	return a, ok
}

// WithHeaders returns a copy of ctx carrying custom headers to be added
// to the request by the pipeline's custom header policy. Headers already
// carried by ctx are merged, with h taking precedence.
func WithHeaders(ctx context.Context, h http.Header) context.Context {
	merged := HeadersFrom(ctx).Clone()
	if merged == nil {
		merged = make(http.Header, len(h))
	}
	for k, v := range h {
		merged[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	return context.WithValue(ctx, headersKey, merged)
}

// HeadersFrom returns the custom headers carried by ctx, or nil.
func HeadersFrom(ctx context.Context) http.Header {
	h, _ := ctx.Value(headersKey).(http.Header)
	return h
}

// WithClientRequestID returns a copy of ctx carrying a caller-chosen
// client request id, which the pipeline sends instead of a generated
// one.
func WithClientRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientRequestIDKey, id)
}

// ClientRequestIDFrom returns the client request id carried by ctx and
// whether one was present.
func ClientRequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientRequestIDKey).(string)
	return id, ok
}
