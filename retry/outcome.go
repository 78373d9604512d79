// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"net/http"
	"time"

	"github.com/gogama/httpipe/request"
	"github.com/gogama/httpipe/transient"
)

// An Outcome is the result of one request attempt, as presented to a
// Decider and a Waiter.
type Outcome struct {
	// Attempt describes the attempt which produced the outcome.
	Attempt request.Attempt

	// Request is the request which was sent.
	Request *request.Request

	// Response is the response received, or nil if the attempt ended
	// in an error before a response was available.
	Response *request.Response

	// Err is the error the attempt ended with, if any.
	Err error
}

// StatusCode returns the response status code, or 0 if there is no
// response.
func (o *Outcome) StatusCode() int {
	return request.StatusCodeOf(o.Response)
}

// Header returns the response headers, or a nil header if there is no
// response.
func (o *Outcome) Header() http.Header {
	if o.Response == nil {
		return nil
	}
	return o.Response.Header
}

// Timeout reports whether the attempt ended in a timeout.
func (o *Outcome) Timeout() bool {
	return transient.Categorize(o.Err) == transient.Timeout
}

// Duration returns the time elapsed since the call's first attempt
// started.
func (o *Outcome) Duration() time.Duration {
	if o.Attempt.Start.IsZero() {
		return 0
	}
	return time.Since(o.Attempt.Start)
}
