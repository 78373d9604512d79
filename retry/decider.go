// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/httpipe/transient"
)

// A Decider decides if a failed attempt should be retried.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// A Decider only classifies outcomes. The retry budget (maximum
// retries) and retry eligibility (for example a consumed request body)
// are enforced by the Policy regardless of what the Decider says.
//
// Use the built-in constructors Times, StatusCode, and Before, and the
// built-in deciders ServerError and TransientErr; or implement your
// own. Use DeciderFunc to convert an ordinary function into a Decider,
// and to compose deciders logically using DeciderFunc.And and
// DeciderFunc.Or.
type Decider interface {
	Decide(o *Outcome) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(o *Outcome) bool

// DefaultDecider is the classification used when Options.Decider is
// nil. It retries on a transient error (TransientErr), on the status
// codes 408 (Request Timeout) and 429 (Too Many Requests), and on any
// 5XX status code (ServerError). Every other outcome, including all
// other 4XX status codes, is terminal.
var DefaultDecider = StatusCode(408, 429).Or(ServerError).Or(TransientErr)

// TransientErr is a decider that indicates a retry if the attempt error
// is transient according to transient.Categorize.
//
// TransientErr only looks at the error, so it always returns false if
// a valid HTTP response was received.
var TransientErr DeciderFunc = transientErr

// ServerError is a decider that indicates a retry if the attempt
// received a response with a 5XX status code.
var ServerError DeciderFunc = serverError

// Decide returns true if a retry should be done, and false otherwise.
func (f DeciderFunc) Decide(o *Outcome) bool {
	return f(o)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(o *Outcome) bool {
		return f(o) && g(o)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(o *Outcome) bool {
		return f(o) || g(o)
	}
}

// Times constructs a retry decider which allows retries while the
// zero-based index of the failed attempt is less than n.
//
// A Policy already enforces its own retry budget, so Times is only
// useful to impose a smaller budget on part of a composed decider.
func Times(n int) DeciderFunc {
	return func(o *Outcome) bool {
		return o.Attempt.Index < n
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the call's first attempt started.
func Before(d time.Duration) DeciderFunc {
	return func(o *Outcome) bool {
		return o.Duration() < d
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// HTTP response status code. If the attempt received a valid HTTP
// response, and the response status code is contained in the list ss,
// the decider returns true. Otherwise, it returns false.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(o *Outcome) bool {
		for _, s := range ss2 {
			if o.StatusCode() == s {
				return true
			}
		}
		return false
	}
}

func transientErr(o *Outcome) bool {
	return transient.Categorize(o.Err) != transient.Not
}

func serverError(o *Outcome) bool {
	s := o.StatusCode()
	return s >= 500 && s <= 599
}
