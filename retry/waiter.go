// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// A Waiter specifies how long to wait before retrying a failed HTTP
// request attempt. Wait receives the outcome of the attempt that just
// failed; o.Attempt.Index is the zero-based index of that attempt.
//
// Implementations of Waiter must be safe for concurrent use by multiple
// goroutines.
//
// A Policy does not call its Waiter if no retry will be made.
type Waiter interface {
	Wait(o *Outcome) time.Duration
}

// NewFixedWaiter constructs a Waiter that always returns
// min(d, max). A non-positive max means no cap.
//
// Use NewFixedWaiter to obtain a constant retry backoff.
func NewFixedWaiter(d, max time.Duration) Waiter {
	if d < 0 {
		d = 0
	}
	if max > 0 && d > max {
		d = max
	}
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *Outcome) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter constructs a Waiter implementing a capped exponential
// backoff formula with symmetric jitter.
//
// Parameters base and max control the exponential calculation of the
// ceiling for the retry following attempt n:
//
//	ceil := min(base * 2**n, max)
//
// A non-positive max means no cap. The ceiling is then perturbed by a
// random factor in [1-jitter, 1+jitter) and clamped back into
// [0, max], so the result never exceeds max. Parameter jitter is
// clamped into [0, 1]; zero disables jitter.
//
// Parameter seed controls the random number generator used for
// jitter. It may be nil (seed from the current time), a seed value (as
// a time.Time, int, or int64), a rand.Source, or a *rand.Rand.
func NewExpWaiter(base, max time.Duration, jitter float64, seed any) Waiter {
	if base < 0 {
		base = 0
	}
	if max < 0 {
		max = 0
	}
	switch {
	case jitter < 0 || math.IsNaN(jitter):
		jitter = 0
	case jitter > 1:
		jitter = 1
	}
	w := &expWaiter{
		base:   base,
		max:    max,
		jitter: jitter,
	}
	if jitter > 0 {
		w.rand = seedToRand(seed)
	}
	return w
}

type expWaiter struct {
	base   time.Duration
	max    time.Duration
	jitter float64
	rand   *rand.Rand
	lock   sync.Mutex
}

func (w *expWaiter) Wait(o *Outcome) time.Duration {
	ceil := w.ceil(o.Attempt.Index)
	if ceil <= 0 || w.rand == nil {
		return ceil
	}

	w.lock.Lock()
	u := w.rand.Float64()
	w.lock.Unlock()

	f := float64(ceil) * (1 + w.jitter*(2*u-1))
	var d time.Duration
	switch {
	case f <= 0:
		d = 0
	case f >= math.MaxInt64:
		d = math.MaxInt64
	default:
		d = time.Duration(f)
	}
	if w.max > 0 && d > w.max {
		d = w.max
	}
	return d
}

func (w *expWaiter) ceil(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	ceil := time.Duration(math.MaxInt64)
	if w.base == 0 {
		ceil = 0
	} else if n < 63 && int64(w.base) <= math.MaxInt64>>n {
		ceil = w.base << n
	}
	if w.max > 0 && ceil > w.max {
		ceil = w.max
	}
	return ceil
}

func seedToRand(seed any) *rand.Rand {
	var s rand.Source
	switch j := seed.(type) {
	case nil:
		s = rand.NewSource(time.Now().UnixNano())
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("httpipe/retry: seed may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("httpipe/retry: invalid seed type")
	}
	return rand.New(s)
}
