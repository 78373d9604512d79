// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides the retry policies of an HTTP request
// pipeline, and the building blocks to assemble custom ones.
//
// Most callers describe retry behavior with Options and let the
// pipeline convert it with Options.ToPolicy:
//
//	opts := retry.DefaultOptions() // exponential, 800ms, 3 retries, 60s cap
//	opts.Mode = retry.Fixed
//	opts.Delay = 250 * time.Millisecond
//	p := opts.ToPolicy()
//
// A retrying Policy is composed of a decision-maker, Decider, and a
// wait time calculator, Waiter. Both have constructors for common use
// cases, so a custom policy can be assembled quickly:
//
//	decider := retry.Before(5 * time.Second).
//		And(retry.StatusCode(500).Or(retry.TransientErr))
//	waiter := retry.NewExpWaiter(100*time.Millisecond, 2*time.Second, 0.5, nil)
//	p := retry.NewPolicy(4, decider, waiter)
//
// A retry policy sits between the per-call and per-retry policies of a
// pipeline. Every policy after it runs once per attempt, and can learn
// which attempt it serves from request.AttemptFrom.
package retry
