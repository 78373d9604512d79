// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout provides a per-retry pipeline policy which bounds the
// duration of each individual HTTP request attempt.
//
// Place a timeout Policy after the retry policy, so that each attempt
// gets its own deadline and an attempt timeout is seen by the retry
// policy as an ordinary transient failure:
//
//	opts.AppendPerRetry(timeout.Adaptive(500*time.Millisecond, 2*time.Second))
//
// A deadline on the call context still bounds the whole call,
// including every retry and wait.
package timeout
