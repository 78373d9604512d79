// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"context"
	"errors"
	"time"

	retrygo "github.com/avast/retry-go/v5"
	"github.com/rs/zerolog"

	"github.com/gogama/httpipe/policy"
	"github.com/gogama/httpipe/request"
	"github.com/gogama/httpipe/transient"
)

// errRetry tells the attempt loop that the last outcome should be
// retried. It never escapes Process.
var errRetry = errors.New("httpipe/retry: retry")

// NoRetry is a policy that never retries. It invokes the rest of the
// chain exactly once and returns its result unchanged.
type NoRetry struct{}

// Process implements policy.Policy.
func (NoRetry) Process(ctx context.Context, req *request.Request, next []policy.Policy) (*request.Response, error) {
	ctx = request.WithAttempt(ctx, request.Attempt{Start: time.Now()})
	return policy.Next(ctx, req, next)
}

// A Policy is a retrying pipeline policy. After every attempt it
// decides whether a retry should be done and, if so, how long to wait
// before retrying.
//
// A Policy holds only immutable configuration. All state belonging to
// one call (the attempt counter, the timeout count, the last outcome)
// lives in the Process invocation, so a Policy is safe for concurrent
// use by multiple goroutines.
type Policy struct {
	maxRetries int
	decider    Decider
	waiter     Waiter
	timer      retrygo.Timer
}

// NewPolicy constructs a retry policy which makes at most maxRetries
// retries (maxRetries+1 attempts in total), using d to classify each
// failed attempt and w to compute the wait before each retry.
//
// A non-positive maxRetries yields a policy which makes exactly one
// attempt, like NoRetry.
func NewPolicy(maxRetries int, d Decider, w Waiter) *Policy {
	if d == nil {
		panic("httpipe/retry: nil decider")
	}
	if w == nil {
		panic("httpipe/retry: nil waiter")
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Policy{
		maxRetries: maxRetries,
		decider:    d,
		waiter:     w,
	}
}

// NewFixed constructs a retry policy using DefaultDecider and a
// constant wait of min(delay, maxDelay) before every retry.
func NewFixed(delay time.Duration, maxRetries int, maxDelay time.Duration) *Policy {
	return NewPolicy(maxRetries, DefaultDecider, NewFixedWaiter(delay, maxDelay))
}

// NewExponential constructs a retry policy using DefaultDecider and a
// jittered exponential wait (see NewExpWaiter) before every retry.
func NewExponential(delay time.Duration, maxRetries int, maxDelay time.Duration, jitter float64) *Policy {
	return NewPolicy(maxRetries, DefaultDecider, NewExpWaiter(delay, maxDelay, jitter, nil))
}

// MaxRetries returns the maximum number of retries the policy makes.
func (p *Policy) MaxRetries() int {
	return p.maxRetries
}

// Process implements policy.Policy. It invokes the rest of the chain
// once per attempt, with the current request.Attempt recorded in the
// context.
//
// The result of the final attempt is returned unchanged, whether it is
// a success, a non-retryable failure, or the last of an exhausted
// sequence of retryable failures. If ctx is cancelled while waiting to
// retry, Process returns the context's error.
func (p *Policy) Process(ctx context.Context, req *request.Request, next []policy.Policy) (*request.Response, error) {
	start := time.Now()
	if p.maxRetries <= 0 {
		return policy.Next(request.WithAttempt(ctx, request.Attempt{Start: start}), req, next)
	}

	logger := zerolog.Ctx(ctx)
	var (
		last     *Outcome
		timeouts int
	)
	attempt := func() (*request.Response, error) {
		a := request.Attempt{Start: start}
		if last != nil {
			a.Index = last.Attempt.Index + 1
			a.Timeouts = timeouts
			a.LastTimedOut = last.Timeout()
			if err := req.Rewind(); err != nil {
				logger.Debug().Err(err).Int("attempt", a.Index).Msg("request body rewind failed")
				return last.Response, nil
			}
		}
		resp, err := policy.Next(request.WithAttempt(ctx, a), req, next)
		last = &Outcome{Attempt: a, Request: req, Response: resp, Err: err}
		if last.Timeout() {
			timeouts++
		}
		if !p.retryable(ctx, last) {
			return resp, nil
		}
		if a.Index >= p.maxRetries {
			logger.Debug().
				Int("attempt", a.Index).
				Int("status", last.StatusCode()).
				AnErr("error", err).
				Msg("retries exhausted")
			return resp, nil
		}
		return resp, errRetry
	}

	opts := []retrygo.Option{
		retrygo.Context(ctx),
		retrygo.Attempts(uint(p.maxRetries) + 1),
		retrygo.LastErrorOnly(true),
		retrygo.RetryIf(func(err error) bool {
			return errors.Is(err, errRetry)
		}),
		retrygo.DelayType(func(_ uint, _ error, _ retrygo.DelayContext) time.Duration {
			d := p.waiter.Wait(last)
			logger.Debug().
				Int("attempt", last.Attempt.Index).
				Int("status", last.StatusCode()).
				AnErr("error", last.Err).
				Dur("wait", d).
				Msg("retrying")
			return d
		}),
	}
	if p.timer != nil {
		opts = append(opts, retrygo.WithTimer(p.timer))
	}

	_, err := retrygo.NewWithData[*request.Response](opts...).Do(attempt)
	if last == nil || (err != nil && !errors.Is(err, errRetry)) {
		if err == nil {
			err = ctx.Err()
		}
		return nil, err
	}
	return last.Response, last.Err
}

func (p *Policy) retryable(ctx context.Context, o *Outcome) bool {
	if o.Err == nil && o.Response == nil {
		return false
	}
	if transient.IsIneligible(o.Err) || !o.Request.Rewindable() {
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	return p.decider.Decide(o)
}
