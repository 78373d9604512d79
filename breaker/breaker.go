// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package breaker provides a circuit breaker pipeline policy.
//
// The breaker counts retryable outcomes (transient errors, and 408,
// 429 and 5XX responses) as failures. After enough consecutive
// failures it opens and fails attempts fast with ErrOpen until its
// timeout elapses, then lets a limited number of probe attempts
// through to decide whether to close again.
//
// Install the breaker as a per-retry policy so it sees every attempt:
//
//	opts.AppendPerRetry(breaker.New(breaker.Settings{Name: "storage"}))
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/gogama/httpipe/policy"
	"github.com/gogama/httpipe/request"
	"github.com/gogama/httpipe/transient"
)

var (
	// ErrOpen is returned, wrapped, when the breaker is open.
	ErrOpen = gobreaker.ErrOpenState
	// ErrTooManyRequests is returned, wrapped, when the breaker is
	// half-open and its probe budget is used up.
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// errFailedResponse marks a retryable response so gobreaker counts it
// as a failure. It never escapes Process.
var errFailedResponse = errors.New("httpipe/breaker: failed response")

// DefaultFailureThreshold is the number of consecutive failures which
// opens a breaker when Settings.FailureThreshold is zero.
const DefaultFailureThreshold = 5

// Settings configures a breaker Policy.
type Settings struct {
	// Name identifies the breaker in errors and log lines.
	Name string

	// MaxRequests is the number of probe attempts allowed through while
	// half-open. Zero means one.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state after which
	// failure counts are cleared. Zero means counts are never cleared
	// while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before turning
	// half-open. Zero means 60 seconds.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures which
	// opens the breaker. Zero means DefaultFailureThreshold.
	FailureThreshold uint32

	// Logger receives a warning on every state change. If nil, state
	// changes are not logged.
	Logger *zerolog.Logger
}

// An Error is returned when the breaker rejects an attempt without
// sending it.
type Error struct {
	Name  string
	State gobreaker.State
	Err   error
}

func (e *Error) Error() string {
	return "httpipe/breaker: " + e.Name + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// A Policy is a circuit breaker pipeline policy. It is safe for
// concurrent use by multiple goroutines, and its state is shared by
// every call through it.
type Policy struct {
	cb *gobreaker.CircuitBreaker[*request.Response]
}

// New constructs a breaker policy.
func New(s Settings) *Policy {
	threshold := s.FailureThreshold
	if threshold == 0 {
		threshold = DefaultFailureThreshold
	}
	st := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	if s.Logger != nil {
		logger := s.Logger
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Stringer("from", from).
				Stringer("to", to).
				Msg("circuit breaker state changed")
		}
	}
	return &Policy{cb: gobreaker.NewCircuitBreaker[*request.Response](st)}
}

// State returns the current state of the breaker.
func (p *Policy) State() gobreaker.State {
	return p.cb.State()
}

// Counts returns the breaker's failure and success counts for the
// current generation.
func (p *Policy) Counts() gobreaker.Counts {
	return p.cb.Counts()
}

// Process implements policy.Policy.
func (p *Policy) Process(ctx context.Context, req *request.Request, next []policy.Policy) (*request.Response, error) {
	resp, err := p.cb.Execute(func() (*request.Response, error) {
		resp, err := policy.Next(ctx, req, next)
		if err == nil && transient.Status(request.StatusCodeOf(resp)) != transient.Not {
			return resp, errFailedResponse
		}
		return resp, err
	})
	switch {
	case errors.Is(err, errFailedResponse):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, &Error{Name: p.cb.Name(), State: p.cb.State(), Err: err}
	default:
		return resp, err
	}
}
