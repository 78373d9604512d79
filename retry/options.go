// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"strings"
	"time"

	"github.com/gogama/httpipe/policy"
)

// A Mode selects the retry algorithm described by Options.
type Mode int

const (
	// Exponential waits a jittered, geometrically growing delay
	// between attempts. It is the zero value, and the default.
	Exponential Mode = iota
	// Fixed waits the same delay between every attempt.
	Fixed
	// None never retries.
	None
)

// String returns the lower-case name of the mode.
func (m Mode) String() string {
	switch m {
	case Exponential:
		return "exponential"
	case Fixed:
		return "fixed"
	case None:
		return "none"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name as produced by Mode.String. Matching is
// case-insensitive, and the empty string parses as Exponential.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exponential":
		return Exponential, nil
	case "fixed":
		return Fixed, nil
	case "none":
		return None, nil
	default:
		return Exponential, fmt.Errorf("httpipe/retry: unknown mode %q", s)
	}
}

// Default retry settings, as returned by DefaultOptions.
const (
	DefaultMode       = Exponential
	DefaultDelay      = 800 * time.Millisecond
	DefaultMaxRetries = 3
	DefaultMaxDelay   = 60 * time.Second
	DefaultJitter     = 0.2
)

// Options is the retry configuration of a pipeline. It is converted
// into a policy once, when the pipeline is built, using ToPolicy.
//
// The caller is responsible for keeping Delay no greater than
// MaxDelay; it is not enforced. Negative durations are treated as
// zero, and a zero MaxDelay means no cap. A MaxRetries of zero makes
// every mode behave like None.
type Options struct {
	// Mode selects the retry algorithm.
	Mode Mode

	// Delay is the fixed delay (Fixed mode) or the base delay
	// (Exponential mode) between attempts.
	Delay time.Duration

	// MaxRetries is the maximum number of retries after the initial
	// attempt.
	MaxRetries int

	// MaxDelay caps the delay between attempts.
	MaxDelay time.Duration

	// Jitter is the fraction, in [0, 1], by which an Exponential delay
	// is randomly perturbed in either direction. Values outside the
	// range are clamped. Fixed mode ignores it.
	Jitter float64

	// Decider classifies failed attempts as retryable or not. If nil,
	// DefaultDecider is used.
	Decider Decider
}

// DefaultOptions returns the default retry configuration: Exponential
// mode, an 800ms base delay, 3 retries, a 60s delay cap, and 20%
// jitter.
func DefaultOptions() Options {
	return Options{
		Mode:       DefaultMode,
		Delay:      DefaultDelay,
		MaxRetries: DefaultMaxRetries,
		MaxDelay:   DefaultMaxDelay,
		Jitter:     DefaultJitter,
	}
}

// ToPolicy converts o into a new retry policy. Every call returns a
// freshly constructed policy holding no reference back to o.
func (o Options) ToPolicy() policy.Policy {
	if o.Mode == None || o.MaxRetries <= 0 {
		return NoRetry{}
	}
	d := o.Decider
	if d == nil {
		d = DefaultDecider
	}
	var w Waiter
	switch o.Mode {
	case Fixed:
		w = NewFixedWaiter(o.Delay, o.MaxDelay)
	default:
		w = NewExpWaiter(o.Delay, o.MaxDelay, o.Jitter, nil)
	}
	return NewPolicy(o.MaxRetries, d, w)
}

// Validate reports whether o holds a known mode and non-negative
// values.
func (o Options) Validate() error {
	switch {
	case o.Mode < Exponential || o.Mode > None:
		return fmt.Errorf("httpipe/retry: unknown mode %d", int(o.Mode))
	case o.Delay < 0:
		return fmt.Errorf("httpipe/retry: negative delay %s", o.Delay)
	case o.MaxRetries < 0:
		return fmt.Errorf("httpipe/retry: negative max retries %d", o.MaxRetries)
	case o.MaxDelay < 0:
		return fmt.Errorf("httpipe/retry: negative max delay %s", o.MaxDelay)
	case o.Jitter < 0 || o.Jitter > 1:
		return fmt.Errorf("httpipe/retry: jitter %g outside [0, 1]", o.Jitter)
	default:
		return nil
	}
}
