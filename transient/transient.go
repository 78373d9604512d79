// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"syscall"
)

// A Category is the transience category of an attempt outcome, as
// reported by Categorize and Status.
//
// The category Not means a retry is very unlikely to succeed. All other
// categories mean a retry has some prospect of success.
type Category int

const (
	// Not indicates any non-transient outcome.
	Not Category = iota
	// Timeout indicates a client-side timeout. The error or one of
	// its wrapped causes has a Timeout() method reporting true, or is
	// context.DeadlineExceeded.
	Timeout
	// ConnRefused indicates the remote host refused the connection
	// (ECONNREFUSED). The service may be starting or restarting.
	ConnRefused
	// ConnReset indicates the remote host reset a previously active
	// connection (ECONNRESET).
	ConnReset
	// ConnAborted indicates the local stack aborted the connection
	// (ECONNABORTED), or the remote end closed it mid-exchange
	// (io.ErrUnexpectedEOF, or io.EOF before a response was read).
	ConnAborted
	// Throttled indicates the server asked the client to slow down
	// (status 429 Too Many Requests).
	Throttled
	// ServerError indicates a 5XX status, or 408 Request Timeout.
	ServerError
)

var categoryNames = [...]string{"Not", "Timeout", "ConnRefused", "ConnReset", "ConnAborted", "Throttled", "ServerError"}

// String returns the name of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Category(?)"
	}
	return categoryNames[c]
}

// Categorize returns the transience category of the given error. A nil
// error, and an error that is not transient, both produce Not.
//
// In assessing transience, Categorize looks at wrapped cause errors
// contained within err, not just err itself. Categorize never checks a
// Temporary() method, as its semantics aren't entirely clear, and never
// reports context.Canceled as transient. Errors marked with Ineligible
// are still categorized by their cause; use IsIneligible to detect
// them.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	if errors.Is(err, context.Canceled) {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET:
			return ConnReset
		case syscall.ECONNREFUSED:
			return ConnRefused
		case syscall.ECONNABORTED:
			return ConnAborted
		}
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return ConnAborted
	}

	return Not
}

// Status returns the transience category of an HTTP response status
// code: Throttled for 429, ServerError for 408 and every 5XX code, and
// Not for everything else.
func Status(code int) Category {
	switch {
	case code == http.StatusTooManyRequests:
		return Throttled
	case code == http.StatusRequestTimeout:
		return ServerError
	case code >= 500 && code <= 599:
		return ServerError
	default:
		return Not
	}
}

type hasTimeout interface {
	Timeout() bool
}
