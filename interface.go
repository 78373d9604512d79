// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpipe

import (
	"context"
	"net/url"

	"github.com/gogama/httpipe/request"
)

// Sender is the interface that wraps the basic Send method.
//
// Send sends a request and returns the final response (and error, if
// any). Pipeline implements the Sender interface, and any other Sender
// implementation must behave substantially the same as Pipeline.Send.
type Sender interface {
	Send(ctx context.Context, req *request.Request) (*request.Response, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
type IdleCloser interface {
	CloseIdleConnections()
}

// Get uses the specified Sender to issue a GET to the specified URL.
//
// To send a request with custom headers, use request.NewRequest and
// s.Send.
func Get(ctx context.Context, s Sender, url string) (*request.Response, error) {
	req, err := request.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, req)
}

// Head uses the specified Sender to issue a HEAD to the specified URL.
//
// To send a request with custom headers, use request.NewRequest and
// s.Send.
func Head(ctx context.Context, s Sender, url string) (*request.Response, error) {
	req, err := request.NewRequest("HEAD", url, nil)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, req)
}

// Post uses the specified Sender to issue a POST to the specified URL.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.NewRequest and request.BodyBytes, namely:
// string; []byte; io.Reader; and io.ReadCloser.
func Post(ctx context.Context, s Sender, url, contentType string, body any) (*request.Response, error) {
	req, err := request.NewRequest("POST", url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return s.Send(ctx, req)
}

// PostForm uses the specified Sender to issue a POST to the specified
// URL, with data's keys and values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use request.NewRequest and s.Send.
func PostForm(ctx context.Context, s Sender, url string, data url.Values) (*request.Response, error) {
	return Post(ctx, s, url, "application/x-www-form-urlencoded", data.Encode())
}
