// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "net/http"

// A Response is the result of one HTTP request attempt which reached
// the server and produced a status line. Its body has been fully read
// and the underlying connection released.
//
// A Response is treated as immutable once the transport returns it.
type Response struct {
	// StatusCode is the HTTP status code, e.g. 200.
	StatusCode int

	// Status is the status line text, e.g. "200 OK".
	Status string

	// Header contains the response header fields.
	Header http.Header

	// Body is the complete response body.
	Body []byte

	// Raw is the lower-level response the Response was built from. Its
	// body has already been consumed and closed. Raw may be nil if the
	// Response was not produced by a net/http transport.
	Raw *http.Response
}

// Success reports whether the status code is in the 2XX class.
func (r *Response) Success() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusCodeOf returns the status code of r, or 0 if r is nil.
func StatusCodeOf(r *Response) int {
	if r == nil {
		return 0
	}
	return r.StatusCode
}
