// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

var (
	template, _ = http.NewRequest("GET", "", nil)
)

// ErrNotRewindable is returned by Request.Rewind when the request body
// is a stream which has already been consumed and cannot be replayed.
var ErrNotRewindable = errors.New("httpipe/request: body stream is not rewindable")

// A Request is an outbound HTTP request which may be sent once per
// attempt by the policies in a pipeline.
//
// The field structure of Request mirrors the structure of the
// lower-level http.Request with server-only fields removed. The body
// is either the pre-buffered Body or a stream set with SetBodyStream.
//
// A Request is owned by the caller for the duration of a call. Policies
// may modify it in place (for example to add headers) but must not
// retain it after the call returns. A Request is not safe for
// concurrent use.
type Request struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string

	// URL specifies the URL to access.
	URL *urlpkg.URL

	// Header contains the request header fields to be sent.
	Header http.Header

	// Body is the pre-buffered request body to be sent. A nil or
	// empty body indicates no request body should be sent. Body is
	// ignored if a body stream has been set.
	Body []byte

	// TransferEncoding lists the transfer encodings from outermost to
	// innermost. An empty list denotes the "identity" encoding.
	TransferEncoding []string

	// Close stipulates whether to close the connection after sending
	// each attempt and reading the response.
	Close bool

	// Host optionally overrides the Host header to send. If empty, the
	// value of URL.Host will be sent.
	Host string

	stream io.Reader
	offset int64
	length int64
	sent   bool
}

// NewRequest returns a new Request given a method, URL, and optional
// body.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser. If body is an io.Reader, it is
// read to the end and buffered into a []byte. If body is an
// io.ReadCloser, it is closed after buffering.
func NewRequest(method, url string, body any) (*Request, error) {
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("httpipe/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Request{
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Body:   b,
		Host:   u.Host,
	}, nil
}

// SetBodyStream replaces the request body with a stream of the given
// length. A negative length means the length is unknown.
//
// If r implements io.Seeker, the stream is rewound to its current
// position before every attempt after the first, and the request stays
// rewindable. Otherwise the request stops being rewindable as soon as
// the stream has been handed to the transport once.
func (r *Request) SetBodyStream(s io.Reader, length int64) error {
	r.Body = nil
	r.stream = s
	r.length = length
	r.sent = false
	r.offset = 0
	if seeker, ok := s.(io.Seeker); ok {
		off, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		r.offset = off
	}
	return nil
}

// Rewindable reports whether the request can be sent again. Requests
// with a buffered body, no body, or a seekable stream are always
// rewindable. A request with a non-seekable stream is rewindable only
// until the stream is first sent.
func (r *Request) Rewindable() bool {
	if r.stream == nil || !r.sent {
		return true
	}
	_, ok := r.stream.(io.Seeker)
	return ok
}

// Rewind prepares the request body to be sent again. It returns
// ErrNotRewindable if the body is a consumed, non-seekable stream.
func (r *Request) Rewind() error {
	if r.stream == nil || !r.sent {
		return nil
	}
	seeker, ok := r.stream.(io.Seeker)
	if !ok {
		return ErrNotRewindable
	}
	_, err := seeker.Seek(r.offset, io.SeekStart)
	return err
}

// AddCookie adds a cookie to the request. Per RFC 6265 section 5.4,
// AddCookie does not attach more than one Cookie header field. That
// means all cookies, if any, are written into the same line,
// separated by semicolons.
func (r *Request) AddCookie(c *http.Cookie) {
	c2 := &http.Cookie{Name: c.Name, Value: c.Value}
	s := c2.String()
	if h := r.Header.Get("Cookie"); h != "" {
		r.Header.Set("Cookie", h+"; "+s)
	} else {
		r.Header.Set("Cookie", s)
	}
}

// SetBasicAuth sets the request's Authorization header to use HTTP
// Basic Authentication with the provided username and password.
func (r *Request) SetBasicAuth(username, password string) {
	auth := username + ":" + password
	r.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
}

// Clone returns a deep copy of r. A body stream, if any, is shared
// between r and the copy.
func (r *Request) Clone() *Request {
	r2 := new(Request)
	*r2 = *r
	if r.URL != nil {
		u := *r.URL
		if r.URL.User != nil {
			u.User = new(urlpkg.Userinfo)
			*u.User = *r.URL.User
		}
		r2.URL = &u
	}
	r2.Header = r.Header.Clone()
	if r.Body != nil {
		r2.Body = append([]byte(nil), r.Body...)
	}
	if r.TransferEncoding != nil {
		r2.TransferEncoding = append([]string(nil), r.TransferEncoding...)
	}
	return r2
}

// ToRequest creates the lower-level HTTP request for one attempt. The
// context of the new request is set to ctx, which may not be nil.
//
// The header of the new request is a copy, so changes made to it by an
// HTTPDoer do not leak back into r.
//
// If the request carries a non-seekable body stream, calling ToRequest
// consumes it: afterward the request is no longer rewindable.
func (r *Request) ToRequest(ctx context.Context) *http.Request {
	hr := template.WithContext(ctx)
	hr.Method = r.Method
	if hr.Method == "" {
		hr.Method = "GET"
	}
	hr.URL = r.URL
	hr.Header = r.Header.Clone()
	if hr.Header == nil {
		hr.Header = make(http.Header)
	}
	if r.stream != nil {
		hr.Body = io.NopCloser(r.stream)
		hr.ContentLength = r.length
		r.sent = true
	} else if len(r.Body) > 0 {
		body := r.Body
		hr.Body = io.NopCloser(bytes.NewReader(body))
		hr.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		hr.ContentLength = int64(len(body))
	}
	hr.TransferEncoding = r.TransferEncoding
	hr.Close = r.Close
	hr.Host = r.Host
	return hr
}

func validMethod(method string) bool {
	// Method = token, and the empty string is already mapped to GET.
	return strings.IndexFunc(method, func(c rune) bool {
		return !httpguts.IsTokenRune(c)
	}) == -1
}

// hasPort reports whether s, of the form "host", "host:port", or
// "[ipv6::address]:port", includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort strips the empty port in ":port" to "" as mandated
// by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
