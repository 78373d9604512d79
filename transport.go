// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpipe

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gogama/httpipe/policy"
	"github.com/gogama/httpipe/request"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// NewTransport returns a terminal policy which sends each attempt with
// doer. If doer is nil, http.DefaultClient is used.
//
// The transport reads the entire response body into Response.Body and
// closes it. Every error it returns is a *url.Error.
func NewTransport(doer HTTPDoer) policy.Policy {
	return &transportPolicy{doer: doer}
}

type transportPolicy struct {
	doer HTTPDoer
}

func (t *transportPolicy) Process(ctx context.Context, req *request.Request, _ []policy.Policy) (*request.Response, error) {
	hr := req.ToRequest(ctx)
	raw, err := t.httpDoer().Do(hr)
	if err != nil {
		return nil, urlErrorWrap(req, err)
	}
	resp := &request.Response{
		StatusCode: raw.StatusCode,
		Status:     raw.Status,
		Header:     raw.Header,
		Raw:        raw,
	}
	resp.Body, err = readBody(raw)
	if err != nil {
		return resp, urlErrorWrap(req, err)
	}
	return resp, nil
}

// CloseIdleConnections forwards to the HTTPDoer, if it supports it.
//
// The effect depends entirely on the HTTPDoer. For example, the
// http.Client type forwards the call to its Transport, but only if the
// Transport itself has a CloseIdleConnections method.
func (t *transportPolicy) CloseIdleConnections() {
	if ic, ok := t.httpDoer().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (t *transportPolicy) httpDoer() HTTPDoer {
	if t.doer == nil {
		return http.DefaultClient
	}

	return t.doer
}

func readBody(raw *http.Response) ([]byte, error) {
	defer func() {
		_ = raw.Body.Close()
	}()
	return io.ReadAll(raw.Body)
}

func urlErrorWrap(req *request.Request, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(req.Method),
		URL: req.URL.String(),
		Err: err,
	}
}

// urlErrorOp matches the Op naming of net/http's client errors.
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
