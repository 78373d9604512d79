// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpipe

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/gogama/httpipe/policy"
	"github.com/gogama/httpipe/request"
)

const redacted = "REDACTED"

type loggingPolicy struct {
	logger       *zerolog.Logger
	includeQuery bool
	allowed      map[string]bool
}

func newLoggingPolicy(o LoggingOptions) *loggingPolicy {
	allowed := make(map[string]bool, len(o.AllowedHeaders))
	for _, h := range o.AllowedHeaders {
		allowed[http.CanonicalHeaderKey(h)] = true
	}
	return &loggingPolicy{
		logger:       o.Logger,
		includeQuery: o.IncludeQuery,
		allowed:      allowed,
	}
}

func (p *loggingPolicy) Process(ctx context.Context, req *request.Request, next []policy.Policy) (*request.Response, error) {
	logger := p.logger
	if logger == nil {
		logger = zerolog.Ctx(ctx)
	}
	if logger.GetLevel() > zerolog.DebugLevel {
		return policy.Next(ctx, req, next)
	}

	a, _ := request.AttemptFrom(ctx)
	u := p.redactURL(req.URL)
	ev := logger.Debug().
		Str("method", req.Method).
		Str("url", u).
		Int("attempt", a.Index)
	if h := p.headers(req.Header); h != nil {
		ev = ev.Dict("headers", h)
	}
	ev.Msg("sending request")

	start := time.Now()
	resp, err := policy.Next(ctx, req, next)
	ev = logger.Debug().
		Str("method", req.Method).
		Str("url", u).
		Int("attempt", a.Index).
		Dur("duration", time.Since(start))
	if resp != nil {
		ev = ev.Int("status", resp.StatusCode)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("received response")
	return resp, err
}

func (p *loggingPolicy) redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	if p.includeQuery || u.RawQuery == "" {
		return u.Redacted()
	}
	q := u.Query()
	for k := range q {
		q[k] = []string{redacted}
	}
	u2 := *u
	u2.RawQuery = q.Encode()
	return u2.Redacted()
}

func (p *loggingPolicy) headers(h http.Header) *zerolog.Event {
	if len(p.allowed) == 0 {
		return nil
	}
	var d *zerolog.Event
	for name, values := range h {
		if !p.allowed[http.CanonicalHeaderKey(name)] || len(values) == 0 {
			continue
		}
		if d == nil {
			d = zerolog.Dict()
		}
		d = d.Strs(name, values)
	}
	return d
}
