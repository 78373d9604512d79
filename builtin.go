// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpipe

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpguts"

	"github.com/gogama/httpipe/policy"
	"github.com/gogama/httpipe/request"
)

// ClientRequestIDHeader is the request header carrying the client
// request id.
const ClientRequestIDHeader = "x-ms-client-request-id"

// clientRequestIDPolicy gives every call an id, constant across its
// attempts. An id in the context wins over one already on the request.
type clientRequestIDPolicy struct{}

func (clientRequestIDPolicy) Process(ctx context.Context, req *request.Request, next []policy.Policy) (*request.Response, error) {
	if id, ok := request.ClientRequestIDFrom(ctx); ok {
		req.Header.Set(ClientRequestIDHeader, id)
	} else if req.Header.Get(ClientRequestIDHeader) == "" {
		req.Header.Set(ClientRequestIDHeader, uuid.NewString())
	}
	return policy.Next(ctx, req, next)
}

type telemetryPolicy struct {
	userAgent string
}

func newTelemetryPolicy(appID, name, version string) telemetryPolicy {
	return telemetryPolicy{userAgent: userAgent(appID, name, version)}
}

// userAgent formats "[<appID> ]httpipe-<name>/<version> (<go>; <os>)".
func userAgent(appID, name, version string) string {
	ua := fmt.Sprintf("httpipe-%s/%s (%s; %s)", name, version, runtime.Version(), runtime.GOOS)
	if appID != "" {
		ua = appID + " " + ua
	}
	return ua
}

func (p telemetryPolicy) Process(ctx context.Context, req *request.Request, next []policy.Policy) (*request.Response, error) {
	ua := p.userAgent
	existing := req.Header.Get("User-Agent")
	switch {
	case existing == "":
	case strings.HasPrefix(existing, ua):
		ua = existing
	default:
		ua = ua + " " + existing
	}
	req.Header.Set("User-Agent", ua)
	return policy.Next(ctx, req, next)
}

// customHeadersPolicy copies the headers carried by the context, see
// request.WithHeaders, onto the request.
type customHeadersPolicy struct{}

func (customHeadersPolicy) Process(ctx context.Context, req *request.Request, next []policy.Policy) (*request.Response, error) {
	h := request.HeadersFrom(ctx)
	for name, values := range h {
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, fmt.Errorf("httpipe: invalid custom header name %q", name)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return nil, fmt.Errorf("httpipe: invalid value for custom header %q", name)
			}
		}
	}
	for name, values := range h {
		req.Header[name] = append([]string(nil), values...)
	}
	return policy.Next(ctx, req, next)
}
