// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpipe sends HTTP requests through an ordered pipeline of
composable policies, with configurable retry support.

Build a Pipeline once per service client and reuse it:

	p := httpipe.New("storage", "1.2.0", nil, nil, nil)
	req, err := request.NewRequest("GET", "https://example.com/items", nil)
	...
	resp, err := p.Send(ctx, req)

A nil *ClientOptions gives the defaults: exponential retry with an
800ms base delay, 3 retries, and a 60s delay cap, sending through
http.DefaultClient. Use the builder methods to customize them:

	opts := httpipe.NewClientOptions().
		WithRetry(retry.Options{Mode: retry.Fixed, Delay: time.Second, MaxRetries: 5}).
		AppendPerCall(authPolicy).
		AppendPerRetry(timeout.Fixed(10 * time.Second))
	p := httpipe.New("storage", "1.2.0", opts, nil, nil)

Policies run in a fixed order. Per-call policies run exactly once per
call, before the retry policy; per-retry policies run once per attempt,
after it:

	caller per-call, SDK per-call, built-in per-call,
	retry,
	caller per-retry, SDK per-retry, built-in per-retry,
	transport

The built-in per-call policies set a client request id, the telemetry
User-Agent, and any custom headers carried by the context (see
request.WithHeaders). The built-in per-retry policy logs each attempt
at debug level with zerolog. The transport is terminal: it sends the
request with an HTTPDoer and reads the whole response body.

See package policy for the contract a policy must follow, and package
retry for retry classification and delay computation. Packages timeout,
breaker, throttle and instrument provide further policies to plug in.
*/
package httpipe
