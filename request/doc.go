// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Request (an outbound HTTP
request which can be sent more than once) and Response (a fully
buffered inbound HTTP response). These two types are the values that
flow through every policy in a pipeline.

A Request looks like a stripped-down http.Request with all server-side
fields removed. Its body is usually a pre-buffered []byte, which makes
the request trivially replayable:

	req, err := request.NewRequest("PUT", "https://example.com/blob", body)
	...
	resp, err := pipeline.Send(ctx, req)
	...

A Request may instead carry a streaming body set with SetBodyStream. If
the stream is an io.Seeker it is rewound before every retry; otherwise
the request becomes non-rewindable once the stream has been handed to
the transport, and retry policies will not retry it.

The context passed through a pipeline carries per-call values alongside
the cancellation signal. The retry policy records the current Attempt in
the context so policies placed after it can tell which attempt they are
serving, and callers may attach custom headers and a client request id
with WithHeaders and WithClientRequestID.
*/
package request
