// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/gogama/httpipe/policy"
	"github.com/gogama/httpipe/request"
	"github.com/gogama/httpipe/transient"
)

func TestNoRetry(t *testing.T) {
	outcomes := []struct {
		name string
		resp *request.Response
		err  error
	}{
		{"success", responseWith(200), nil},
		{"server error", responseWith(500), nil},
		{"throttled", responseWith(429), nil},
		{"transient error", nil, syscall.ECONNRESET},
		{"both", responseWith(502), io.ErrUnexpectedEOF},
	}
	for _, outcome := range outcomes {
		t.Run(outcome.name, func(t *testing.T) {
			s := &stubTransport{respond: func(int) (*request.Response, error) { return outcome.resp, outcome.err }}
			resp, err := send(t, NoRetry{}, s)
			assert.Same(t, outcome.resp, resp)
			assert.Equal(t, outcome.err, err)
			assert.Equal(t, 1, s.count())
			assert.Equal(t, []int{0}, s.indices())
		})
	}
}

func TestNewPolicy(t *testing.T) {
	assert.PanicsWithValue(t, "httpipe/retry: nil decider", func() { NewPolicy(1, nil, NewFixedWaiter(0, 0)) })
	assert.PanicsWithValue(t, "httpipe/retry: nil waiter", func() { NewPolicy(1, DefaultDecider, nil) })
	assert.Equal(t, 0, NewPolicy(-4, DefaultDecider, NewFixedWaiter(0, 0)).MaxRetries())
	assert.Equal(t, 7, NewFixed(time.Second, 7, time.Minute).MaxRetries())
	assert.Equal(t, 2, NewExponential(time.Second, 2, time.Minute, 0.5).MaxRetries())
}

func TestPolicy_RetryBound(t *testing.T) {
	for n := 0; n <= 5; n++ {
		for _, mode := range []Mode{Fixed, Exponential} {
			t.Run(mode.String(), func(t *testing.T) {
				s := &stubTransport{respond: func(int) (*request.Response, error) { return nil, syscall.ECONNRESET }}
				timer := &fakeTimer{}
				p := policyFor(Options{Mode: mode, Delay: time.Millisecond, MaxRetries: n, MaxDelay: time.Second}, timer)

				resp, err := send(t, p, s)

				assert.Nil(t, resp)
				assert.Equal(t, syscall.ECONNRESET, err)
				assert.Equal(t, n+1, s.count(), "max retries %d", n)
				assert.Len(t, timer.waits(), n)
			})
		}
	}
}

func TestPolicy_NonRetryableShortCircuit(t *testing.T) {
	for _, code := range []int{400, 401, 403, 404, 409} {
		for _, n := range []int{0, 1, 5, 100} {
			s := &stubTransport{respond: func(int) (*request.Response, error) { return responseWith(code), nil }}
			timer := &fakeTimer{}
			resp, err := send(t, policyFor(Options{Mode: Fixed, MaxRetries: n}, timer), s)
			require.NoError(t, err)
			assert.Equal(t, code, resp.StatusCode)
			assert.Equal(t, 1, s.count(), "status %d, max retries %d", code, n)
			assert.Empty(t, timer.waits())
		}
	}
}

func TestPolicy_ZeroRetriesDegrades(t *testing.T) {
	for _, mode := range []Mode{Exponential, Fixed, None} {
		t.Run(mode.String(), func(t *testing.T) {
			s := &stubTransport{respond: func(int) (*request.Response, error) { return responseWith(503), nil }}
			resp, err := send(t, Options{Mode: mode, Delay: time.Hour, MaxDelay: time.Hour}.ToPolicy(), s)
			require.NoError(t, err)
			assert.Equal(t, 503, resp.StatusCode)
			assert.Equal(t, 1, s.count())
		})
	}
	t.Run("NewPolicy", func(t *testing.T) {
		s := &stubTransport{respond: func(int) (*request.Response, error) { return nil, syscall.ECONNREFUSED }}
		_, err := send(t, NewPolicy(0, DefaultDecider, NewFixedWaiter(time.Hour, 0)), s)
		assert.Equal(t, syscall.ECONNREFUSED, err)
		assert.Equal(t, 1, s.count())
	})
}

func TestPolicy_FixedConstancy(t *testing.T) {
	for _, tc := range []struct{ delay, max, expected time.Duration }{
		{100 * time.Millisecond, time.Second, 100 * time.Millisecond},
		{3 * time.Second, time.Second, time.Second},
	} {
		s := &stubTransport{respond: func(int) (*request.Response, error) { return responseWith(503), nil }}
		timer := &fakeTimer{}
		_, err := send(t, policyFor(Options{Mode: Fixed, Delay: tc.delay, MaxRetries: 8, MaxDelay: tc.max}, timer), s)
		require.NoError(t, err)
		waits := timer.waits()
		require.Len(t, waits, 8)
		for k, w := range waits {
			assert.Equal(t, tc.expected, w, "wait before attempt %d", k+1)
		}
	}
}

func TestPolicy_RetrySequences(t *testing.T) {
	t.Run("fixed retries exhausted on 503", func(t *testing.T) {
		s := &stubTransport{respond: func(int) (*request.Response, error) { return responseWith(503), nil }}
		timer := &fakeTimer{}
		p := policyFor(Options{Mode: Fixed, Delay: 100 * time.Millisecond, MaxRetries: 2, MaxDelay: time.Second}, timer)

		resp, err := send(t, p, s)

		require.NoError(t, err)
		assert.Equal(t, 503, resp.StatusCode)
		assert.Same(t, s.last(), resp)
		assert.Equal(t, 3, s.count())
		assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, timer.waits())
	})
	t.Run("exponential retries exhausted on timeout", func(t *testing.T) {
		timeoutErr := &url.Error{Op: "Get", URL: "https://example.com", Err: context.DeadlineExceeded}
		s := &stubTransport{respond: func(int) (*request.Response, error) { return nil, timeoutErr }}
		timer := &fakeTimer{}
		p := policyFor(Options{Mode: Exponential, Delay: 50 * time.Millisecond, MaxRetries: 3, MaxDelay: 200 * time.Millisecond, Jitter: 0.2}, timer)

		resp, err := send(t, p, s)

		assert.Nil(t, resp)
		assert.Same(t, timeoutErr, err)
		assert.Equal(t, 4, s.count())
		waits := timer.waits()
		require.Len(t, waits, 3)
		assert.InDelta(t, 50*time.Millisecond, waits[0], float64(10*time.Millisecond))
		assert.InDelta(t, 100*time.Millisecond, waits[1], float64(20*time.Millisecond))
		assert.InDelta(t, 200*time.Millisecond, waits[2], float64(40*time.Millisecond))
		assert.LessOrEqual(t, waits[2], 200*time.Millisecond)

		attempts := s.attempts()
		for i, a := range attempts {
			assert.Equal(t, i, a.Index)
			assert.Equal(t, i, a.Timeouts)
			assert.Equal(t, i > 0, a.LastTimedOut)
			assert.Equal(t, attempts[0].Start, a.Start)
		}
	})
	t.Run("no retry on 500", func(t *testing.T) {
		s := &stubTransport{respond: func(int) (*request.Response, error) { return responseWith(500), nil }}
		resp, err := send(t, Options{Mode: None}.ToPolicy(), s)
		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, 1, s.count())
	})
	t.Run("400 is not retried", func(t *testing.T) {
		s := &stubTransport{respond: func(int) (*request.Response, error) { return responseWith(400), nil }}
		timer := &fakeTimer{}
		resp, err := send(t, policyFor(Options{Mode: Exponential, Delay: time.Millisecond, MaxRetries: 5, MaxDelay: time.Second}, timer), s)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, 1, s.count())
	})
}

func TestPolicy_SuccessAfterRetries(t *testing.T) {
	s := &stubTransport{respond: func(i int) (*request.Response, error) {
		switch i {
		case 0:
			return nil, syscall.ECONNREFUSED
		case 1:
			return responseWith(429), nil
		default:
			return responseWith(200), nil
		}
	}}
	timer := &fakeTimer{}
	resp, err := send(t, policyFor(Options{Mode: Fixed, Delay: time.Millisecond, MaxRetries: 5}, timer), s)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []int{0, 1, 2}, s.indices())
	assert.Len(t, timer.waits(), 2)
}

func TestPolicy_Ineligible(t *testing.T) {
	t.Run("marked error", func(t *testing.T) {
		ineligible := transient.Ineligible(syscall.ECONNRESET)
		s := &stubTransport{respond: func(int) (*request.Response, error) { return nil, ineligible }}
		_, err := send(t, policyFor(Options{Mode: Fixed, MaxRetries: 3}, &fakeTimer{}), s)
		assert.Same(t, ineligible, err)
		assert.Equal(t, 1, s.count())
	})
	t.Run("consumed body stream", func(t *testing.T) {
		req, err := request.NewRequest("PUT", "https://example.com", nil)
		require.NoError(t, err)
		require.NoError(t, req.SetBodyStream(io.MultiReader(strings.NewReader("payload")), 7))
		s := &stubTransport{
			consume: true,
			respond: func(int) (*request.Response, error) { return nil, syscall.ECONNRESET },
		}
		p := policyFor(Options{Mode: Fixed, MaxRetries: 3}, &fakeTimer{})
		_, err = p.Process(context.Background(), req, []policy.Policy{s})
		assert.Equal(t, syscall.ECONNRESET, err)
		assert.Equal(t, 1, s.count())
		assert.Equal(t, []string{"payload"}, s.bodies())
	})
	t.Run("seekable body stream", func(t *testing.T) {
		req, err := request.NewRequest("PUT", "https://example.com", nil)
		require.NoError(t, err)
		require.NoError(t, req.SetBodyStream(bytes.NewReader([]byte("payload")), 7))
		s := &stubTransport{
			consume: true,
			respond: func(int) (*request.Response, error) { return responseWith(503), nil },
		}
		p := policyFor(Options{Mode: Fixed, MaxRetries: 2}, &fakeTimer{})
		resp, err := p.Process(context.Background(), req, []policy.Policy{s})
		require.NoError(t, err)
		assert.Equal(t, 503, resp.StatusCode)
		assert.Equal(t, []string{"payload", "payload", "payload"}, s.bodies())
	})
}

func TestPolicy_Cancellation(t *testing.T) {
	t.Run("during wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		timer := &fakeTimer{block: true, onAfter: cancel}
		s := &stubTransport{respond: func(int) (*request.Response, error) { return responseWith(503), nil }}
		p := policyFor(Options{Mode: Fixed, Delay: time.Hour, MaxRetries: 3}, timer)

		resp, err := p.Process(ctx, newRequest(t), []policy.Policy{s})

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, s.count())
	})
	t.Run("during attempt", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := &stubTransport{respond: func(int) (*request.Response, error) {
			cancel()
			return responseWith(503), nil
		}}
		timer := &fakeTimer{}
		resp, err := policyFor(Options{Mode: Fixed, MaxRetries: 3}, timer).Process(ctx, newRequest(t), []policy.Policy{s})
		require.NoError(t, err)
		assert.Equal(t, 503, resp.StatusCode)
		assert.Equal(t, 1, s.count())
		assert.Empty(t, timer.waits())
	})
	t.Run("real timer", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		s := &stubTransport{respond: func(int) (*request.Response, error) { return responseWith(503), nil }}
		start := time.Now()
		_, err := NewFixed(time.Hour, 3, 0).Process(ctx, newRequest(t), []policy.Policy{s})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Minute)
		assert.Equal(t, 1, s.count())
	})
}

func TestPolicy_Concurrent(t *testing.T) {
	timer := &fakeTimer{}
	p := policyFor(Options{Mode: Exponential, Delay: time.Millisecond, MaxRetries: 2, MaxDelay: time.Second, Jitter: 0.5}, timer)
	var g errgroup.Group
	stubs := make([]*stubTransport, 50)
	for i := range stubs {
		stubs[i] = &stubTransport{respond: func(int) (*request.Response, error) { return responseWith(502), nil }}
		g.Go(func() error {
			req, err := request.NewRequest("GET", "https://example.com", nil)
			if err != nil {
				return err
			}
			_, err = p.Process(context.Background(), req, []policy.Policy{stubs[i]})
			return err
		})
	}
	require.NoError(t, g.Wait())
	for i, s := range stubs {
		assert.Equal(t, []int{0, 1, 2}, s.indices(), "goroutine %d", i)
	}
	assert.Len(t, timer.waits(), 100)
}

func TestPolicy_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ctx := logger.WithContext(context.Background())
	s := &stubTransport{respond: func(int) (*request.Response, error) { return responseWith(503), nil }}
	_, err := policyFor(Options{Mode: Fixed, Delay: time.Millisecond, MaxRetries: 2}, &fakeTimer{}).Process(ctx, newRequest(t), []policy.Policy{s})
	require.NoError(t, err)
	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, `"message":"retrying"`))
	assert.Equal(t, 1, strings.Count(out, `"message":"retries exhausted"`))
	assert.Contains(t, out, `"status":503`)
}

func policyFor(o Options, timer *fakeTimer) policy.Policy {
	p := o.ToPolicy()
	if rp, ok := p.(*Policy); ok {
		rp.timer = timer
	}
	return p
}

func send(t *testing.T, p policy.Policy, s *stubTransport) (*request.Response, error) {
	return p.Process(context.Background(), newRequest(t), []policy.Policy{s})
}

func newRequest(t *testing.T) *request.Request {
	req, err := request.NewRequest("GET", "https://example.com", nil)
	require.NoError(t, err)
	return req
}

func responseWith(code int) *request.Response {
	return &request.Response{StatusCode: code}
}

type stubTransport struct {
	respond func(i int) (*request.Response, error)
	consume bool

	mu    sync.Mutex
	calls []request.Attempt
	resps []*request.Response
	body  []string
}

func (s *stubTransport) Process(ctx context.Context, req *request.Request, _ []policy.Policy) (*request.Response, error) {
	a, _ := request.AttemptFrom(ctx)
	if s.consume {
		b, _ := io.ReadAll(req.ToRequest(ctx).Body)
		s.mu.Lock()
		s.body = append(s.body, string(b))
		s.mu.Unlock()
	}
	s.mu.Lock()
	i := len(s.calls)
	s.calls = append(s.calls, a)
	s.mu.Unlock()
	resp, err := s.respond(i)
	s.mu.Lock()
	s.resps = append(s.resps, resp)
	s.mu.Unlock()
	return resp, err
}

func (s *stubTransport) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubTransport) attempts() []request.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]request.Attempt(nil), s.calls...)
}

func (s *stubTransport) indices() []int {
	var indices []int
	for _, a := range s.attempts() {
		indices = append(indices, a.Index)
	}
	return indices
}

func (s *stubTransport) last() *request.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resps[len(s.resps)-1]
}

func (s *stubTransport) bodies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.body...)
}

type fakeTimer struct {
	block   bool
	onAfter func()

	mu sync.Mutex
	d  []time.Duration
}

func (f *fakeTimer) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.d = append(f.d, d)
	f.mu.Unlock()
	if f.onAfter != nil {
		f.onAfter()
	}
	ch := make(chan time.Time, 1)
	if !f.block {
		ch <- time.Now()
	}
	return ch
}

func (f *fakeTimer) waits() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.d...)
}
