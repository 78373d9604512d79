// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	assert.Equal(t, Not, Categorize(nil))
	assert.Equal(t, Not, Categorize(errors.New("foo")))
	assert.Equal(t, Not, Categorize(wrapper{}))
	assert.Equal(t, Not, Categorize(wrapper{errors.New("bar")}))
	assert.Equal(t, Not, Categorize(context.Canceled))
	assert.Equal(t, Not, Categorize(&url.Error{Op: "Get", Err: context.Canceled}))
	assert.Equal(t, Timeout, Categorize(syscall.ETIMEDOUT))
	assert.Equal(t, Timeout, Categorize(timeout{}))
	assert.Equal(t, Timeout, Categorize(context.DeadlineExceeded))
	assert.Equal(t, Timeout, Categorize(fmt.Errorf("attempt: %w", context.DeadlineExceeded)))
	assert.Equal(t, Timeout, Categorize(&url.Error{Err: syscall.ETIMEDOUT}))
	assert.Equal(t, Timeout, Categorize(wrapper{wrapper{timeout{}}}))
	assert.Equal(t, Timeout, Categorize(timeoutWrapper{true, syscall.ECONNRESET}))
	assert.Equal(t, ConnReset, Categorize(syscall.ECONNRESET))
	assert.Equal(t, ConnReset, Categorize(timeoutWrapper{false, syscall.ECONNRESET}))
	assert.Equal(t, ConnRefused, Categorize(syscall.ECONNREFUSED))
	assert.Equal(t, ConnRefused, Categorize(&url.Error{Err: wrapper{timeoutWrapper{false, syscall.ECONNREFUSED}}}))
	assert.Equal(t, ConnAborted, Categorize(syscall.ECONNABORTED))
	assert.Equal(t, ConnAborted, Categorize(&url.Error{Op: "Post", Err: io.ErrUnexpectedEOF}))
	assert.Equal(t, ConnAborted, Categorize(wrapper{io.EOF}))
}

func TestStatus(t *testing.T) {
	testCases := []struct {
		code     int
		expected Category
	}{
		{0, Not},
		{200, Not},
		{304, Not},
		{400, Not},
		{401, Not},
		{404, Not},
		{408, ServerError},
		{409, Not},
		{429, Throttled},
		{500, ServerError},
		{501, ServerError},
		{503, ServerError},
		{599, ServerError},
		{600, Not},
	}
	for _, testCase := range testCases {
		t.Run(fmt.Sprint(testCase.code), func(t *testing.T) {
			assert.Equal(t, testCase.expected, Status(testCase.code))
		})
	}
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "Not", Not.String())
	assert.Equal(t, "ConnAborted", ConnAborted.String())
	assert.Equal(t, "ServerError", ServerError.String())
	assert.Equal(t, "Category(?)", Category(-1).String())
	assert.Equal(t, "Category(?)", Category(99).String())
}

func TestIneligible(t *testing.T) {
	assert.NoError(t, Ineligible(nil))
	assert.False(t, IsIneligible(nil))
	assert.False(t, IsIneligible(syscall.ECONNRESET))

	err := Ineligible(syscall.ECONNRESET)
	assert.True(t, IsIneligible(err))
	assert.True(t, IsIneligible(&url.Error{Op: "Put", Err: err}))
	assert.ErrorIs(t, err, syscall.ECONNRESET)
	assert.Equal(t, syscall.ECONNRESET.Error(), err.Error())
	assert.Equal(t, ConnReset, Categorize(err))
	assert.Same(t, err, Ineligible(err))
}

type timeout struct{}

func (err timeout) Error() string {
	return "timeout"
}

func (timeout) Timeout() bool {
	return true
}

type wrapper struct {
	wrappedError error
}

func (err wrapper) Error() string {
	return fmt.Sprintf("wrapper - wraps %v", err.wrappedError)
}

func (err wrapper) Unwrap() error {
	return err.wrappedError
}

type timeoutWrapper struct {
	timeout      bool
	wrappedError error
}

func (err timeoutWrapper) Error() string {
	return fmt.Sprintf("timeoutWrapper - timeout %t, wraps %v", err.timeout, err.wrappedError)
}

func (err timeoutWrapper) Timeout() bool {
	return err.timeout
}

func (err timeoutWrapper) Unwrap() error {
	return err.wrappedError
}
