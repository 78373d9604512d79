// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import "errors"

// Ineligible wraps err to mark it as retry-ineligible. A retry policy
// which sees an ineligible error stops immediately, even if the cause
// would otherwise be transient. A nil err yields nil.
//
// Use Ineligible from a policy or transport when retrying would be
// unsafe, for example because the request body has been consumed.
func Ineligible(err error) error {
	if err == nil {
		return nil
	}
	if IsIneligible(err) {
		return err
	}
	return &ineligibleError{err}
}

// IsIneligible reports whether err, or any error it wraps, was marked
// with Ineligible.
func IsIneligible(err error) bool {
	var ie *ineligibleError
	return errors.As(err, &ie)
}

type ineligibleError struct {
	err error
}

func (e *ineligibleError) Error() string {
	return e.err.Error()
}

func (e *ineligibleError) Unwrap() error {
	return e.err
}
