// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies the outcome of an HTTP request attempt
// as transient (a retry has a fair prospect of success) or not.
//
// Categorize classifies errors, Status classifies response status
// codes, and Ineligible marks an error as one that must never be
// retried regardless of how it would otherwise be classified.
//
// Package transient depends only on the standard library, so it brings
// no dependencies when imported as a standalone package.
package transient
