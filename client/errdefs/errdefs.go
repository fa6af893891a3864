// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errdefs defines the kinds of error returned by split and combine.
//
// Every error returned by the client packages wraps exactly one of the
// sentinels below, so callers can tell them apart with errors.Is.
package errdefs

import (
	"errors"
	"fmt"
)

var (
	// ErrPolicy means the threshold or share count is out of bounds.
	ErrPolicy = errors.New("invalid sharing policy")
	// ErrMalformedShare means a share has bad hex, the wrong length, or an invalid or repeated index.
	ErrMalformedShare = errors.New("malformed share")
	// ErrMalformedBlob means the encrypted blob record is structurally invalid.
	ErrMalformedBlob = errors.New("malformed blob")
	// ErrInsufficientShares means fewer than MinShares shares were supplied.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrAuthentication means the blob failed tag verification: it was tampered
	// with, or the session key was reconstructed from the wrong shares.
	ErrAuthentication = errors.New("authentication failed")
)

// MinShares is the fixed minimum number of shares accepted by combine,
// regardless of the threshold used at split time.
const MinShares = 2

// Policy returns an error of kind ErrPolicy.
func Policy(format string, args ...any) error {
	return wrap(ErrPolicy, format, args...)
}

// MalformedShare returns an error of kind ErrMalformedShare.
func MalformedShare(format string, args ...any) error {
	return wrap(ErrMalformedShare, format, args...)
}

// MalformedBlob returns an error of kind ErrMalformedBlob.
func MalformedBlob(format string, args ...any) error {
	return wrap(ErrMalformedBlob, format, args...)
}

// InsufficientShares returns an error of kind ErrInsufficientShares.
func InsufficientShares(got int) error {
	return wrap(ErrInsufficientShares, "need at least %d shares, got %d", MinShares, got)
}

// Authentication returns an error of kind ErrAuthentication.
func Authentication(format string, args ...any) error {
	return wrap(ErrAuthentication, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Kind returns the sentinel wrapped by err, or nil if err is not one of ours.
func Kind(err error) error {
	for _, kind := range []error{ErrPolicy, ErrMalformedShare, ErrMalformedBlob, ErrInsufficientShares, ErrAuthentication} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
