// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package fitbit

import (
	"errors"
	"fmt"
)

// AuthError means the credential was rejected and retrying will not help.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("fitbit auth error: %s", e.Body)
	}
	return fmt.Sprintf("fitbit auth error: status %d: %s", e.StatusCode, e.Body)
}

// RequestError is a non-200, non-429 response to a data request.
type RequestError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("fitbit request %s failed: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// NetworkError wraps a transport-level failure. Callers may retry.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fitbit %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a NetworkError.
func IsTransient(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsAuth reports whether err is an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
