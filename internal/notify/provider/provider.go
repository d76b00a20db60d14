// Copyright (c) 2025 Jordan Hartwell

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

// Package provider sends rendered notifications through a transactional
// email API. Errors are classified transient or permanent so the delivery
// worker knows what to retry.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Message is one rendered email ready to send.
type Message struct {
	// To is the recipient address.
	To string
	// ToName is the recipient display name.
	ToName string
	// Subject is the rendered subject line.
	Subject string
	// HTMLBody is the rendered body.
	HTMLBody string
}

// Provider sends messages.
type Provider interface {
	// Send delivers one message. Returned errors are classified via
	// IsTransient.
	Send(ctx context.Context, msg Message) error
}

// transientError marks failures worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps an error as retryable.
func Transient(
	err error,
) error {
	return &transientError{err: err}
}

// Transientf builds a retryable error.
func Transientf(
	format string,
	args ...any,
) error {
	return &transientError{err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether an error is worth retrying.
func IsTransient(
	err error,
) bool {
	var te *transientError
	return errors.As(err, &te)
}
