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

// Package throttle provides a sliding-window attempt counter with temporary
// lockout, used to slow brute-force attempts against credential-accepting
// handlers. Counters are process-local: under a multi-instance deployment
// throttling is best-effort attacker friction, not exact accounting.
package throttle

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Options configures a Limiter.
type Options struct {
	// Window is the sliding window within which failures are counted.
	Window time.Duration
	// MaxFailures within the window before lockout.
	MaxFailures int
	// Lockout is how long a key stays locked once the threshold is reached.
	Lockout time.Duration
}

// counter tracks failures for a single key.
type counter struct {
	failures    []time.Time
	lockedUntil time.Time
}

// Limiter is a sliding-window failure counter with lockout.
// Safe for concurrent use.
type Limiter struct {
	logger *slog.Logger
	opts   Options

	mu       sync.Mutex
	counters map[string]*counter

	// now is swappable in tests.
	now func() time.Time
}

// New creates a Limiter with the given options.
func New(
	logger *slog.Logger,
	opts Options,
) *Limiter {
	return &Limiter{
		logger:   logger,
		opts:     opts,
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// Key builds a throttle key from an operation, subject, and client address.
func Key(
	operation string,
	subject string,
	clientIP string,
) string {
	return fmt.Sprintf("%s:%s:%s", operation, subject, clientIP)
}

// IsLockedOut reports whether the key is currently locked out. A lockout
// that has elapsed resets the counter so legitimate retries start clean.
func (l *Limiter) IsLockedOut(
	key string,
) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[key]
	if !ok {
		return false
	}

	now := l.now()
	if c.lockedUntil.After(now) {
		return true
	}

	if !c.lockedUntil.IsZero() {
		// Lockout elapsed; reset.
		delete(l.counters, key)
		return false
	}

	l.prune(c, now)
	if len(c.failures) == 0 {
		delete(l.counters, key)
	}

	return false
}

// RecordFailure counts one failed attempt for the key. It returns whether
// the key is now locked and how many attempts remain before lockout.
func (l *Limiter) RecordFailure(
	key string,
) (locked bool, remaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	c, ok := l.counters[key]
	if !ok {
		c = &counter{}
		l.counters[key] = c
	}

	if c.lockedUntil.After(now) {
		return true, 0
	}

	l.prune(c, now)
	c.failures = append(c.failures, now)

	if len(c.failures) >= l.opts.MaxFailures {
		c.lockedUntil = now.Add(l.opts.Lockout)
		l.logger.Warn(
			"throttle lockout",
			slog.String("key", key),
			slog.Time("until", c.lockedUntil),
		)
		return true, 0
	}

	return false, l.opts.MaxFailures - len(c.failures)
}

// Clear removes the counter for a key. Callers must clear after a verified
// success so legitimate subsequent attempts are not penalized.
func (l *Limiter) Clear(
	key string,
) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.counters, key)
}

// Sweep evicts counters whose window and lockout have both expired.
// Run periodically so abandoned keys do not accumulate.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, c := range l.counters {
		if c.lockedUntil.After(now) {
			continue
		}
		l.prune(c, now)
		if len(c.failures) == 0 {
			delete(l.counters, key)
		}
	}
}

// prune drops failures older than the window. Caller holds the lock.
func (l *Limiter) prune(
	c *counter,
	now time.Time,
) {
	cutoff := now.Add(-l.opts.Window)
	kept := c.failures[:0]
	for _, t := range c.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.failures = kept
}
