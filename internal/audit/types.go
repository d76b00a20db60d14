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

// Package audit provides the append-only security event log.
package audit

import (
	"context"
	"errors"
	"time"
)

// ErrEventNotFound indicates the requested security event does not exist.
var ErrEventNotFound = errors.New("security event not found")

// EventType classifies a security event.
type EventType string

// Known security event types.
const (
	EventLoginSuccess       EventType = "login_success"
	EventLoginFailure       EventType = "login_failure"
	EventInvalidToken       EventType = "invalid_token"
	EventExpiredToken       EventType = "expired_token"
	EventRateLimitExceeded  EventType = "rate_limit_exceeded"
	EventSuspiciousActivity EventType = "suspicious_activity"
	EventPermissionDenied   EventType = "permission_denied"
	EventBruteForceAttempt  EventType = "brute_force_attempt"
	EventDataAccess         EventType = "data_access"
	EventDataModification   EventType = "data_modification"
)

// Severity ranks how urgently an event needs human attention.
type Severity string

// Severity levels.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// severityFor maps event types to their severity. Types absent from the map
// default to info.
var severityFor = map[EventType]Severity{
	EventLoginFailure:       SeverityWarning,
	EventInvalidToken:       SeverityWarning,
	EventRateLimitExceeded:  SeverityWarning,
	EventPermissionDenied:   SeverityWarning,
	EventSuspiciousActivity: SeverityCritical,
	EventBruteForceAttempt:  SeverityCritical,
}

// SeverityOf returns the severity for an event type.
func SeverityOf(
	t EventType,
) Severity {
	if s, ok := severityFor[t]; ok {
		return s
	}

	return SeverityInfo
}

// Actor identifies who triggered an event, as far as is known.
type Actor struct {
	// Email of the authenticated subject, when available.
	Email string `json:"email,omitempty"`
	// SourceIP is the client's IP address.
	SourceIP string `json:"source_ip,omitempty"`
}

// Event is a single immutable security event record.
type Event struct {
	// ID is a ULID; lexicographic key order is chronological order.
	ID string `json:"id"`
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
	// Type classifies the event.
	Type EventType `json:"type"`
	// Severity derived from the type at record time.
	Severity Severity `json:"severity"`
	// Actor identifies who triggered the event.
	Actor Actor `json:"actor"`
	// Method is the HTTP method, when the event came from a request.
	Method string `json:"method,omitempty"`
	// Path is the request URL path, when the event came from a request.
	Path string `json:"path,omitempty"`
	// Details carries free-form context for review.
	Details map[string]string `json:"details,omitempty"`
}

// Store persists security events.
type Store interface {
	// Write persists one event.
	Write(ctx context.Context, event Event) error
	// Get retrieves a single event by ID.
	Get(ctx context.Context, id string) (*Event, error)
	// List retrieves events newest-first with pagination.
	List(ctx context.Context, limit int, offset int) ([]Event, int, error)
	// QuerySince retrieves events recorded at or after the given time.
	QuerySince(ctx context.Context, since time.Time) ([]Event, error)
}

// Alerter is a best-effort side channel for high-severity events.
type Alerter interface {
	// Alert notifies operators about one event.
	Alert(ctx context.Context, event Event) error
}
