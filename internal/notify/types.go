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

// Package notify defines the notification pipeline's message types: the
// intents the enricher derives from guest mutations and the envelopes the
// delivery worker consumes, retries, and dead-letters.
package notify

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
)

// JetStream streams and subjects for the notification pipeline.
const (
	StreamNotify     = "RSVP_NOTIFY"
	StreamDeadLetter = "RSVP_NOTIFY_DLQ"
	StreamMutations  = "RSVP_MUTATIONS"

	SubjectSend       = "rsvp.notify.send"
	SubjectFeedback   = "rsvp.notify.feedback"
	SubjectDeadLetter = "rsvp.notify.dlq"
)

// Notification templates.
const (
	TemplateConfirmation = "confirmation"
	TemplateUpdate       = "update"
)

// Recipient is who a notification goes to.
type Recipient struct {
	// Address is the recipient's email address.
	Address string `json:"address"`
	// Name is the recipient's display name.
	Name string `json:"name,omitempty"`
}

// Intent is one planned notification for one recipient, derived from a
// guest mutation.
type Intent struct {
	// ID is a ULID assigned at enrichment time.
	ID string `json:"id"`
	// Template is confirmation or update.
	Template string `json:"template"`
	// Recipient is who the notification goes to.
	Recipient Recipient `json:"recipient"`
	// Context carries the template variables (name, status, confirmation
	// code, party size).
	Context map[string]string `json:"context,omitempty"`
	// CorrelationKey ties the intent back to the guest record that caused
	// it.
	CorrelationKey string `json:"correlation_key,omitempty"`
	// SourceEventID is the wedding event the guest belongs to.
	SourceEventID string `json:"source_event_id,omitempty"`
}

// Envelope is the unit of work on the send queue. Retries republish the
// envelope with only the failed intents, a bumped RetryCount, and a
// NotBefore gate.
type Envelope struct {
	// ID is a ULID assigned when the envelope is first queued.
	ID string `json:"id"`
	// Template is confirmation or update; all intents share it.
	Template string `json:"template"`
	// Intents are the per-recipient deliveries in this envelope.
	Intents []Intent `json:"intents"`
	// RetryCount is how many delivery attempts preceded this one.
	RetryCount int `json:"retry_count"`
	// NotBefore delays processing until the backoff window has passed.
	NotBefore time.Time `json:"not_before,omitempty"`
	// LastError is the most recent transient failure, for operators.
	LastError string `json:"last_error,omitempty"`
}

// DeadLetter wraps an envelope that exhausted its retries.
type DeadLetter struct {
	// Envelope is the final failing state, retry subset included.
	Envelope Envelope `json:"envelope"`
	// Reason is the last delivery error.
	Reason string `json:"reason"`
	// DeadLetteredAt is when the envelope was abandoned.
	DeadLetteredAt time.Time `json:"dead_lettered_at"`
}

// Feedback kinds and bounce classifications, mirroring transactional email
// provider webhooks.
const (
	FeedbackKindBounce    = "bounce"
	FeedbackKindComplaint = "complaint"

	BouncePermanent    = "Permanent"
	BounceTransient    = "Transient"
	BounceUndetermined = "Undetermined"
)

// Feedback is one provider delivery report.
type Feedback struct {
	// Kind is bounce or complaint.
	Kind string `json:"kind"`
	// BounceType classifies bounces; empty for complaints.
	BounceType string `json:"bounce_type,omitempty"`
	// FeedbackID is the provider's identifier for the report.
	FeedbackID string `json:"feedback_id,omitempty"`
	// Recipients are the affected addresses.
	Recipients []string `json:"recipients"`
	// Timestamp is when the provider generated the report.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// SuppressionChecker reports whether an address is suppressed. Satisfied by
// store.SuppressionStore.
type SuppressionChecker interface {
	IsSuppressed(ctx context.Context, address string) (bool, error)
}

// Publisher publishes pipeline messages. Satisfied by messaging.Client.
type Publisher interface {
	Publish(
		ctx context.Context,
		subject string,
		data []byte,
		header nats.Header,
	) error
}
