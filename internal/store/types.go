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

// Package store persists guest records and email suppressions in NATS KV
// buckets, and publishes guest mutations to the change feed.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// SubjectGuestMutations is the change feed subject for guest records.
const SubjectGuestMutations = "rsvp.mutations.guest"

// Sentinel errors.
var (
	// ErrGuestNotFound is returned when no guest record exists for a key.
	ErrGuestNotFound = errors.New("guest not found")
	// ErrInvitationCodeNotFound is returned when an invitation code does
	// not resolve to a guest.
	ErrInvitationCodeNotFound = errors.New("invitation code not found")
	// ErrNotSuppressed is returned when no suppression entry exists for an
	// address.
	ErrNotSuppressed = errors.New("address not suppressed")
	// ErrPartySizeMismatch is returned when a guest submission's attendee
	// list does not match the declared party size.
	ErrPartySizeMismatch = errors.New("attendees must equal plus_ones plus one")
)

// RSVPStatus values.
const (
	StatusPending   = "pending"
	StatusAttending = "attending"
	StatusDeclined  = "declined"
)

// Guest is one invited party member's record.
type Guest struct {
	// EventID is the wedding event the guest belongs to.
	EventID string `json:"event_id" validate:"required"`
	// Email is the guest's address and the record's identity.
	Email string `json:"email" validate:"required,email"`
	// Name is the guest's display name.
	Name string `json:"name" validate:"required"`
	// GroupID ties members of the same party together.
	GroupID string `json:"group_id,omitempty"`
	// InvitationCode is the shared secret printed on the invitation.
	InvitationCode string `json:"invitation_code,omitempty"`
	// RSVPStatus is pending until the guest responds.
	RSVPStatus string `json:"rsvp_status" validate:"required,rsvp_status"`
	// PlusOnes is how many additional people the guest is bringing.
	PlusOnes int `json:"plus_ones" validate:"gte=0"`
	// Attendees lists everyone attending, the guest included.
	Attendees []string `json:"attendees,omitempty"`
	// DietaryNotes carries free-form dietary requirements.
	DietaryNotes string `json:"dietary_notes,omitempty"`
	// EmailInvalid mirrors a permanent suppression for this address.
	EmailInvalid bool `json:"email_invalid,omitempty"`
	// Confirmation is the code issued when the RSVP was accepted.
	Confirmation string `json:"confirmation,omitempty"`
	// CreatedAt is when the record was first stored.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the record was last stored.
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateParty checks the guest-facing attendee invariant: the attendee
// list covers the guest plus each declared plus-one. Only attending
// submissions carry the invariant.
func (g *Guest) ValidateParty() error {
	if g.RSVPStatus != StatusAttending {
		return nil
	}

	if len(g.Attendees) != g.PlusOnes+1 {
		return ErrPartySizeMismatch
	}

	return nil
}

// Mutation operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// MutationEvent describes one guest record change on the change feed. Before
// and After are nil for creates and deletes respectively.
type MutationEvent struct {
	// Op is create, update, or delete.
	Op string `json:"op"`
	// Key is the KV key of the record that changed.
	Key string `json:"key"`
	// EventID is the wedding event the record belongs to.
	EventID string `json:"event_id"`
	// Before is the record prior to the change.
	Before *Guest `json:"before,omitempty"`
	// After is the record after the change.
	After *Guest `json:"after,omitempty"`
	// Timestamp is when the change was stored.
	Timestamp time.Time `json:"timestamp"`
}

// Suppression reasons.
const (
	ReasonBouncedHard = "bounced-hard"
	ReasonComplained  = "complained"
)

// Entry records one suppressed email address.
type Entry struct {
	// Address is the suppressed email address.
	Address string `json:"address"`
	// Reason is bounced-hard or complained.
	Reason string `json:"reason"`
	// FeedbackID is the provider's identifier for the triggering report.
	FeedbackID string `json:"feedback_id,omitempty"`
	// Timestamp is when the suppression was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// KV is the subset of jetstream.KeyValue the stores need.
type KV interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error)
}

// Publisher publishes change feed messages. Satisfied by messaging.Client.
type Publisher interface {
	Publish(
		ctx context.Context,
		subject string,
		data []byte,
		header nats.Header,
	) error
}

// keyReplacer strips characters NATS KV keys cannot carry. Email addresses
// become stable, readable key fragments.
var keyReplacer = strings.NewReplacer(
	"@", "_at_",
	"+", "_",
	" ", "_",
)

// sanitizeKeyPart lowercases and rewrites a value so it is safe as a KV key
// token.
func sanitizeKeyPart(
	s string,
) string {
	s = keyReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= '0' && r <= '9',
			r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return b.String()
}

// GuestKey builds the KV key for a guest record.
func GuestKey(
	eventID string,
	email string,
) string {
	return "guest." + sanitizeKeyPart(eventID) + "." + sanitizeKeyPart(email)
}

// codeKey builds the KV key for the invitation code index.
func codeKey(
	eventID string,
	code string,
) string {
	return "code." + sanitizeKeyPart(eventID) + "." + sanitizeKeyPart(code)
}

// suppressionKey builds the KV key for a suppression entry.
func suppressionKey(
	address string,
) string {
	return sanitizeKeyPart(address)
}
