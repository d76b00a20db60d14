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

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/hartwell/rsvpd/internal/telemetry"
)

// GuestStore persists guest records and feeds every change to the mutation
// stream. The stream is what downstream notification processing consumes, so
// writes that land in KV but fail to publish are logged loudly.
type GuestStore struct {
	kv        KV
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewGuestStore creates a new GuestStore.
func NewGuestStore(
	logger *slog.Logger,
	kv KV,
	publisher Publisher,
) *GuestStore {
	return &GuestStore{
		kv:        kv,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Put stores a guest record, maintains the invitation code index, and
// publishes a create or update mutation carrying the before and after
// images.
func (s *GuestStore) Put(
	ctx context.Context,
	guest *Guest,
) error {
	key := GuestKey(guest.EventID, guest.Email)

	before, err := s.getByKey(ctx, key)
	if err != nil && !errors.Is(err, ErrGuestNotFound) {
		return err
	}

	now := s.now().UTC()
	if before == nil {
		guest.CreatedAt = now
	} else {
		guest.CreatedAt = before.CreatedAt
	}
	guest.UpdatedAt = now

	data, err := json.Marshal(guest)
	if err != nil {
		return fmt.Errorf("marshal guest record: %w", err)
	}

	if _, err := s.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put guest record: %w", err)
	}

	if guest.InvitationCode != "" {
		if _, err := s.kv.Put(ctx, codeKey(guest.EventID, guest.InvitationCode), []byte(key)); err != nil {
			return fmt.Errorf("put invitation code index: %w", err)
		}
	}

	op := OpUpdate
	if before == nil {
		op = OpCreate
	}

	s.publishMutation(ctx, MutationEvent{
		Op:        op,
		Key:       key,
		EventID:   guest.EventID,
		Before:    before,
		After:     guest,
		Timestamp: now,
	})

	return nil
}

// Get retrieves a guest record by event and email.
func (s *GuestStore) Get(
	ctx context.Context,
	eventID string,
	email string,
) (*Guest, error) {
	return s.getByKey(ctx, GuestKey(eventID, email))
}

// List retrieves all guest records for an event.
func (s *GuestStore) List(
	ctx context.Context,
	eventID string,
) ([]Guest, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []Guest{}, nil
		}
		return nil, fmt.Errorf("list guest keys: %w", err)
	}

	prefix := "guest." + sanitizeKeyPart(eventID) + "."

	guests := make([]Guest, 0, len(keys))
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		guest, err := s.getByKey(ctx, key)
		if err != nil {
			s.logger.Warn(
				"failed to load guest record",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}

		guests = append(guests, *guest)
	}

	return guests, nil
}

// Delete removes a guest record, its code index entry, and publishes a
// delete mutation. Deleting an absent record returns ErrGuestNotFound.
func (s *GuestStore) Delete(
	ctx context.Context,
	eventID string,
	email string,
) error {
	key := GuestKey(eventID, email)

	before, err := s.getByKey(ctx, key)
	if err != nil {
		return err
	}

	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete guest record: %w", err)
	}

	if before.InvitationCode != "" {
		if err := s.kv.Delete(ctx, codeKey(eventID, before.InvitationCode)); err != nil {
			s.logger.Warn(
				"failed to delete invitation code index",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	s.publishMutation(ctx, MutationEvent{
		Op:        OpDelete,
		Key:       key,
		EventID:   eventID,
		Before:    before,
		Timestamp: s.now().UTC(),
	})

	return nil
}

// FindByInvitationCode resolves an invitation code to its guest record via
// the code index.
func (s *GuestStore) FindByInvitationCode(
	ctx context.Context,
	eventID string,
	code string,
) (*Guest, error) {
	kve, err := s.kv.Get(ctx, codeKey(eventID, code))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrInvitationCodeNotFound
		}
		return nil, fmt.Errorf("get invitation code index: %w", err)
	}

	guest, err := s.getByKey(ctx, string(kve.Value()))
	if err != nil {
		if errors.Is(err, ErrGuestNotFound) {
			// index points at a removed record
			return nil, ErrInvitationCodeNotFound
		}
		return nil, err
	}

	return guest, nil
}

// MarkEmailInvalid flags the guest matching an address as undeliverable,
// across all events that know the address. Used by feedback processing.
func (s *GuestStore) MarkEmailInvalid(
	ctx context.Context,
	address string,
) error {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}
		return fmt.Errorf("list guest keys: %w", err)
	}

	suffix := "." + sanitizeKeyPart(address)

	for _, key := range keys {
		if !strings.HasPrefix(key, "guest.") || !strings.HasSuffix(key, suffix) {
			continue
		}

		guest, err := s.getByKey(ctx, key)
		if err != nil {
			s.logger.Warn(
				"failed to load guest record",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}

		if guest.EmailInvalid {
			continue
		}

		guest.EmailInvalid = true
		if err := s.Put(ctx, guest); err != nil {
			return err
		}
	}

	return nil
}

// getByKey loads and decodes one guest record.
func (s *GuestStore) getByKey(
	ctx context.Context,
	key string,
) (*Guest, error) {
	kve, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, fmt.Errorf("get guest record: %w", err)
	}

	var guest Guest
	if err := json.Unmarshal(kve.Value(), &guest); err != nil {
		return nil, fmt.Errorf("unmarshal guest record: %w", err)
	}

	return &guest, nil
}

// publishMutation emits one change feed message with trace context headers.
// The KV write already succeeded, so feed failures are logged rather than
// failing the caller.
func (s *GuestStore) publishMutation(
	ctx context.Context,
	event MutationEvent,
) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn(
			"failed to marshal guest mutation",
			slog.String("key", event.Key),
			slog.String("error", err.Error()),
		)
		return
	}

	header := nats.Header{}
	telemetry.InjectTraceContextToHeader(ctx, http.Header(header))

	if err := s.publisher.Publish(ctx, SubjectGuestMutations, data, header); err != nil {
		s.logger.Warn(
			"failed to publish guest mutation",
			slog.String("key", event.Key),
			slog.String("op", event.Op),
			slog.String("error", err.Error()),
		)
	}
}
