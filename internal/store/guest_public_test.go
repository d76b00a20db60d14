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

package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/suite"

	"github.com/hartwell/rsvpd/internal/store"
)

type fakeKVEntry struct {
	key   string
	value []byte
}

func (e *fakeKVEntry) Bucket() string                  { return "test" }
func (e *fakeKVEntry) Key() string                     { return e.key }
func (e *fakeKVEntry) Value() []byte                   { return e.value }
func (e *fakeKVEntry) Revision() uint64                { return 1 }
func (e *fakeKVEntry) Created() time.Time              { return time.Time{} }
func (e *fakeKVEntry) Delta() uint64                   { return 0 }
func (e *fakeKVEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }

type fakeKV struct {
	entries map[string][]byte
	putErr  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{entries: map[string][]byte{}}
}

func (f *fakeKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	if f.putErr != nil {
		return 0, f.putErr
	}
	f.entries[key] = value
	return 1, nil
}

func (f *fakeKV) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	value, ok := f.entries[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return &fakeKVEntry{key: key, value: value}, nil
}

func (f *fakeKV) Delete(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	delete(f.entries, key)
	return nil
}

func (f *fakeKV) Keys(_ context.Context, _ ...jetstream.WatchOpt) ([]string, error) {
	if len(f.entries) == 0 {
		return nil, jetstream.ErrNoKeysFound
	}
	keys := make([]string, 0, len(f.entries))
	for key := range f.entries {
		keys = append(keys, key)
	}
	return keys, nil
}

type published struct {
	subject string
	data    []byte
	header  nats.Header
}

type fakePublisher struct {
	messages   []published
	publishErr error
}

func (f *fakePublisher) Publish(
	_ context.Context,
	subject string,
	data []byte,
	header nats.Header,
) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.messages = append(f.messages, published{subject: subject, data: data, header: header})
	return nil
}

func (f *fakePublisher) mutations(t *testing.T) []store.MutationEvent {
	t.Helper()
	events := make([]store.MutationEvent, 0, len(f.messages))
	for _, msg := range f.messages {
		var event store.MutationEvent
		if err := json.Unmarshal(msg.data, &event); err != nil {
			t.Fatalf("unmarshal mutation: %v", err)
		}
		events = append(events, event)
	}
	return events
}

type GuestStorePublicTestSuite struct {
	suite.Suite

	kv        *fakeKV
	publisher *fakePublisher
	guests    *store.GuestStore
	ctx       context.Context
}

func (s *GuestStorePublicTestSuite) SetupTest() {
	s.kv = newFakeKV()
	s.publisher = &fakePublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.guests = store.NewGuestStore(logger, s.kv, s.publisher)
	s.ctx = context.Background()
}

func (s *GuestStorePublicTestSuite) newGuest() *store.Guest {
	return &store.Guest{
		EventID:        "hartwell-2026",
		Email:          "alice@example.com",
		Name:           "Alice Example",
		GroupID:        "example-party",
		InvitationCode: "GARDEN-42",
		RSVPStatus:     store.StatusPending,
	}
}

func (s *GuestStorePublicTestSuite) TestPutCreatePublishesCreateMutation() {
	guest := s.newGuest()

	err := s.guests.Put(s.ctx, guest)

	s.Require().NoError(err)
	s.False(guest.CreatedAt.IsZero())

	events := s.publisher.mutations(s.T())
	s.Require().Len(events, 1)
	s.Equal(store.OpCreate, events[0].Op)
	s.Nil(events[0].Before)
	s.Require().NotNil(events[0].After)
	s.Equal("alice@example.com", events[0].After.Email)
	s.Equal(store.SubjectGuestMutations, s.publisher.messages[0].subject)
}

func (s *GuestStorePublicTestSuite) TestPutUpdatePublishesBeforeAndAfter() {
	guest := s.newGuest()
	s.Require().NoError(s.guests.Put(s.ctx, guest))

	updated := *guest
	updated.RSVPStatus = store.StatusAttending
	updated.PlusOnes = 1
	updated.Attendees = []string{"Alice Example", "Bob Example"}

	err := s.guests.Put(s.ctx, &updated)

	s.Require().NoError(err)

	events := s.publisher.mutations(s.T())
	s.Require().Len(events, 2)
	s.Equal(store.OpUpdate, events[1].Op)
	s.Require().NotNil(events[1].Before)
	s.Equal(store.StatusPending, events[1].Before.RSVPStatus)
	s.Require().NotNil(events[1].After)
	s.Equal(store.StatusAttending, events[1].After.RSVPStatus)
	s.Equal(guest.CreatedAt, events[1].After.CreatedAt)
}

func (s *GuestStorePublicTestSuite) TestPutPublishFailureDoesNotFailWrite() {
	s.publisher.publishErr = errors.New("stream unavailable")

	err := s.guests.Put(s.ctx, s.newGuest())

	s.Require().NoError(err)

	got, err := s.guests.Get(s.ctx, "hartwell-2026", "alice@example.com")
	s.Require().NoError(err)
	s.Equal("Alice Example", got.Name)
}

func (s *GuestStorePublicTestSuite) TestGetNotFound() {
	_, err := s.guests.Get(s.ctx, "hartwell-2026", "nobody@example.com")

	s.Require().ErrorIs(err, store.ErrGuestNotFound)
}

func (s *GuestStorePublicTestSuite) TestListFiltersByEvent() {
	guest := s.newGuest()
	s.Require().NoError(s.guests.Put(s.ctx, guest))

	other := s.newGuest()
	other.EventID = "other-2027"
	other.Email = "carol@example.com"
	other.InvitationCode = "OTHER-1"
	s.Require().NoError(s.guests.Put(s.ctx, other))

	guests, err := s.guests.List(s.ctx, "hartwell-2026")

	s.Require().NoError(err)
	s.Require().Len(guests, 1)
	s.Equal("alice@example.com", guests[0].Email)
}

func (s *GuestStorePublicTestSuite) TestDeletePublishesDeleteMutation() {
	guest := s.newGuest()
	s.Require().NoError(s.guests.Put(s.ctx, guest))

	err := s.guests.Delete(s.ctx, "hartwell-2026", "alice@example.com")

	s.Require().NoError(err)

	_, err = s.guests.Get(s.ctx, "hartwell-2026", "alice@example.com")
	s.Require().ErrorIs(err, store.ErrGuestNotFound)

	events := s.publisher.mutations(s.T())
	s.Require().Len(events, 2)
	s.Equal(store.OpDelete, events[1].Op)
	s.Require().NotNil(events[1].Before)
	s.Nil(events[1].After)
}

func (s *GuestStorePublicTestSuite) TestDeleteNotFound() {
	err := s.guests.Delete(s.ctx, "hartwell-2026", "nobody@example.com")

	s.Require().ErrorIs(err, store.ErrGuestNotFound)
}

func (s *GuestStorePublicTestSuite) TestFindByInvitationCode() {
	guest := s.newGuest()
	s.Require().NoError(s.guests.Put(s.ctx, guest))

	tests := []struct {
		name    string
		eventID string
		code    string
		wantErr error
	}{
		{
			name:    "resolves code",
			eventID: "hartwell-2026",
			code:    "GARDEN-42",
		},
		{
			name:    "code is case insensitive",
			eventID: "hartwell-2026",
			code:    "garden-42",
		},
		{
			name:    "unknown code",
			eventID: "hartwell-2026",
			code:    "MEADOW-7",
			wantErr: store.ErrInvitationCodeNotFound,
		},
		{
			name:    "wrong event",
			eventID: "other-2027",
			code:    "GARDEN-42",
			wantErr: store.ErrInvitationCodeNotFound,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			got, err := s.guests.FindByInvitationCode(s.ctx, tc.eventID, tc.code)

			if tc.wantErr != nil {
				s.Require().ErrorIs(err, tc.wantErr)
				return
			}

			s.Require().NoError(err)
			s.Equal("alice@example.com", got.Email)
		})
	}
}

func (s *GuestStorePublicTestSuite) TestFindByInvitationCodeStaleIndex() {
	guest := s.newGuest()
	s.Require().NoError(s.guests.Put(s.ctx, guest))

	// remove the record but leave the index behind
	delete(s.kv.entries, store.GuestKey("hartwell-2026", "alice@example.com"))

	_, err := s.guests.FindByInvitationCode(s.ctx, "hartwell-2026", "GARDEN-42")

	s.Require().ErrorIs(err, store.ErrInvitationCodeNotFound)
}

func (s *GuestStorePublicTestSuite) TestMarkEmailInvalid() {
	guest := s.newGuest()
	s.Require().NoError(s.guests.Put(s.ctx, guest))

	err := s.guests.MarkEmailInvalid(s.ctx, "alice@example.com")

	s.Require().NoError(err)

	got, err := s.guests.Get(s.ctx, "hartwell-2026", "alice@example.com")
	s.Require().NoError(err)
	s.True(got.EmailInvalid)
}

func (s *GuestStorePublicTestSuite) TestValidateParty() {
	tests := []struct {
		name      string
		status    string
		plusOnes  int
		attendees []string
		wantErr   error
	}{
		{
			name:      "attending with matching party",
			status:    store.StatusAttending,
			plusOnes:  1,
			attendees: []string{"Alice", "Bob"},
		},
		{
			name:      "attending with missing attendee",
			status:    store.StatusAttending,
			plusOnes:  2,
			attendees: []string{"Alice", "Bob"},
			wantErr:   store.ErrPartySizeMismatch,
		},
		{
			name:   "declined skips the check",
			status: store.StatusDeclined,
		},
		{
			name:   "pending skips the check",
			status: store.StatusPending,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			guest := &store.Guest{
				RSVPStatus: tc.status,
				PlusOnes:   tc.plusOnes,
				Attendees:  tc.attendees,
			}

			err := guest.ValidateParty()

			if tc.wantErr != nil {
				s.Require().ErrorIs(err, tc.wantErr)
				return
			}
			s.Require().NoError(err)
		})
	}
}

func TestGuestStorePublicTestSuite(t *testing.T) {
	suite.Run(t, new(GuestStorePublicTestSuite))
}
