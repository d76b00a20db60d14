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

package enricher_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/suite"

	"github.com/hartwell/rsvpd/internal/notify"
	"github.com/hartwell/rsvpd/internal/notify/enricher"
	"github.com/hartwell/rsvpd/internal/store"
)

type fakeSuppressions struct {
	suppressed map[string]bool
	checkErr   error
}

func (f *fakeSuppressions) IsSuppressed(
	_ context.Context,
	address string,
) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.suppressed[address], nil
}

type fakePublisher struct {
	envelopes  []notify.Envelope
	publishErr error
}

func (f *fakePublisher) Publish(
	_ context.Context,
	subject string,
	data []byte,
	_ nats.Header,
) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	if subject != notify.SubjectSend {
		return errors.New("unexpected subject " + subject)
	}
	var env notify.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	f.envelopes = append(f.envelopes, env)
	return nil
}

type EnricherPublicTestSuite struct {
	suite.Suite

	suppressions *fakeSuppressions
	publisher    *fakePublisher
	enricher     *enricher.Enricher
	ctx          context.Context
}

func (s *EnricherPublicTestSuite) SetupTest() {
	s.suppressions = &fakeSuppressions{suppressed: map[string]bool{}}
	s.publisher = &fakePublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.enricher = enricher.New(logger, s.suppressions, s.publisher)
	s.ctx = context.Background()
}

func (s *EnricherPublicTestSuite) guest(
	status string,
) *store.Guest {
	return &store.Guest{
		EventID:      "hartwell-2026",
		Email:        "alice@example.com",
		Name:         "Alice Example",
		RSVPStatus:   status,
		PlusOnes:     1,
		Confirmation: "CONF-9",
	}
}

func (s *EnricherPublicTestSuite) mutation(
	op string,
	before *store.Guest,
	after *store.Guest,
) []byte {
	data, err := json.Marshal(store.MutationEvent{
		Op:      op,
		Key:     "guest.hartwell-2026.alice_at_example_com",
		EventID: "hartwell-2026",
		Before:  before,
		After:   after,
	})
	s.Require().NoError(err)
	return data
}

func (s *EnricherPublicTestSuite) TestCreateProducesConfirmation() {
	err := s.enricher.HandleMutation(s.ctx, s.mutation(store.OpCreate, nil, s.guest(store.StatusPending)))

	s.Require().NoError(err)
	s.Require().Len(s.publisher.envelopes, 1)

	env := s.publisher.envelopes[0]
	s.Equal(notify.TemplateConfirmation, env.Template)
	s.Zero(env.RetryCount)
	s.Require().Len(env.Intents, 1)
	s.Equal("alice@example.com", env.Intents[0].Recipient.Address)
	s.Equal("pending", env.Intents[0].Context["status"])
	s.Equal("2", env.Intents[0].Context["party_size"])
	s.Equal("CONF-9", env.Intents[0].Context["confirmation"])
}

func (s *EnricherPublicTestSuite) TestStatusChangeProducesExactlyOneUpdate() {
	err := s.enricher.HandleMutation(s.ctx, s.mutation(
		store.OpUpdate,
		s.guest(store.StatusPending),
		s.guest(store.StatusAttending),
	))

	s.Require().NoError(err)
	s.Require().Len(s.publisher.envelopes, 1)

	env := s.publisher.envelopes[0]
	s.Equal(notify.TemplateUpdate, env.Template)
	s.Require().Len(env.Intents, 1)
	s.Equal("attending", env.Intents[0].Context["status"])
}

func (s *EnricherPublicTestSuite) TestUnchangedStatusProducesNothing() {
	before := s.guest(store.StatusAttending)
	after := s.guest(store.StatusAttending)
	after.DietaryNotes = "vegetarian"

	err := s.enricher.HandleMutation(s.ctx, s.mutation(store.OpUpdate, before, after))

	s.Require().NoError(err)
	s.Empty(s.publisher.envelopes)
}

func (s *EnricherPublicTestSuite) TestSkippedMutations() {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "delete op",
			data: s.mutation(store.OpDelete, s.guest(store.StatusAttending), nil),
		},
		{
			name: "unrecognized op",
			data: s.mutation("upsert", nil, s.guest(store.StatusPending)),
		},
		{
			name: "update missing before image",
			data: s.mutation(store.OpUpdate, nil, s.guest(store.StatusAttending)),
		},
		{
			name: "create without recipient",
			data: s.mutation(store.OpCreate, nil, &store.Guest{EventID: "hartwell-2026"}),
		},
		{
			name: "create without display name",
			data: s.mutation(store.OpCreate, nil, &store.Guest{
				EventID:    "hartwell-2026",
				Email:      "alice@example.com",
				RSVPStatus: store.StatusPending,
			}),
		},
		{
			name: "malformed payload",
			data: []byte("not json"),
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			err := s.enricher.HandleMutation(s.ctx, tc.data)

			s.Require().NoError(err)
			s.Empty(s.publisher.envelopes)
		})
	}
}

func (s *EnricherPublicTestSuite) TestSuppressedRecipientSkipped() {
	s.suppressions.suppressed["alice@example.com"] = true

	err := s.enricher.HandleMutation(s.ctx, s.mutation(store.OpCreate, nil, s.guest(store.StatusPending)))

	s.Require().NoError(err)
	s.Empty(s.publisher.envelopes)
}

func (s *EnricherPublicTestSuite) TestInfrastructureFailuresPropagate() {
	s.Run("suppression check error", func() {
		s.suppressions.checkErr = errors.New("kv unavailable")

		err := s.enricher.HandleMutation(s.ctx, s.mutation(store.OpCreate, nil, s.guest(store.StatusPending)))

		s.Require().Error(err)
		s.suppressions.checkErr = nil
	})

	s.Run("publish error", func() {
		s.publisher.publishErr = errors.New("stream unavailable")

		err := s.enricher.HandleMutation(s.ctx, s.mutation(store.OpCreate, nil, s.guest(store.StatusPending)))

		s.Require().Error(err)
	})
}

func TestEnricherPublicTestSuite(t *testing.T) {
	suite.Run(t, new(EnricherPublicTestSuite))
}
