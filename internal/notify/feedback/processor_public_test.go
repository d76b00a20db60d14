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

package feedback_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hartwell/rsvpd/internal/notify"
	"github.com/hartwell/rsvpd/internal/notify/feedback"
	"github.com/hartwell/rsvpd/internal/store"
)

type fakeSuppressor struct {
	entries     []store.Entry
	failAddress string
}

func (f *fakeSuppressor) Suppress(
	_ context.Context,
	entry store.Entry,
) error {
	if entry.Address == f.failAddress {
		return errors.New("kv unavailable")
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeGuestMarker struct {
	marked  []string
	markErr error
}

func (f *fakeGuestMarker) MarkEmailInvalid(
	_ context.Context,
	address string,
) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, address)
	return nil
}

type ProcessorPublicTestSuite struct {
	suite.Suite

	suppressor *fakeSuppressor
	guests     *fakeGuestMarker
	processor  *feedback.Processor
	ctx        context.Context
}

func (s *ProcessorPublicTestSuite) SetupTest() {
	s.suppressor = &fakeSuppressor{}
	s.guests = &fakeGuestMarker{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.processor = feedback.New(logger, s.suppressor, s.guests)
	s.ctx = context.Background()
}

func (s *ProcessorPublicTestSuite) payload(
	fb notify.Feedback,
) []byte {
	data, err := json.Marshal(fb)
	s.Require().NoError(err)
	return data
}

func (s *ProcessorPublicTestSuite) TestPermanentBounceSuppresses() {
	s.processor.HandleFeedback(s.ctx, s.payload(notify.Feedback{
		Kind:       notify.FeedbackKindBounce,
		BounceType: notify.BouncePermanent,
		FeedbackID: "fb-001",
		Recipients: []string{"alice@example.com"},
	}))

	s.Require().Len(s.suppressor.entries, 1)
	s.Equal(store.ReasonBouncedHard, s.suppressor.entries[0].Reason)
	s.Equal("fb-001", s.suppressor.entries[0].FeedbackID)
	s.Equal([]string{"alice@example.com"}, s.guests.marked)
}

func (s *ProcessorPublicTestSuite) TestComplaintSuppresses() {
	s.processor.HandleFeedback(s.ctx, s.payload(notify.Feedback{
		Kind:       notify.FeedbackKindComplaint,
		FeedbackID: "fb-002",
		Recipients: []string{"bob@example.com"},
	}))

	s.Require().Len(s.suppressor.entries, 1)
	s.Equal(store.ReasonComplained, s.suppressor.entries[0].Reason)
}

func (s *ProcessorPublicTestSuite) TestIgnoredFeedback() {
	tests := []struct {
		name string
		fb   notify.Feedback
	}{
		{
			name: "transient bounce",
			fb: notify.Feedback{
				Kind:       notify.FeedbackKindBounce,
				BounceType: notify.BounceTransient,
				Recipients: []string{"alice@example.com"},
			},
		},
		{
			name: "undetermined bounce",
			fb: notify.Feedback{
				Kind:       notify.FeedbackKindBounce,
				BounceType: notify.BounceUndetermined,
				Recipients: []string{"alice@example.com"},
			},
		},
		{
			name: "unknown kind",
			fb: notify.Feedback{
				Kind:       "delivery-delay",
				Recipients: []string{"alice@example.com"},
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.processor.HandleFeedback(s.ctx, s.payload(tc.fb))

			s.Empty(s.suppressor.entries)
			s.Empty(s.guests.marked)
		})
	}
}

func (s *ProcessorPublicTestSuite) TestMalformedPayloadIgnored() {
	s.NotPanics(func() {
		s.processor.HandleFeedback(s.ctx, []byte("not json"))
	})

	s.Empty(s.suppressor.entries)
}

func (s *ProcessorPublicTestSuite) TestRecipientsAreIndependent() {
	s.suppressor.failAddress = "alice@example.com"

	s.processor.HandleFeedback(s.ctx, s.payload(notify.Feedback{
		Kind:       notify.FeedbackKindBounce,
		BounceType: notify.BouncePermanent,
		Recipients: []string{"alice@example.com", "bob@example.com"},
	}))

	s.Require().Len(s.suppressor.entries, 1)
	s.Equal("bob@example.com", s.suppressor.entries[0].Address)
}

func (s *ProcessorPublicTestSuite) TestGuestMarkFailureStillSuppresses() {
	s.guests.markErr = errors.New("kv unavailable")

	s.processor.HandleFeedback(s.ctx, s.payload(notify.Feedback{
		Kind:       notify.FeedbackKindComplaint,
		Recipients: []string{"alice@example.com"},
	}))

	s.Len(s.suppressor.entries, 1)
}

func TestProcessorPublicTestSuite(t *testing.T) {
	suite.Run(t, new(ProcessorPublicTestSuite))
}
