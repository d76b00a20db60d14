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
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hartwell/rsvpd/internal/store"
)

type SuppressionStorePublicTestSuite struct {
	suite.Suite

	kv           *fakeKV
	suppressions *store.SuppressionStore
	ctx          context.Context
}

func (s *SuppressionStorePublicTestSuite) SetupTest() {
	s.kv = newFakeKV()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.suppressions = store.NewSuppressionStore(logger, s.kv)
	s.ctx = context.Background()
}

func (s *SuppressionStorePublicTestSuite) TestSuppressAndGet() {
	err := s.suppressions.Suppress(s.ctx, store.Entry{
		Address:    "alice@example.com",
		Reason:     store.ReasonBouncedHard,
		FeedbackID: "fb-001",
	})

	s.Require().NoError(err)

	entry, err := s.suppressions.Get(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(store.ReasonBouncedHard, entry.Reason)
	s.Equal("fb-001", entry.FeedbackID)
	s.False(entry.Timestamp.IsZero())
}

func (s *SuppressionStorePublicTestSuite) TestIsSuppressed() {
	s.Require().NoError(s.suppressions.Suppress(s.ctx, store.Entry{
		Address: "alice@example.com",
		Reason:  store.ReasonComplained,
	}))

	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{
			name:    "suppressed address",
			address: "alice@example.com",
			want:    true,
		},
		{
			name:    "address lookup is case insensitive",
			address: "ALICE@example.com",
			want:    true,
		},
		{
			name:    "clean address",
			address: "bob@example.com",
			want:    false,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			got, err := s.suppressions.IsSuppressed(s.ctx, tc.address)

			s.Require().NoError(err)
			s.Equal(tc.want, got)
		})
	}
}

func (s *SuppressionStorePublicTestSuite) TestGetNotSuppressed() {
	_, err := s.suppressions.Get(s.ctx, "bob@example.com")

	s.Require().ErrorIs(err, store.ErrNotSuppressed)
}

func (s *SuppressionStorePublicTestSuite) TestSuppressOverwrites() {
	s.Require().NoError(s.suppressions.Suppress(s.ctx, store.Entry{
		Address: "alice@example.com",
		Reason:  store.ReasonBouncedHard,
	}))
	s.Require().NoError(s.suppressions.Suppress(s.ctx, store.Entry{
		Address: "alice@example.com",
		Reason:  store.ReasonComplained,
	}))

	entry, err := s.suppressions.Get(s.ctx, "alice@example.com")

	s.Require().NoError(err)
	s.Equal(store.ReasonComplained, entry.Reason)
}

func (s *SuppressionStorePublicTestSuite) TestSuppressStoreError() {
	s.kv.putErr = errors.New("bucket unavailable")

	err := s.suppressions.Suppress(s.ctx, store.Entry{
		Address: "alice@example.com",
		Reason:  store.ReasonBouncedHard,
	})

	s.Require().Error(err)
	s.ErrorContains(err, "put suppression entry")
}

func TestSuppressionStorePublicTestSuite(t *testing.T) {
	suite.Run(t, new(SuppressionStorePublicTestSuite))
}
