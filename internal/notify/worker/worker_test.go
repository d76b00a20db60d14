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

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/suite"

	"github.com/hartwell/rsvpd/internal/notify"
	"github.com/hartwell/rsvpd/internal/notify/provider"
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

type fakeRenderer struct {
	renderErr error
}

func (f *fakeRenderer) Render(
	_ string,
	ctx map[string]string,
) (string, error) {
	if f.renderErr != nil {
		return "", f.renderErr
	}
	return "<p>Hi " + ctx["name"] + "</p>", nil
}

func (f *fakeRenderer) Subject(
	_ string,
) string {
	return "RSVP"
}

type fakeProvider struct {
	sent    []provider.Message
	sendErr map[string]error
}

func (f *fakeProvider) Send(
	_ context.Context,
	msg provider.Message,
) error {
	if err, ok := f.sendErr[msg.To]; ok {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakePacer struct {
	waits int
}

func (f *fakePacer) Wait(
	_ context.Context,
) error {
	f.waits++
	return nil
}

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	messages   []published
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
	f.messages = append(f.messages, published{subject: subject, data: data})
	return nil
}

type WorkerTestSuite struct {
	suite.Suite

	suppressions *fakeSuppressions
	renderer     *fakeRenderer
	provider     *fakeProvider
	pacer        *fakePacer
	publisher    *fakePublisher
	worker       *Worker
	base         time.Time
	ctx          context.Context
}

func (s *WorkerTestSuite) SetupTest() {
	s.suppressions = &fakeSuppressions{suppressed: map[string]bool{}}
	s.renderer = &fakeRenderer{}
	s.provider = &fakeProvider{sendErr: map[string]error{}}
	s.pacer = &fakePacer{}
	s.publisher = &fakePublisher{}
	s.base = time.Date(2026, time.June, 20, 12, 0, 0, 0, time.UTC)
	s.ctx = context.Background()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.worker = New(
		logger,
		s.suppressions,
		s.renderer,
		s.provider,
		s.pacer,
		s.publisher,
		Options{
			MaxRetries:  5,
			BackoffBase: 30 * time.Second,
			BackoffCap:  10 * time.Minute,
		},
	)
	s.worker.now = func() time.Time { return s.base }
}

func (s *WorkerTestSuite) intent(
	address string,
	name string,
) notify.Intent {
	return notify.Intent{
		ID:       "intent-" + address,
		Template: notify.TemplateConfirmation,
		Recipient: notify.Recipient{
			Address: address,
			Name:    name,
		},
		Context: map[string]string{"name": name},
	}
}

func (s *WorkerTestSuite) envelope(
	retryCount int,
	intents ...notify.Intent,
) notify.Envelope {
	return notify.Envelope{
		ID:         "env-1",
		Template:   notify.TemplateConfirmation,
		Intents:    intents,
		RetryCount: retryCount,
	}
}

func (s *WorkerTestSuite) retried() notify.Envelope {
	s.Require().NotEmpty(s.publisher.messages)
	last := s.publisher.messages[len(s.publisher.messages)-1]
	s.Require().Equal(notify.SubjectSend, last.subject)

	var env notify.Envelope
	s.Require().NoError(json.Unmarshal(last.data, &env))
	return env
}

func (s *WorkerTestSuite) TestAllDelivered() {
	err := s.worker.Process(s.ctx, s.envelope(0,
		s.intent("alice@example.com", "Alice"),
		s.intent("bob@example.com", "Bob"),
	))

	s.Require().NoError(err)
	s.Len(s.provider.sent, 2)
	s.Equal(2, s.pacer.waits)
	s.Empty(s.publisher.messages)
}

func (s *WorkerTestSuite) TestSuppressedNeverReachesProvider() {
	s.suppressions.suppressed["alice@example.com"] = true

	err := s.worker.Process(s.ctx, s.envelope(0,
		s.intent("alice@example.com", "Alice"),
		s.intent("bob@example.com", "Bob"),
	))

	s.Require().NoError(err)
	s.Require().Len(s.provider.sent, 1)
	s.Equal("bob@example.com", s.provider.sent[0].To)
	s.Empty(s.publisher.messages)
}

func (s *WorkerTestSuite) TestTransientFailureRetriesOnlyFailedSubset() {
	s.provider.sendErr["bob@example.com"] = provider.Transientf("status 503")

	err := s.worker.Process(s.ctx, s.envelope(0,
		s.intent("alice@example.com", "Alice"),
		s.intent("bob@example.com", "Bob"),
		s.intent("carol@example.com", "Carol"),
	))

	s.Require().NoError(err)
	s.Len(s.provider.sent, 2)

	env := s.retried()
	s.Equal(1, env.RetryCount)
	s.Require().Len(env.Intents, 1)
	s.Equal("bob@example.com", env.Intents[0].Recipient.Address)
	s.Contains(env.LastError, "503")
	s.True(env.NotBefore.After(s.base))
}

func (s *WorkerTestSuite) TestBackoffGrowsWithRetryCount() {
	s.provider.sendErr["bob@example.com"] = provider.Transientf("status 503")

	err := s.worker.Process(s.ctx, s.envelope(2, s.intent("bob@example.com", "Bob")))

	s.Require().NoError(err)

	env := s.retried()
	s.Equal(3, env.RetryCount)
	// 30s * 2^2, jitter adds at most one second
	s.True(env.NotBefore.Sub(s.base) >= 2*time.Minute)
	s.True(env.NotBefore.Sub(s.base) < 2*time.Minute+2*time.Second)
}

func (s *WorkerTestSuite) TestPermanentFailureNotRetried() {
	s.provider.sendErr["bob@example.com"] = errors.New("status 400")

	err := s.worker.Process(s.ctx, s.envelope(0,
		s.intent("alice@example.com", "Alice"),
		s.intent("bob@example.com", "Bob"),
	))

	s.Require().NoError(err)
	s.Len(s.provider.sent, 1)
	s.Empty(s.publisher.messages)
}

func (s *WorkerTestSuite) TestDeadLetterAtMaxRetries() {
	s.provider.sendErr["bob@example.com"] = provider.Transientf("status 503")

	err := s.worker.Process(s.ctx, s.envelope(4, s.intent("bob@example.com", "Bob")))

	s.Require().NoError(err)
	s.Require().Len(s.publisher.messages, 1)
	s.Equal(notify.SubjectDeadLetter, s.publisher.messages[0].subject)

	var dl notify.DeadLetter
	s.Require().NoError(json.Unmarshal(s.publisher.messages[0].data, &dl))
	s.Equal(5, dl.Envelope.RetryCount)
	s.Require().Len(dl.Envelope.Intents, 1)
	s.Contains(dl.Reason, "503")
	s.Equal(s.base, dl.DeadLetteredAt)
}

func (s *WorkerTestSuite) TestOneBelowMaxStillRetries() {
	s.provider.sendErr["bob@example.com"] = provider.Transientf("status 503")

	err := s.worker.Process(s.ctx, s.envelope(3, s.intent("bob@example.com", "Bob")))

	s.Require().NoError(err)
	s.Require().Len(s.publisher.messages, 1)
	s.Equal(notify.SubjectSend, s.publisher.messages[0].subject)
}

func (s *WorkerTestSuite) TestRenderErrorNotRetried() {
	s.renderer.renderErr = errors.New("missing variable")

	err := s.worker.Process(s.ctx, s.envelope(0, s.intent("alice@example.com", "Alice")))

	s.Require().NoError(err)
	s.Empty(s.provider.sent)
	s.Empty(s.publisher.messages)
}

func (s *WorkerTestSuite) TestSuppressionCheckErrorRetries() {
	s.suppressions.checkErr = errors.New("kv unavailable")

	err := s.worker.Process(s.ctx, s.envelope(0, s.intent("alice@example.com", "Alice")))

	s.Require().NoError(err)
	s.Empty(s.provider.sent)

	env := s.retried()
	s.Equal(1, env.RetryCount)
}

func (s *WorkerTestSuite) TestRepublishFailurePropagates() {
	s.provider.sendErr["bob@example.com"] = provider.Transientf("status 503")
	s.publisher.publishErr = errors.New("stream unavailable")

	err := s.worker.Process(s.ctx, s.envelope(0, s.intent("bob@example.com", "Bob")))

	s.Require().Error(err)
}

func TestWorkerTestSuite(t *testing.T) {
	suite.Run(t, new(WorkerTestSuite))
}
