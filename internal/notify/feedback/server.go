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

package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/hartwell/rsvpd/internal/messaging"
	"github.com/hartwell/rsvpd/internal/notify"
	"github.com/hartwell/rsvpd/internal/telemetry"
)

// consumerName is the durable consumer for provider feedback.
const consumerName = "rsvpd_feedback"

// Server runs the feedback processor against the feedback consumer.
type Server struct {
	client    messaging.Client
	processor *Processor
	logger    *slog.Logger

	cc jetstream.ConsumeContext
}

// NewServer creates a new feedback Server.
func NewServer(
	logger *slog.Logger,
	client messaging.Client,
	processor *Processor,
) *Server {
	return &Server{
		client:    client,
		processor: processor,
		logger:    logger,
	}
}

// Setup creates the durable consumer and begins consumption.
func (s *Server) Setup(
	ctx context.Context,
) error {
	if _, err := s.client.EnsureConsumer(ctx, notify.StreamNotify, jetstream.ConsumerConfig{
		Durable:       consumerName,
		FilterSubject: notify.SubjectFeedback,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}); err != nil {
		return err
	}

	cc, err := s.client.Consume(ctx, notify.StreamNotify, consumerName, s.handle)
	if err != nil {
		return fmt.Errorf("start feedback consumer: %w", err)
	}

	s.cc = cc

	return nil
}

// handle processes one feedback message. Reports are always acked; the
// processor never asks for redelivery.
func (s *Server) handle(
	msg jetstream.Msg,
) {
	ctx := telemetry.ExtractTraceContextFromHeader(
		context.Background(),
		http.Header(msg.Headers()),
	)

	s.processor.HandleFeedback(ctx, msg.Data())

	if err := msg.Ack(); err != nil {
		s.logger.Warn(
			"failed to ack feedback",
			slog.String("error", err.Error()),
		)
	}
}

// Start implements the cli.Lifecycle interface.
func (s *Server) Start() {
	s.logger.Info("feedback processor started")
}

// Stop implements the cli.Lifecycle interface.
func (s *Server) Stop(
	_ context.Context,
) {
	if s.cc != nil {
		s.cc.Stop()
	}

	s.logger.Info("feedback processor stopped")
}
