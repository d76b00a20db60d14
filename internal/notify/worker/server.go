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
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/hartwell/rsvpd/internal/config"
	"github.com/hartwell/rsvpd/internal/messaging"
	"github.com/hartwell/rsvpd/internal/notify"
	"github.com/hartwell/rsvpd/internal/telemetry"
)

// defaultConsumer is the durable consumer name when none is configured.
const defaultConsumer = "rsvpd_worker"

// Server runs the delivery worker against the send queue consumer.
type Server struct {
	client messaging.Client
	worker *Worker
	cfg    config.NotifyWorker
	logger *slog.Logger
	now    func() time.Time

	cc jetstream.ConsumeContext
}

// NewServer creates a new worker Server.
func NewServer(
	logger *slog.Logger,
	client messaging.Client,
	worker *Worker,
	cfg config.NotifyWorker,
) *Server {
	return &Server{
		client: client,
		worker: worker,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Setup creates the durable consumer and begins consumption.
func (s *Server) Setup(
	ctx context.Context,
) error {
	durable := s.cfg.Consumer
	if durable == "" {
		durable = defaultConsumer
	}

	ackWait, _ := time.ParseDuration(s.cfg.AckWait)

	if _, err := s.client.EnsureConsumer(ctx, notify.StreamNotify, jetstream.ConsumerConfig{
		Durable:       durable,
		FilterSubject: notify.SubjectSend,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckWait:       ackWait,
		MaxAckPending: s.cfg.MaxAckPending,
	}); err != nil {
		return err
	}

	cc, err := s.client.Consume(ctx, notify.StreamNotify, durable, s.handle)
	if err != nil {
		return fmt.Errorf("start worker consumer: %w", err)
	}

	s.cc = cc

	return nil
}

// handle processes one send queue message. Envelopes delivered before their
// NotBefore gate go back with the remaining delay; JetStream has no
// producer-side delay, so the gate is enforced here.
func (s *Server) handle(
	msg jetstream.Msg,
) {
	ctx := telemetry.ExtractTraceContextFromHeader(
		context.Background(),
		http.Header(msg.Headers()),
	)

	var env notify.Envelope
	if err := json.Unmarshal(msg.Data(), &env); err != nil {
		s.logger.Warn(
			"discarding malformed envelope",
			slog.String("error", err.Error()),
		)
		s.ack(msg)
		return
	}

	if remaining := env.NotBefore.Sub(s.now()); remaining > 0 {
		if err := msg.NakWithDelay(remaining); err != nil {
			s.logger.Warn(
				"failed to delay envelope",
				slog.String("envelope_id", env.ID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	if err := s.worker.Process(ctx, env); err != nil {
		s.logger.Error(
			"failed to process envelope",
			slog.String("envelope_id", env.ID),
			slog.String("error", err.Error()),
		)
		if err := msg.Nak(); err != nil {
			s.logger.Warn(
				"failed to nak envelope",
				slog.String("envelope_id", env.ID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	s.ack(msg)
}

// ack acknowledges a message, logging failures.
func (s *Server) ack(
	msg jetstream.Msg,
) {
	if err := msg.Ack(); err != nil {
		s.logger.Warn(
			"failed to ack envelope",
			slog.String("error", err.Error()),
		)
	}
}

// Start implements the cli.Lifecycle interface.
func (s *Server) Start() {
	s.logger.Info("delivery worker started")
}

// Stop implements the cli.Lifecycle interface.
func (s *Server) Stop(
	_ context.Context,
) {
	if s.cc != nil {
		s.cc.Stop()
	}

	s.logger.Info("delivery worker stopped")
}
