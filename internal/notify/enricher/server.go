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

package enricher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/hartwell/rsvpd/internal/config"
	"github.com/hartwell/rsvpd/internal/messaging"
	"github.com/hartwell/rsvpd/internal/notify"
	"github.com/hartwell/rsvpd/internal/store"
	"github.com/hartwell/rsvpd/internal/telemetry"
)

// defaultConsumer is the durable consumer name when none is configured.
const defaultConsumer = "rsvpd_enricher"

// Server runs the enricher against the change feed consumer.
type Server struct {
	client   messaging.Client
	enricher *Enricher
	cfg      config.NotifyEnricher
	logger   *slog.Logger

	cc jetstream.ConsumeContext
}

// NewServer creates a new enricher Server.
func NewServer(
	logger *slog.Logger,
	client messaging.Client,
	enricher *Enricher,
	cfg config.NotifyEnricher,
) *Server {
	return &Server{
		client:   client,
		enricher: enricher,
		cfg:      cfg,
		logger:   logger,
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

	if _, err := s.client.EnsureConsumer(ctx, notify.StreamMutations, jetstream.ConsumerConfig{
		Durable:       durable,
		FilterSubject: store.SubjectGuestMutations,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckWait:       ackWait,
		MaxAckPending: s.cfg.MaxAckPending,
	}); err != nil {
		return err
	}

	cc, err := s.client.Consume(ctx, notify.StreamMutations, durable, s.handle)
	if err != nil {
		return fmt.Errorf("start enricher consumer: %w", err)
	}

	s.cc = cc

	return nil
}

// handle processes one change feed message.
func (s *Server) handle(
	msg jetstream.Msg,
) {
	ctx := telemetry.ExtractTraceContextFromHeader(
		context.Background(),
		http.Header(msg.Headers()),
	)

	if err := s.enricher.HandleMutation(ctx, msg.Data()); err != nil {
		s.logger.Error(
			"failed to process mutation",
			slog.String("error", err.Error()),
		)
		if err := msg.Nak(); err != nil {
			s.logger.Warn(
				"failed to nak mutation",
				slog.String("error", err.Error()),
			)
		}
		return
	}

	if err := msg.Ack(); err != nil {
		s.logger.Warn(
			"failed to ack mutation",
			slog.String("error", err.Error()),
		)
	}
}

// Start implements the cli.Lifecycle interface.
func (s *Server) Start() {
	s.logger.Info("enricher started")
}

// Stop implements the cli.Lifecycle interface.
func (s *Server) Stop(
	_ context.Context,
) {
	if s.cc != nil {
		s.cc.Stop()
	}

	s.logger.Info("enricher stopped")
}
