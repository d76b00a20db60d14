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

// Package enricher turns guest mutations from the change feed into
// notification envelopes on the send queue. Only status-changing mutations
// produce notifications.
package enricher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"

	"github.com/hartwell/rsvpd/internal/notify"
	"github.com/hartwell/rsvpd/internal/store"
	"github.com/hartwell/rsvpd/internal/telemetry"
)

// Enricher derives notification envelopes from guest mutations.
type Enricher struct {
	suppressions notify.SuppressionChecker
	publisher    notify.Publisher
	logger       *slog.Logger
}

// New creates a new Enricher.
func New(
	logger *slog.Logger,
	suppressions notify.SuppressionChecker,
	publisher notify.Publisher,
) *Enricher {
	return &Enricher{
		suppressions: suppressions,
		publisher:    publisher,
		logger:       logger,
	}
}

// HandleMutation processes one change feed message. Malformed payloads and
// mutations that produce no notification are consumed silently (the caller
// acks); only infrastructure failures return an error so the message is
// redelivered.
func (e *Enricher) HandleMutation(
	ctx context.Context,
	data []byte,
) error {
	var event store.MutationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		e.logger.Warn(
			"discarding malformed mutation",
			slog.String("error", err.Error()),
		)
		return nil
	}

	intent := e.intentFor(event)
	if intent == nil {
		return nil
	}

	suppressed, err := e.suppressions.IsSuppressed(ctx, intent.Recipient.Address)
	if err != nil {
		return fmt.Errorf("check suppression: %w", err)
	}
	if suppressed {
		e.logger.Info(
			"skipping suppressed recipient",
			slog.String("key", event.Key),
			slog.String("template", intent.Template),
		)
		telemetry.SuppressionSkips.Inc()
		return nil
	}

	envelope := notify.Envelope{
		ID:       ulid.Make().String(),
		Template: intent.Template,
		Intents:  []notify.Intent{*intent},
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	header := nats.Header{}
	telemetry.InjectTraceContextToHeader(ctx, http.Header(header))

	if err := e.publisher.Publish(ctx, notify.SubjectSend, payload, header); err != nil {
		return fmt.Errorf("publish envelope: %w", err)
	}

	e.logger.Info(
		"queued notification",
		slog.String("envelope_id", envelope.ID),
		slog.String("template", intent.Template),
		slog.String("key", event.Key),
	)

	return nil
}

// intentFor maps one mutation to at most one intent. Creates announce the
// record; updates only matter when the RSVP status changed; deletes and
// unrecognized ops are dropped.
func (e *Enricher) intentFor(
	event store.MutationEvent,
) *notify.Intent {
	switch event.Op {
	case store.OpCreate:
		if event.After == nil || event.After.Email == "" {
			return nil
		}
		if event.After.Name == "" {
			e.logger.Warn(
				"discarding create mutation without display name",
				slog.String("key", event.Key),
			)
			return nil
		}
		return e.buildIntent(notify.TemplateConfirmation, event)

	case store.OpUpdate:
		if event.Before == nil || event.After == nil {
			e.logger.Warn(
				"discarding update mutation without both images",
				slog.String("key", event.Key),
			)
			return nil
		}
		if event.Before.RSVPStatus == event.After.RSVPStatus {
			return nil
		}
		if event.After.Email == "" {
			return nil
		}
		return e.buildIntent(notify.TemplateUpdate, event)

	case store.OpDelete:
		return nil

	default:
		e.logger.Warn(
			"discarding mutation with unrecognized op",
			slog.String("op", event.Op),
			slog.String("key", event.Key),
		)
		return nil
	}
}

// buildIntent assembles the intent and its template context.
func (e *Enricher) buildIntent(
	template string,
	event store.MutationEvent,
) *notify.Intent {
	guest := event.After

	ctx := map[string]string{
		"name":       guest.Name,
		"status":     guest.RSVPStatus,
		"party_size": strconv.Itoa(guest.PlusOnes + 1),
	}
	if guest.Confirmation != "" {
		ctx["confirmation"] = guest.Confirmation
	}

	return &notify.Intent{
		ID:       ulid.Make().String(),
		Template: template,
		Recipient: notify.Recipient{
			Address: guest.Email,
			Name:    guest.Name,
		},
		Context:        ctx,
		CorrelationKey: event.Key,
		SourceEventID:  event.EventID,
	}
}
