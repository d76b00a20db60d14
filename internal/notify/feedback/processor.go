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

// Package feedback turns provider delivery reports into suppression
// entries. Permanent bounces and complaints stop all future mail to the
// address; transient reports are only counted.
package feedback

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hartwell/rsvpd/internal/notify"
	"github.com/hartwell/rsvpd/internal/store"
	"github.com/hartwell/rsvpd/internal/telemetry"
)

// Suppressor records addresses as undeliverable. Satisfied by
// store.SuppressionStore.
type Suppressor interface {
	Suppress(ctx context.Context, entry store.Entry) error
}

// GuestMarker mirrors suppressions onto guest records. Satisfied by
// store.GuestStore.
type GuestMarker interface {
	MarkEmailInvalid(ctx context.Context, address string) error
}

// Processor handles provider feedback reports.
type Processor struct {
	suppressions Suppressor
	guests       GuestMarker
	logger       *slog.Logger
}

// New creates a new Processor.
func New(
	logger *slog.Logger,
	suppressions Suppressor,
	guests GuestMarker,
) *Processor {
	return &Processor{
		suppressions: suppressions,
		guests:       guests,
		logger:       logger,
	}
}

// HandleFeedback processes one provider report. Recipients are independent:
// a failure on one is logged and the rest continue. Unknown kinds are
// ignored. Errors are never returned; redelivering a report that partially
// applied would re-suppress addresses, which is harmless but pointless.
func (p *Processor) HandleFeedback(
	ctx context.Context,
	data []byte,
) {
	var fb notify.Feedback
	if err := json.Unmarshal(data, &fb); err != nil {
		p.logger.Warn(
			"discarding malformed feedback",
			slog.String("error", err.Error()),
		)
		return
	}

	switch fb.Kind {
	case notify.FeedbackKindBounce:
		p.handleBounce(ctx, fb)
	case notify.FeedbackKindComplaint:
		p.suppressAll(ctx, fb, store.ReasonComplained)
	default:
		p.logger.Warn(
			"ignoring feedback with unknown kind",
			slog.String("kind", fb.Kind),
			slog.String("feedback_id", fb.FeedbackID),
		)
	}
}

// handleBounce suppresses permanent bounces and counts the rest.
func (p *Processor) handleBounce(
	ctx context.Context,
	fb notify.Feedback,
) {
	switch fb.BounceType {
	case notify.BouncePermanent:
		p.suppressAll(ctx, fb, store.ReasonBouncedHard)
	case notify.BounceTransient, notify.BounceUndetermined:
		telemetry.FeedbackEvents.WithLabelValues(fb.Kind, "ignored").Inc()
		p.logger.Info(
			"soft bounce, not suppressing",
			slog.String("bounce_type", fb.BounceType),
			slog.String("feedback_id", fb.FeedbackID),
		)
	default:
		telemetry.FeedbackEvents.WithLabelValues(fb.Kind, "ignored").Inc()
		p.logger.Warn(
			"ignoring bounce with unknown type",
			slog.String("bounce_type", fb.BounceType),
			slog.String("feedback_id", fb.FeedbackID),
		)
	}
}

// suppressAll suppresses every recipient on the report and mirrors the flag
// onto matching guest records.
func (p *Processor) suppressAll(
	ctx context.Context,
	fb notify.Feedback,
	reason string,
) {
	for _, address := range fb.Recipients {
		if address == "" {
			continue
		}

		err := p.suppressions.Suppress(ctx, store.Entry{
			Address:    address,
			Reason:     reason,
			FeedbackID: fb.FeedbackID,
			Timestamp:  fb.Timestamp,
		})
		if err != nil {
			telemetry.FeedbackEvents.WithLabelValues(fb.Kind, "error").Inc()
			p.logger.Error(
				"failed to suppress address",
				slog.String("feedback_id", fb.FeedbackID),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := p.guests.MarkEmailInvalid(ctx, address); err != nil {
			p.logger.Warn(
				"failed to flag guest record",
				slog.String("feedback_id", fb.FeedbackID),
				slog.String("error", err.Error()),
			)
		}

		telemetry.FeedbackEvents.WithLabelValues(fb.Kind, "suppressed").Inc()
		p.logger.Info(
			"suppressed address",
			slog.String("reason", reason),
			slog.String("feedback_id", fb.FeedbackID),
		)
	}
}
