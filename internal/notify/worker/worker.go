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

// Package worker delivers queued notification envelopes through the email
// provider, pacing sends and retrying transient failures with exponential
// backoff until the envelope is delivered or dead-lettered.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hartwell/rsvpd/internal/notify"
	"github.com/hartwell/rsvpd/internal/notify/provider"
	"github.com/hartwell/rsvpd/internal/telemetry"
)

// Pacer throttles provider sends. Satisfied by rate.Limiter.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Renderer renders notification templates. Satisfied by template.Renderer.
type Renderer interface {
	Render(name string, ctx map[string]string) (string, error)
	Subject(name string) string
}

// Options configures delivery behavior.
type Options struct {
	// MaxRetries is how many delivery attempts an envelope gets before it
	// is dead-lettered.
	MaxRetries int
	// BackoffBase is the delay before the first retry.
	BackoffBase time.Duration
	// BackoffCap bounds the exponential delay.
	BackoffCap time.Duration
}

// Worker processes envelopes from the send queue.
type Worker struct {
	suppressions notify.SuppressionChecker
	renderer     Renderer
	provider     provider.Provider
	pacer        Pacer
	publisher    notify.Publisher
	opts         Options
	logger       *slog.Logger
	now          func() time.Time
}

// New creates a new Worker.
func New(
	logger *slog.Logger,
	suppressions notify.SuppressionChecker,
	renderer Renderer,
	p provider.Provider,
	pacer Pacer,
	publisher notify.Publisher,
	opts Options,
) *Worker {
	return &Worker{
		suppressions: suppressions,
		renderer:     renderer,
		provider:     p,
		pacer:        pacer,
		publisher:    publisher,
		opts:         opts,
		logger:       logger,
		now:          time.Now,
	}
}

// Process delivers one envelope. Transient send failures collect into a
// retry subset that is republished with a bumped RetryCount and a backoff
// gate, or dead-lettered once retries are exhausted. Errors are returned
// only for infrastructure failures, so the caller redelivers the envelope.
func (w *Worker) Process(
	ctx context.Context,
	env notify.Envelope,
) error {
	var retry []notify.Intent
	var lastErr string

	for _, intent := range env.Intents {
		suppressed, err := w.suppressions.IsSuppressed(ctx, intent.Recipient.Address)
		if err != nil {
			// suppression store unavailable: keep the intent for retry
			// rather than risking a send to a suppressed address
			retry = append(retry, intent)
			lastErr = err.Error()
			continue
		}
		if suppressed {
			telemetry.SuppressionSkips.Inc()
			w.logger.Info(
				"skipping suppressed recipient",
				slog.String("envelope_id", env.ID),
				slog.String("intent_id", intent.ID),
			)
			continue
		}

		body, err := w.renderer.Render(env.Template, intent.Context)
		if err != nil {
			// template failures cannot succeed on retry
			w.logger.Error(
				"failed to render notification",
				slog.String("envelope_id", env.ID),
				slog.String("template", env.Template),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := w.pacer.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}

		err = w.provider.Send(ctx, provider.Message{
			To:       intent.Recipient.Address,
			ToName:   intent.Recipient.Name,
			Subject:  w.renderer.Subject(env.Template),
			HTMLBody: body,
		})
		if err == nil {
			telemetry.NotificationsSent.WithLabelValues(env.Template).Inc()
			continue
		}

		if provider.IsTransient(err) {
			retry = append(retry, intent)
			lastErr = err.Error()
			w.logger.Warn(
				"transient send failure",
				slog.String("envelope_id", env.ID),
				slog.String("intent_id", intent.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		w.logger.Error(
			"permanent send failure",
			slog.String("envelope_id", env.ID),
			slog.String("intent_id", intent.ID),
			slog.String("error", err.Error()),
		)
	}

	if len(retry) == 0 {
		return nil
	}

	next := env.RetryCount + 1
	if next >= w.opts.MaxRetries {
		return w.deadLetter(ctx, env, retry, lastErr)
	}

	return w.requeue(ctx, env, retry, next, lastErr)
}

// requeue republishes the failed subset with backoff.
func (w *Worker) requeue(
	ctx context.Context,
	env notify.Envelope,
	retry []notify.Intent,
	next int,
	lastErr string,
) error {
	delay := notify.Backoff(w.opts.BackoffBase, w.opts.BackoffCap, env.RetryCount)

	out := notify.Envelope{
		ID:         env.ID,
		Template:   env.Template,
		Intents:    retry,
		RetryCount: next,
		NotBefore:  w.now().UTC().Add(delay),
		LastError:  lastErr,
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal retry envelope: %w", err)
	}

	header := nats.Header{}
	telemetry.InjectTraceContextToHeader(ctx, http.Header(header))

	if err := w.publisher.Publish(ctx, notify.SubjectSend, data, header); err != nil {
		return fmt.Errorf("publish retry envelope: %w", err)
	}

	telemetry.NotificationRetries.Inc()
	w.logger.Info(
		"requeued envelope",
		slog.String("envelope_id", env.ID),
		slog.Int("retry_count", next),
		slog.Duration("delay", delay),
	)

	return nil
}

// deadLetter abandons the envelope to the dead-letter stream.
func (w *Worker) deadLetter(
	ctx context.Context,
	env notify.Envelope,
	retry []notify.Intent,
	lastErr string,
) error {
	env.Intents = retry
	env.RetryCount++
	env.LastError = lastErr

	data, err := json.Marshal(notify.DeadLetter{
		Envelope:       env,
		Reason:         lastErr,
		DeadLetteredAt: w.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}

	header := nats.Header{}
	telemetry.InjectTraceContextToHeader(ctx, http.Header(header))

	if err := w.publisher.Publish(ctx, notify.SubjectDeadLetter, data, header); err != nil {
		return fmt.Errorf("publish dead letter: %w", err)
	}

	telemetry.NotificationsDeadLettered.Inc()
	w.logger.Error(
		"dead-lettered envelope",
		slog.String("envelope_id", env.ID),
		slog.Int("retry_count", env.RetryCount),
		slog.String("last_error", lastErr),
	)

	return nil
}
