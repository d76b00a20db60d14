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

package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// Recorder appends security events to a Store and raises alerts for
// critical ones. Recording never fails the surrounding request: persistence
// and alerting errors are logged and swallowed.
type Recorder struct {
	store   Store
	alerter Alerter
	logger  *slog.Logger
	now     func() time.Time
}

// NewRecorder creates a new Recorder. The alerter may be nil, in which case
// critical events are only persisted and logged.
func NewRecorder(
	logger *slog.Logger,
	store Store,
	alerter Alerter,
) *Recorder {
	return &Recorder{
		store:   store,
		alerter: alerter,
		logger:  logger,
		now:     time.Now,
	}
}

// Record persists a security event. The event's ID, timestamp, and severity
// are assigned here; callers supply only the what and the who.
func (r *Recorder) Record(
	ctx context.Context,
	eventType EventType,
	actor Actor,
	method string,
	path string,
	details map[string]string,
) {
	event := Event{
		ID:        ulid.Make().String(),
		Timestamp: r.now().UTC(),
		Type:      eventType,
		Severity:  SeverityOf(eventType),
		Actor:     actor,
		Method:    method,
		Path:      path,
		Details:   details,
	}

	if err := r.store.Write(ctx, event); err != nil {
		r.logger.Warn(
			"failed to write security event",
			slog.String("type", string(eventType)),
			slog.String("error", err.Error()),
		)
	}

	if event.Severity == SeverityCritical {
		r.alert(ctx, event)
	}
}

// alert notifies the configured alerter. Best effort.
func (r *Recorder) alert(
	ctx context.Context,
	event Event,
) {
	r.logger.Warn(
		"critical security event",
		slog.String("id", event.ID),
		slog.String("type", string(event.Type)),
		slog.String("email", event.Actor.Email),
		slog.String("source_ip", event.Actor.SourceIP),
	)

	if r.alerter == nil {
		return
	}

	if err := r.alerter.Alert(ctx, event); err != nil {
		r.logger.Warn(
			"failed to deliver security alert",
			slog.String("id", event.ID),
			slog.String("error", err.Error()),
		)
	}
}
