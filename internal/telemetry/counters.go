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

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters exposed on the Prometheus scrape endpoint.
var (
	// AuthFailures counts rejected authentication attempts by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsvpd_auth_failures_total",
		Help: "Rejected authentication attempts by reason.",
	}, []string{"reason"})

	// Lockouts counts abuse throttle lockouts by operation key prefix.
	Lockouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsvpd_throttle_lockouts_total",
		Help: "Abuse throttle lockouts by operation.",
	}, []string{"operation"})

	// NotificationsSent counts successful provider sends by template.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsvpd_notifications_sent_total",
		Help: "Successful notification sends by template.",
	}, []string{"template"})

	// NotificationRetries counts envelopes re-enqueued for retry.
	NotificationRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rsvpd_notification_retries_total",
		Help: "Notification envelopes re-enqueued with backoff.",
	})

	// NotificationsDeadLettered counts envelopes written to the DLQ.
	NotificationsDeadLettered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rsvpd_notifications_dead_lettered_total",
		Help: "Notification envelopes moved to the dead-letter stream.",
	})

	// SuppressionSkips counts sends skipped due to a suppression entry.
	SuppressionSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rsvpd_suppression_skips_total",
		Help: "Notification sends skipped for suppressed recipients.",
	})

	// FeedbackEvents counts processed provider feedback by kind and outcome.
	FeedbackEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsvpd_feedback_events_total",
		Help: "Provider feedback events by kind and outcome.",
	}, []string{"kind", "outcome"})
)
