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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// LogAlerter writes critical events to the structured log. It is the default
// alerter when no webhook is configured.
type LogAlerter struct {
	logger *slog.Logger
}

// NewLogAlerter creates a new LogAlerter.
func NewLogAlerter(
	logger *slog.Logger,
) *LogAlerter {
	return &LogAlerter{
		logger: logger,
	}
}

// Alert implements the Alerter interface.
func (a *LogAlerter) Alert(
	_ context.Context,
	event Event,
) error {
	a.logger.Error(
		"security alert",
		slog.String("id", event.ID),
		slog.String("type", string(event.Type)),
		slog.String("severity", string(event.Severity)),
		slog.String("email", event.Actor.Email),
		slog.String("source_ip", event.Actor.SourceIP),
		slog.String("path", event.Path),
	)

	return nil
}

// WebhookAlerter POSTs critical events as JSON to an external endpoint, such
// as a chat integration or paging service.
type WebhookAlerter struct {
	url    string
	client *http.Client
}

// NewWebhookAlerter creates a new WebhookAlerter.
func NewWebhookAlerter(
	url string,
	timeout time.Duration,
) *WebhookAlerter {
	return &WebhookAlerter{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Alert implements the Alerter interface.
func (a *WebhookAlerter) Alert(
	ctx context.Context,
	event Event,
) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal security alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build security alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("post security alert: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("post security alert: unexpected status %d", resp.StatusCode)
	}

	return nil
}
